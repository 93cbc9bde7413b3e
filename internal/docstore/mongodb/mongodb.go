// internal/docstore/mongodb/mongodb.go

// Package mongodb backs the docstore contract with a real MongoDB
// database. Deployments that configure a mongo_uri get this backend;
// everything above the contract behaves identically to memdb.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/circlehub/internal/docstore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB adapts a *mongo.Database to docstore.DB.
type DB struct {
	db *mongo.Database
}

// Wrap returns a docstore handle for db.
func Wrap(db *mongo.Database) *DB {
	return &DB{db: db}
}

// EnsureIndexes creates the unique index backing the one-membership-per
// (userId, groupId) invariant. The embedded backend enforces the same
// invariant in the lifecycle engine; here the database enforces it too.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	_, err := d.db.Collection("memberships").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "groupId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_membership_user_group"),
	})
	return err
}

func (d *DB) Collection(name string) docstore.Collection {
	return &collection{c: d.db.Collection(name)}
}

type collection struct {
	c *mongo.Collection
}

func (c *collection) Find(ctx context.Context, filter docstore.Filter, opts *docstore.FindOptions) ([]docstore.Document, error) {
	f, err := translateFilter(filter)
	if err != nil {
		return nil, err
	}
	findOpts := options.Find()
	if opts != nil {
		if len(opts.Sort) > 0 {
			sort := bson.D{}
			for _, k := range opts.Sort {
				dir := 1
				if k.Desc {
					dir = -1
				}
				sort = append(sort, bson.E{Key: k.Field, Value: dir})
			}
			findOpts.SetSort(sort)
		}
		if opts.Limit > 0 {
			findOpts.SetLimit(int64(opts.Limit))
		}
	}

	cur, err := c.c.Find(ctx, f, findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, err
	}
	out := make([]docstore.Document, 0, len(raw))
	for _, m := range raw {
		out = append(out, fromBSON(m))
	}
	return out, nil
}

func (c *collection) FindOne(ctx context.Context, filter docstore.Filter) (docstore.Document, error) {
	f, err := translateFilter(filter)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := c.c.FindOne(ctx, f).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, docstore.ErrNoDocuments
		}
		return nil, err
	}
	return fromBSON(m), nil
}

func (c *collection) InsertOne(ctx context.Context, doc docstore.Document) (string, error) {
	res, err := c.c.InsertOne(ctx, bson.M(doc))
	if err != nil {
		return "", err
	}
	return idString(res.InsertedID), nil
}

func (c *collection) UpdateOne(ctx context.Context, filter docstore.Filter, update docstore.Update) (int64, error) {
	f, err := translateEqFilter(filter)
	if err != nil {
		return 0, err
	}
	res, err := c.c.UpdateOne(ctx, f, translateUpdate(update))
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (c *collection) DeleteOne(ctx context.Context, filter docstore.Filter) (int64, error) {
	f, err := translateEqFilter(filter)
	if err != nil {
		return 0, err
	}
	res, err := c.c.DeleteOne(ctx, f)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (c *collection) DeleteMany(ctx context.Context, filter docstore.Filter) (int64, error) {
	f, err := translateEqFilter(filter)
	if err != nil {
		return 0, err
	}
	res, err := c.c.DeleteMany(ctx, f)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (c *collection) CountDocuments(ctx context.Context, filter docstore.Filter) (int64, error) {
	f, err := translateFilter(filter)
	if err != nil {
		return 0, err
	}
	return c.c.CountDocuments(ctx, f)
}

// translateFilter renders a Filter as the bson.M the driver expects.
func translateFilter(filter docstore.Filter) (bson.M, error) {
	switch f := filter.(type) {
	case nil:
		return bson.M{}, nil
	case docstore.Eq:
		return bson.M{f.Field: idValue(f.Field, f.Value)}, nil
	case docstore.Regex:
		expr := bson.M{"$regex": f.Pattern}
		if f.CaseInsensitive {
			expr["$options"] = "i"
		}
		return bson.M{f.Field: expr}, nil
	case docstore.Gte:
		return bson.M{f.Field: bson.M{"$gte": f.Value}}, nil
	case docstore.In:
		vals := make([]any, 0, len(f.Values))
		for _, v := range f.Values {
			vals = append(vals, idValue(f.Field, v))
		}
		return bson.M{f.Field: bson.M{"$in": vals}}, nil
	case docstore.And:
		if len(f) == 0 {
			return bson.M{}, nil
		}
		subs := make([]bson.M, 0, len(f))
		for _, sub := range f {
			m, err := translateFilter(sub)
			if err != nil {
				return nil, err
			}
			subs = append(subs, m)
		}
		return bson.M{"$and": subs}, nil
	case docstore.Or:
		subs := make([]bson.M, 0, len(f))
		for _, sub := range f {
			m, err := translateFilter(sub)
			if err != nil {
				return nil, err
			}
			subs = append(subs, m)
		}
		return bson.M{"$or": subs}, nil
	default:
		return nil, fmt.Errorf("%w: unknown filter %T", docstore.ErrBadFilter, filter)
	}
}

// translateEqFilter enforces the equality-only contract of update and
// delete operations before handing the filter to the driver, so both
// backends reject the same programmer errors.
func translateEqFilter(filter docstore.Filter) (bson.M, error) {
	switch f := filter.(type) {
	case nil:
		return bson.M{}, nil
	case docstore.Eq:
		return bson.M{f.Field: idValue(f.Field, f.Value)}, nil
	case docstore.And:
		out := bson.M{}
		for _, sub := range f {
			m, err := translateEqFilter(sub)
			if err != nil {
				return nil, err
			}
			for k, v := range m {
				out[k] = v
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T not allowed here, equality only", docstore.ErrBadFilter, filter)
	}
}

func translateUpdate(update docstore.Update) bson.M {
	out := bson.M{}
	if len(update.Set) > 0 {
		out["$set"] = bson.M(update.Set)
	}
	if len(update.Inc) > 0 {
		inc := bson.M{}
		for k, v := range update.Inc {
			inc[k] = v
		}
		out["$inc"] = inc
	}
	if len(out) == 0 {
		// The driver rejects an empty update document.
		out["$set"] = bson.M{}
	}
	return out
}

// fromBSON normalizes a decoded document: the _id becomes an opaque
// string, int32 counters widen to int, and BSON datetimes become
// time.Time so readers behave the same as on the embedded backend.
func fromBSON(m bson.M) docstore.Document {
	doc := docstore.Document{}
	for k, v := range m {
		switch val := v.(type) {
		case int32:
			doc[k] = int(val)
		case int64:
			doc[k] = int(val)
		case primitive.DateTime:
			doc[k] = val.Time().UTC()
		default:
			doc[k] = v
		}
	}
	doc["_id"] = idString(m["_id"])
	return doc
}

// idValue converts a string _id back to an ObjectID when it parses as
// one, since contract-level identifiers are opaque strings but the
// driver stores ObjectIDs.
func idValue(field string, v any) any {
	if field != "_id" {
		return v
	}
	s, ok := v.(string)
	if !ok {
		return v
	}
	if oid, err := primitive.ObjectIDFromHex(s); err == nil {
		return oid
	}
	return v
}

func idString(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case primitive.ObjectID:
		return v.Hex()
	default:
		return fmt.Sprintf("%v", id)
	}
}
