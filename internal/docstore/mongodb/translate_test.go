package mongodb

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/dalemusser/circlehub/internal/docstore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTranslateFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter docstore.Filter
		want   bson.M
	}{
		{
			name:   "nil filter",
			filter: nil,
			want:   bson.M{},
		},
		{
			name:   "equality",
			filter: docstore.Eq{Field: "category", Value: "Art"},
			want:   bson.M{"category": "Art"},
		},
		{
			name:   "regex case-insensitive",
			filter: docstore.Regex{Field: "title", Pattern: "foo", CaseInsensitive: true},
			want:   bson.M{"title": bson.M{"$regex": "foo", "$options": "i"}},
		},
		{
			name:   "regex case-sensitive has no options",
			filter: docstore.Regex{Field: "title", Pattern: "foo"},
			want:   bson.M{"title": bson.M{"$regex": "foo"}},
		},
		{
			name:   "gte",
			filter: docstore.Gte{Field: "memberCount", Value: 5},
			want:   bson.M{"memberCount": bson.M{"$gte": 5}},
		},
		{
			name: "or",
			filter: docstore.Or{
				docstore.Eq{Field: "status", Value: "pending"},
				docstore.Eq{Field: "status", Value: "approved"},
			},
			want: bson.M{"$or": []bson.M{
				{"status": "pending"},
				{"status": "approved"},
			}},
		},
		{
			name:   "empty and matches everything",
			filter: docstore.And{},
			want:   bson.M{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := translateFilter(tt.filter)
			if err != nil {
				t.Fatalf("translateFilter failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTranslateFilter_IDBecomesObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	got, err := translateFilter(docstore.Eq{Field: "_id", Value: oid.Hex()})
	if err != nil {
		t.Fatalf("translateFilter failed: %v", err)
	}
	if got["_id"] != oid {
		t.Errorf("expected hex id converted to ObjectID, got %v", got["_id"])
	}

	// Ids that are not valid hex stay opaque strings.
	got, err = translateFilter(docstore.Eq{Field: "_id", Value: "admin_user_id"})
	if err != nil {
		t.Fatalf("translateFilter failed: %v", err)
	}
	if got["_id"] != "admin_user_id" {
		t.Errorf("expected non-hex id unchanged, got %v", got["_id"])
	}
}

func TestTranslateEqFilter_RejectsOperators(t *testing.T) {
	_, err := translateEqFilter(docstore.Regex{Field: "title", Pattern: "x"})
	if !errors.Is(err, docstore.ErrBadFilter) {
		t.Errorf("expected ErrBadFilter, got %v", err)
	}

	_, err = translateEqFilter(docstore.And{
		docstore.Eq{Field: "a", Value: 1},
		docstore.Or{docstore.Eq{Field: "b", Value: 2}},
	})
	if !errors.Is(err, docstore.ErrBadFilter) {
		t.Errorf("expected ErrBadFilter for nested operator, got %v", err)
	}
}

func TestTranslateUpdate(t *testing.T) {
	got := translateUpdate(docstore.Update{
		Set: docstore.Document{"status": "approved"},
		Inc: map[string]int{"memberCount": 1},
	})
	want := bson.M{
		"$set": bson.M{"status": "approved"},
		"$inc": bson.M{"memberCount": 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFromBSON_NormalizesIDAndInts(t *testing.T) {
	oid := primitive.NewObjectID()
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := fromBSON(bson.M{
		"_id":         oid,
		"memberCount": int32(4),
		"createdAt":   primitive.NewDateTimeFromTime(now),
	})
	if doc["_id"] != oid.Hex() {
		t.Errorf("_id: got %v, want %q", doc["_id"], oid.Hex())
	}
	if doc["memberCount"] != 4 {
		t.Errorf("memberCount: got %v (%T), want int 4", doc["memberCount"], doc["memberCount"])
	}
	ts, ok := doc["createdAt"].(time.Time)
	if !ok {
		t.Fatalf("createdAt: got %T, want time.Time", doc["createdAt"])
	}
	if !ts.Equal(now) {
		t.Errorf("createdAt: got %v, want %v", ts, now)
	}
}
