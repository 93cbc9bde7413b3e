// internal/docstore/memdb/memdb.go

// Package memdb is the embedded docstore backend: flat per-collection
// lists of documents held in insertion order for the lifetime of the
// process. It exists so the application runs with no mongo_uri
// configured; nothing is persisted.
package memdb

import (
	"context"
	"maps"
	"sort"
	"strconv"
	"sync"

	"github.com/dalemusser/circlehub/internal/docstore"
)

// DB is the embedded database. One mutex serializes all operations, so
// every store call executes to completion without interleaving.
type DB struct {
	mu          sync.Mutex
	collections map[string]*collection
	idFunc      func(collection string) string
	counters    map[string]int64
}

// Option configures Open.
type Option func(*DB)

// WithIDFunc replaces the default identifier generator. The default
// assigns each collection its own monotonically increasing counter,
// rendered as a decimal string.
func WithIDFunc(fn func(collection string) string) Option {
	return func(db *DB) { db.idFunc = fn }
}

// Open creates an empty embedded database. Tests open a fresh one per
// test for isolation; the application opens exactly one at startup.
func Open(opts ...Option) *DB {
	db := &DB{
		collections: make(map[string]*collection),
		counters:    make(map[string]int64),
	}
	db.idFunc = func(name string) string {
		db.counters[name]++
		return strconv.FormatInt(db.counters[name], 10)
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Collection returns a handle for name, creating it on first use.
func (db *DB) Collection(name string) docstore.Collection {
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.collections[name]
	if !ok {
		c = &collection{db: db, name: name}
		db.collections[name] = c
	}
	return c
}

type collection struct {
	db   *DB
	name string
	docs []docstore.Document
}

func (c *collection) Find(ctx context.Context, filter docstore.Filter, opts *docstore.FindOptions) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	var out []docstore.Document
	for _, d := range c.docs {
		ok, err := matchDoc(d, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, maps.Clone(d))
		}
	}
	if opts != nil && len(opts.Sort) > 0 {
		sortDocs(out, opts.Sort)
	}
	if opts != nil && opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (c *collection) FindOne(ctx context.Context, filter docstore.Filter) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	for _, d := range c.docs {
		ok, err := matchDoc(d, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			return maps.Clone(d), nil
		}
	}
	return nil, docstore.ErrNoDocuments
}

func (c *collection) InsertOne(ctx context.Context, doc docstore.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	stored := maps.Clone(doc)
	id, _ := stored["_id"].(string)
	if id == "" {
		id = c.db.idFunc(c.name)
		stored["_id"] = id
	}
	c.docs = append(c.docs, stored)
	return id, nil
}

func (c *collection) UpdateOne(ctx context.Context, filter docstore.Filter, update docstore.Update) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := eqOnly(filter); err != nil {
		return 0, err
	}
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	for _, d := range c.docs {
		ok, err := matchDoc(d, filter)
		if err != nil {
			return 0, err
		}
		if ok {
			if err := applyUpdate(d, update); err != nil {
				return 0, err
			}
			return 1, nil
		}
	}
	return 0, nil
}

func (c *collection) DeleteOne(ctx context.Context, filter docstore.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := eqOnly(filter); err != nil {
		return 0, err
	}
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	for i, d := range c.docs {
		ok, err := matchDoc(d, filter)
		if err != nil {
			return 0, err
		}
		if ok {
			c.docs = append(c.docs[:i], c.docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (c *collection) DeleteMany(ctx context.Context, filter docstore.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := eqOnly(filter); err != nil {
		return 0, err
	}
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	var kept []docstore.Document
	var removed int64
	for _, d := range c.docs {
		ok, err := matchDoc(d, filter)
		if err != nil {
			return 0, err
		}
		if ok {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	c.docs = kept
	return removed, nil
}

func (c *collection) CountDocuments(ctx context.Context, filter docstore.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	var n int64
	for _, d := range c.docs {
		ok, err := matchDoc(d, filter)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// sortDocs is a stable multi-key sort: the first key that differs
// decides, ties keep insertion order. Values of mismatched kinds
// compare as equal and fall through to the next key.
func sortDocs(docs []docstore.Document, keys []docstore.SortKey) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, k := range keys {
			cmp, ok := compareValues(docs[i][k.Field], docs[j][k.Field])
			if !ok || cmp == 0 {
				continue
			}
			if k.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}
