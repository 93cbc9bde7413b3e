// internal/docstore/docstore.go

// Package docstore defines the document-store contract shared by the
// embedded in-memory backend (memdb) and the MongoDB backend (mongodb).
//
// Business stores are written once against this contract and work
// unchanged on either backend. The embedded backend exists so the
// application runs with no database configured; the MongoDB backend is
// the production target.
package docstore

import "context"

// Document is a single stored record. The identifier lives under the
// "_id" key and is an opaque string to callers.
type Document = map[string]any

// SortKey orders results by one field. Keys are applied in slice order;
// the first non-equal key decides, ties preserve insertion order.
type SortKey struct {
	Field string
	Desc  bool
}

// FindOptions controls ordering and result size for Find.
type FindOptions struct {
	Sort  []SortKey
	Limit int // 0 means no limit; applied after sort
}

// DB is a handle to a set of named collections.
type DB interface {
	Collection(name string) Collection
}

// Collection is the operation surface both backends implement.
//
// Find, FindOne, and CountDocuments accept the full Filter language.
// UpdateOne, DeleteOne, and DeleteMany accept equality-only filters (Eq
// and And of Eq); anything else is a programmer error reported as
// ErrBadFilter. A nil filter matches every document.
type Collection interface {
	Find(ctx context.Context, filter Filter, opts *FindOptions) ([]Document, error)

	// FindOne returns the first matching document in insertion order,
	// or ErrNoDocuments.
	FindOne(ctx context.Context, filter Filter) (Document, error)

	// InsertOne stores doc and returns its assigned identifier. The
	// caller's map is not retained.
	InsertOne(ctx context.Context, doc Document) (string, error)

	// UpdateOne applies update to the first matching document and
	// reports how many were modified (0 or 1). No match is not an error.
	UpdateOne(ctx context.Context, filter Filter, update Update) (int64, error)

	// DeleteOne removes the first matching document; DeleteMany removes
	// all matches. Both report the number removed.
	DeleteOne(ctx context.Context, filter Filter) (int64, error)
	DeleteMany(ctx context.Context, filter Filter) (int64, error)

	CountDocuments(ctx context.Context, filter Filter) (int64, error)
}
