// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"regexp"
	"time"

	"github.com/dalemusser/circlehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/circlehub/internal/docstore"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// Store persists groups in the "groups" collection.
type Store struct {
	c docstore.Collection
}

func New(db docstore.DB) *Store {
	return &Store{c: db.Collection("groups")}
}

// SortOrder selects the listing order for List.
type SortOrder string

const (
	SortNewest  SortOrder = "newest"  // createdAt descending (default)
	SortOldest  SortOrder = "oldest"  // createdAt ascending
	SortPopular SortOrder = "popular" // memberCount descending
)

// ListOptions filters and orders a group listing. Category narrows to
// one category ("" or "all" means every category); Search matches title
// or description case-insensitively.
type ListOptions struct {
	Category string
	Search   string
	Sort     SortOrder
}

// Create stores a new group. User-supplied text is sanitized, the
// folded title copy is derived, and the member count starts at 1 for
// the owner.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	g.Title = htmlsanitize.StripTags(g.Title)
	g.TitleCI = text.Fold(g.Title)
	g.Description = htmlsanitize.Sanitize(g.Description)
	g.MemberCount = 1
	g.CreatedAt = time.Now().UTC()

	id, err := s.c.InsertOne(ctx, docFromGroup(g))
	if err != nil {
		return models.Group{}, err
	}
	g.ID = id
	return g, nil
}

// GetByID returns the group or docstore.ErrNoDocuments.
func (s *Store) GetByID(ctx context.Context, id string) (models.Group, error) {
	doc, err := s.c.FindOne(ctx, docstore.Eq{Field: "_id", Value: id})
	if err != nil {
		return models.Group{}, err
	}
	return groupFromDoc(doc), nil
}

// List returns groups matching opts. Results are ordered per opts.Sort
// with the folded title as tie-breaker so listings are deterministic.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]models.Group, error) {
	var conds docstore.And
	if opts.Category != "" && opts.Category != "all" {
		conds = append(conds, docstore.Eq{Field: "category", Value: opts.Category})
	}
	if opts.Search != "" {
		pat := regexp.QuoteMeta(opts.Search)
		conds = append(conds, docstore.Or{
			docstore.Regex{Field: "title", Pattern: pat, CaseInsensitive: true},
			docstore.Regex{Field: "description", Pattern: pat, CaseInsensitive: true},
		})
	}

	sort := []docstore.SortKey{{Field: "createdAt", Desc: true}, {Field: "titleCI"}}
	switch opts.Sort {
	case SortOldest:
		sort = []docstore.SortKey{{Field: "createdAt"}, {Field: "titleCI"}}
	case SortPopular:
		sort = []docstore.SortKey{{Field: "memberCount", Desc: true}, {Field: "titleCI"}}
	}

	docs, err := s.c.Find(ctx, conds, &docstore.FindOptions{Sort: sort})
	if err != nil {
		return nil, err
	}
	return groupsFromDocs(docs), nil
}

// ListByOwner returns the groups owned by ownerID, newest first.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]models.Group, error) {
	docs, err := s.c.Find(ctx, docstore.Eq{Field: "ownerId", Value: ownerID}, &docstore.FindOptions{
		Sort: []docstore.SortKey{{Field: "createdAt", Desc: true}},
	})
	if err != nil {
		return nil, err
	}
	return groupsFromDocs(docs), nil
}

// ListByIDs returns the groups whose ids appear in ids, newest first.
func (s *Store) ListByIDs(ctx context.Context, ids []string) ([]models.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	vals := make([]any, 0, len(ids))
	for _, id := range ids {
		vals = append(vals, id)
	}
	docs, err := s.c.Find(ctx, docstore.In{Field: "_id", Values: vals}, &docstore.FindOptions{
		Sort: []docstore.SortKey{{Field: "createdAt", Desc: true}},
	})
	if err != nil {
		return nil, err
	}
	return groupsFromDocs(docs), nil
}

// UpdateInfo edits the user-facing fields of a group. Empty title or
// category leaves the current value; description may be cleared.
func (s *Store) UpdateInfo(ctx context.Context, id, title, desc, category string) error {
	set := docstore.Document{
		"description": htmlsanitize.Sanitize(desc),
	}
	if title != "" {
		clean := htmlsanitize.StripTags(title)
		set["title"] = clean
		set["titleCI"] = text.Fold(clean)
	}
	if category != "" {
		set["category"] = category
	}
	_, err := s.c.UpdateOne(ctx, docstore.Eq{Field: "_id", Value: id}, docstore.Update{Set: set})
	return err
}

// SetMemberCount overwrites the cached member count. Callers recompute
// the value from the memberships collection; this store never
// increments or decrements it.
func (s *Store) SetMemberCount(ctx context.Context, id string, n int) error {
	_, err := s.c.UpdateOne(ctx, docstore.Eq{Field: "_id", Value: id}, docstore.Update{
		Set: docstore.Document{"memberCount": n},
	})
	return err
}

// Delete removes a group by id. Returns the number deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	return s.c.DeleteOne(ctx, docstore.Eq{Field: "_id", Value: id})
}

func docFromGroup(g models.Group) docstore.Document {
	d := docstore.Document{
		"title":       g.Title,
		"titleCI":     g.TitleCI,
		"description": g.Description,
		"category":    g.Category,
		"visibility":  string(g.Visibility),
		"ownerId":     g.OwnerID,
		"ownerName":   g.OwnerName,
		"memberCount": g.MemberCount,
		"createdAt":   g.CreatedAt,
	}
	if g.ID != "" {
		d["_id"] = g.ID
	}
	return d
}

func groupsFromDocs(docs []docstore.Document) []models.Group {
	out := make([]models.Group, 0, len(docs))
	for _, d := range docs {
		out = append(out, groupFromDoc(d))
	}
	return out
}

func groupFromDoc(d docstore.Document) models.Group {
	g := models.Group{
		ID:          str(d["_id"]),
		Title:       str(d["title"]),
		TitleCI:     str(d["titleCI"]),
		Description: str(d["description"]),
		Category:    str(d["category"]),
		Visibility:  models.Visibility(str(d["visibility"])),
		OwnerID:     str(d["ownerId"]),
		OwnerName:   str(d["ownerName"]),
	}
	if n, ok := d["memberCount"].(int); ok {
		g.MemberCount = n
	}
	if ts, ok := d["createdAt"].(time.Time); ok {
		g.CreatedAt = ts
	}
	return g
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
