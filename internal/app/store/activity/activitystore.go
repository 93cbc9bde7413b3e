// internal/app/store/activity/activitystore.go

// Package activitystore records the per-group activity feed. Entries
// are written best-effort by the membership lifecycle; readers get the
// newest entries first.
package activitystore

import (
	"context"
	"time"

	"github.com/dalemusser/circlehub/internal/docstore"
	"github.com/dalemusser/circlehub/internal/domain/models"
)

// feedLimit caps how many entries ListByGroup returns.
const feedLimit = 20

// Store persists activity entries in the "group_activities" collection.
type Store struct {
	c docstore.Collection
}

func New(db docstore.DB) *Store {
	return &Store{c: db.Collection("group_activities")}
}

// Record appends one activity entry.
func (s *Store) Record(ctx context.Context, a models.Activity) error {
	a.CreatedAt = time.Now().UTC()
	_, err := s.c.InsertOne(ctx, docstore.Document{
		"groupId":   a.GroupID,
		"kind":      a.Kind,
		"actorId":   a.ActorID,
		"actorName": a.ActorName,
		"createdAt": a.CreatedAt,
	})
	return err
}

// ListByGroup returns the group's newest entries, most recent first,
// capped at the feed limit.
func (s *Store) ListByGroup(ctx context.Context, groupID string) ([]models.Activity, error) {
	docs, err := s.c.Find(ctx, docstore.Eq{Field: "groupId", Value: groupID}, &docstore.FindOptions{
		Sort:  []docstore.SortKey{{Field: "createdAt", Desc: true}},
		Limit: feedLimit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Activity, 0, len(docs))
	for _, d := range docs {
		a := models.Activity{
			ID:        str(d["_id"]),
			GroupID:   str(d["groupId"]),
			Kind:      str(d["kind"]),
			ActorID:   str(d["actorId"]),
			ActorName: str(d["actorName"]),
		}
		if ts, ok := d["createdAt"].(time.Time); ok {
			a.CreatedAt = ts
		}
		out = append(out, a)
	}
	return out, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
