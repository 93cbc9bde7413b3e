// internal/app/store/notifications/notificationstore.go
package notificationstore

import (
	"context"
	"time"

	"github.com/dalemusser/circlehub/internal/docstore"
	"github.com/dalemusser/circlehub/internal/domain/models"
)

// feedLimit caps how many notifications ListByUser returns.
const feedLimit = 20

// Store persists notifications in the "notifications" collection.
type Store struct {
	c docstore.Collection
}

func New(db docstore.DB) *Store {
	return &Store{c: db.Collection("notifications")}
}

// Create appends a notification for a user.
func (s *Store) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	n.Read = false
	n.CreatedAt = time.Now().UTC()
	id, err := s.c.InsertOne(ctx, docstore.Document{
		"userId":     n.UserID,
		"groupId":    n.GroupID,
		"groupTitle": n.GroupTitle,
		"kind":       n.Kind,
		"message":    n.Message,
		"read":       n.Read,
		"createdAt":  n.CreatedAt,
	})
	if err != nil {
		return models.Notification{}, err
	}
	n.ID = id
	return n, nil
}

// ListByUser returns the user's newest notifications, most recent
// first, capped at the feed limit.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	docs, err := s.c.Find(ctx, docstore.Eq{Field: "userId", Value: userID}, &docstore.FindOptions{
		Sort:  []docstore.SortKey{{Field: "createdAt", Desc: true}},
		Limit: feedLimit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Notification, 0, len(docs))
	for _, d := range docs {
		out = append(out, notificationFromDoc(d))
	}
	return out, nil
}

// MarkRead flags one notification as read. The userID condition scopes
// the update so a user cannot mark another user's notification.
// Returns the number modified (0 when the id is absent or not theirs).
func (s *Store) MarkRead(ctx context.Context, id, userID string) (int64, error) {
	return s.c.UpdateOne(ctx, docstore.And{
		docstore.Eq{Field: "_id", Value: id},
		docstore.Eq{Field: "userId", Value: userID},
	}, docstore.Update{Set: docstore.Document{"read": true}})
}

// CountUnread counts the user's unread notifications.
func (s *Store) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.c.CountDocuments(ctx, docstore.And{
		docstore.Eq{Field: "userId", Value: userID},
		docstore.Eq{Field: "read", Value: false},
	})
}

func notificationFromDoc(d docstore.Document) models.Notification {
	n := models.Notification{
		ID:         str(d["_id"]),
		UserID:     str(d["userId"]),
		GroupID:    str(d["groupId"]),
		GroupTitle: str(d["groupTitle"]),
		Kind:       str(d["kind"]),
		Message:    str(d["message"]),
	}
	if b, ok := d["read"].(bool); ok {
		n.Read = b
	}
	if ts, ok := d["createdAt"].(time.Time); ok {
		n.CreatedAt = ts
	}
	return n
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
