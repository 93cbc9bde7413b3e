// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/circlehub/internal/docstore"
	"github.com/dalemusser/circlehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
)

// Store persists memberships in the "memberships" collection.
// Exactly one record exists per (userId, groupId); Insert enforces
// this before writing.
type Store struct {
	c docstore.Collection
}

func New(db docstore.DB) *Store {
	return &Store{c: db.Collection("memberships")}
}

// ErrDuplicateMembership means the user already has a membership record
// for the group, whatever its status.
var ErrDuplicateMembership = errors.New("user already has a membership for this group")

// Insert creates the membership after checking the (userId, groupId)
// uniqueness invariant. The stored JoinedAt is set here. On the MongoDB
// backend the unique index is the backstop for two inserts racing past
// the pre-check; its duplicate-key error maps to the same sentinel.
func (s *Store) Insert(ctx context.Context, m models.Membership) (models.Membership, error) {
	_, err := s.FindByUserGroup(ctx, m.UserID, m.GroupID)
	switch {
	case err == nil:
		return models.Membership{}, ErrDuplicateMembership
	case !errors.Is(err, docstore.ErrNoDocuments):
		return models.Membership{}, err
	}

	if m.Role == "" {
		m.Role = models.RoleMember
	}
	m.JoinedAt = time.Now().UTC()
	id, err := s.c.InsertOne(ctx, docFromMembership(m))
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Membership{}, ErrDuplicateMembership
		}
		return models.Membership{}, err
	}
	m.ID = id
	return m, nil
}

// GetByID returns the membership or docstore.ErrNoDocuments.
func (s *Store) GetByID(ctx context.Context, id string) (models.Membership, error) {
	doc, err := s.c.FindOne(ctx, docstore.Eq{Field: "_id", Value: id})
	if err != nil {
		return models.Membership{}, err
	}
	return membershipFromDoc(doc), nil
}

// FindByUserGroup returns the membership for (userID, groupID) or
// docstore.ErrNoDocuments.
func (s *Store) FindByUserGroup(ctx context.Context, userID, groupID string) (models.Membership, error) {
	doc, err := s.c.FindOne(ctx, docstore.And{
		docstore.Eq{Field: "userId", Value: userID},
		docstore.Eq{Field: "groupId", Value: groupID},
	})
	if err != nil {
		return models.Membership{}, err
	}
	return membershipFromDoc(doc), nil
}

// ListByGroup returns every membership of the group in join order.
func (s *Store) ListByGroup(ctx context.Context, groupID string) ([]models.Membership, error) {
	docs, err := s.c.Find(ctx, docstore.Eq{Field: "groupId", Value: groupID}, nil)
	if err != nil {
		return nil, err
	}
	out := make([]models.Membership, 0, len(docs))
	for _, d := range docs {
		out = append(out, membershipFromDoc(d))
	}
	return out, nil
}

// ListApprovedByUser returns the user's approved memberships.
func (s *Store) ListApprovedByUser(ctx context.Context, userID string) ([]models.Membership, error) {
	docs, err := s.c.Find(ctx, docstore.And{
		docstore.Eq{Field: "userId", Value: userID},
		docstore.Eq{Field: "status", Value: string(models.StatusApproved)},
	}, nil)
	if err != nil {
		return nil, err
	}
	out := make([]models.Membership, 0, len(docs))
	for _, d := range docs {
		out = append(out, membershipFromDoc(d))
	}
	return out, nil
}

// SetStatus updates the lifecycle status of one membership.
func (s *Store) SetStatus(ctx context.Context, id string, status models.MembershipStatus) error {
	_, err := s.c.UpdateOne(ctx, docstore.Eq{Field: "_id", Value: id}, docstore.Update{
		Set: docstore.Document{"status": string(status)},
	})
	return err
}

// SetRole updates the privilege role of one membership.
func (s *Store) SetRole(ctx context.Context, id string, role models.Role) error {
	_, err := s.c.UpdateOne(ctx, docstore.Eq{Field: "_id", Value: id}, docstore.Update{
		Set: docstore.Document{"role": string(role)},
	})
	return err
}

// Delete removes one membership by id. Returns the number deleted.
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	return s.c.DeleteOne(ctx, docstore.Eq{Field: "_id", Value: id})
}

// DeleteByGroup removes every membership of a group; used when the
// group itself is deleted. Returns the number deleted.
func (s *Store) DeleteByGroup(ctx context.Context, groupID string) (int64, error) {
	return s.c.DeleteMany(ctx, docstore.Eq{Field: "groupId", Value: groupID})
}

// CountApproved counts the approved memberships of a group. The cached
// memberCount on the group is always 1 (the owner) plus this value.
func (s *Store) CountApproved(ctx context.Context, groupID string) (int64, error) {
	return s.c.CountDocuments(ctx, docstore.And{
		docstore.Eq{Field: "groupId", Value: groupID},
		docstore.Eq{Field: "status", Value: string(models.StatusApproved)},
	})
}

// CountApprovedSince counts approved memberships joined at or after t.
func (s *Store) CountApprovedSince(ctx context.Context, groupID string, t time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, docstore.And{
		docstore.Eq{Field: "groupId", Value: groupID},
		docstore.Eq{Field: "status", Value: string(models.StatusApproved)},
		docstore.Gte{Field: "joinedAt", Value: t},
	})
}

// CountPending counts outstanding join requests for a group.
func (s *Store) CountPending(ctx context.Context, groupID string) (int64, error) {
	return s.c.CountDocuments(ctx, docstore.And{
		docstore.Eq{Field: "groupId", Value: groupID},
		docstore.Eq{Field: "status", Value: string(models.StatusPending)},
	})
}

func docFromMembership(m models.Membership) docstore.Document {
	d := docstore.Document{
		"userId":   m.UserID,
		"userName": m.UserName,
		"groupId":  m.GroupID,
		"status":   string(m.Status),
		"role":     string(m.Role),
		"joinedAt": m.JoinedAt,
	}
	if m.ID != "" {
		d["_id"] = m.ID
	}
	return d
}

func membershipFromDoc(d docstore.Document) models.Membership {
	m := models.Membership{
		ID:       str(d["_id"]),
		UserID:   str(d["userId"]),
		UserName: str(d["userName"]),
		GroupID:  str(d["groupId"]),
		Status:   models.MembershipStatus(str(d["status"])),
		Role:     models.Role(str(d["role"])),
	}
	if ts, ok := d["joinedAt"].(time.Time); ok {
		m.JoinedAt = ts
	}
	return m
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
