// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"testing"
	"time"

	groupstore "github.com/dalemusser/circlehub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/circlehub/internal/app/store/memberships"
	"github.com/dalemusser/circlehub/internal/docstore"
	"github.com/dalemusser/circlehub/internal/docstore/memdb"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/google/uuid"
)

// SetupTestDB returns a fresh embedded document store. Each test gets
// its own instance, so tests never see each other's data.
func SetupTestDB(t *testing.T) *memdb.DB {
	t.Helper()
	return memdb.Open()
}

// TestContext returns a context with a generous timeout for test operations.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// UserID mints a fresh opaque external user id.
func UserID() string {
	return uuid.NewString()
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db docstore.DB
	t  *testing.T
}

// NewFixtures creates a Fixtures instance over the given store.
func NewFixtures(t *testing.T, db docstore.DB) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying store for direct access in tests.
func (f *Fixtures) DB() docstore.DB {
	return f.db
}

// CreateGroup creates a test group with the given title and owner.
func (f *Fixtures) CreateGroup(ctx context.Context, title, ownerID string, vis models.Visibility) models.Group {
	f.t.Helper()

	g, err := groupstore.New(f.db).Create(ctx, models.Group{
		Title:       title,
		Description: "Test group description",
		Category:    "General",
		Visibility:  vis,
		OwnerID:     ownerID,
		OwnerName:   "Test Owner",
	})
	if err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return g
}

// CreatePublicGroup creates a public test group.
func (f *Fixtures) CreatePublicGroup(ctx context.Context, title, ownerID string) models.Group {
	f.t.Helper()
	return f.CreateGroup(ctx, title, ownerID, models.VisibilityPublic)
}

// CreatePrivateGroup creates a private test group.
func (f *Fixtures) CreatePrivateGroup(ctx context.Context, title, ownerID string) models.Group {
	f.t.Helper()
	return f.CreateGroup(ctx, title, ownerID, models.VisibilityPrivate)
}

// CreateMembership creates a membership record linking a user to a group.
func (f *Fixtures) CreateMembership(ctx context.Context, userID, userName, groupID string, status models.MembershipStatus) models.Membership {
	f.t.Helper()

	m, err := membershipstore.New(f.db).Insert(ctx, models.Membership{
		UserID:   userID,
		UserName: userName,
		GroupID:  groupID,
		Status:   status,
	})
	if err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}
