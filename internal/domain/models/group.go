// internal/domain/models/group.go
package models

import "time"

// Visibility controls how a group admits new members.
type Visibility string

const (
	// VisibilityPublic groups approve join requests immediately.
	VisibilityPublic Visibility = "public"
	// VisibilityPrivate groups queue join requests for owner approval.
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is one of the two defined visibilities.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Group is an interest community owned by a single user.
//
// MemberCount is a cached projection: it always equals 1 (the owner)
// plus the number of approved memberships for the group, and is rebuilt
// from the memberships collection after every mutation. The owner has
// no membership record of their own; listings materialize an owner
// entry separately.
type Group struct {
	ID          string
	Title       string
	TitleCI     string // folded copy of Title for case-insensitive search
	Description string
	Category    string
	Visibility  Visibility
	OwnerID     string
	OwnerName   string
	MemberCount int
	CreatedAt   time.Time
}
