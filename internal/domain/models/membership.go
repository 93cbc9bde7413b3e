// internal/domain/models/membership.go
package models

import "time"

// MembershipStatus is the lifecycle stage of a membership.
type MembershipStatus string

const (
	// StatusPending awaits owner approval (private groups only).
	StatusPending MembershipStatus = "pending"
	// StatusApproved counts toward the group's member count.
	StatusApproved MembershipStatus = "approved"
)

// Role is the privilege level of a membership, independent of status.
type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
)

// Membership joins a user to a group. Exactly one record exists per
// (UserID, GroupID) pair; it is created on join, mutated on approve and
// promote, and deleted on leave or removal. The group owner is never
// represented by a Membership.
type Membership struct {
	ID       string
	UserID   string
	UserName string
	GroupID  string
	Status   MembershipStatus
	Role     Role
	JoinedAt time.Time
}
