// internal/domain/models/notification.go
package models

import "time"

// Notification kinds emitted by the membership lifecycle.
const (
	NotifyJoinRequest    = "join_request"    // sent to the owner of a private group
	NotifyMemberJoined   = "member_joined"   // sent to the owner of a public group
	NotifyMemberApproved = "member_approved" // sent to the approved user
	NotifyMemberPromoted = "member_promoted" // sent to the promoted user
	NotifyMemberRemoved  = "member_removed"  // sent to the removed user
)

// Notification is a per-user message derived from membership activity.
// Delivery is best-effort: a failed write never fails the operation
// that produced it.
type Notification struct {
	ID         string
	UserID     string
	GroupID    string
	GroupTitle string
	Kind       string
	Message    string
	Read       bool
	CreatedAt  time.Time
}
