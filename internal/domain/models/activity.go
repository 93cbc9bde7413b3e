// internal/domain/models/activity.go
package models

import "time"

// Activity kinds recorded against a group.
const (
	ActivityGroupCreated   = "group_created"
	ActivityMemberJoined   = "member_joined"
	ActivityMemberLeft     = "member_left"
	ActivityMemberApproved = "member_approved"
	ActivityMemberRemoved  = "member_removed"
)

// Activity is one entry in a group's activity feed, written best-effort
// alongside lifecycle mutations.
type Activity struct {
	ID        string
	GroupID   string
	Kind      string
	ActorID   string
	ActorName string
	CreatedAt time.Time
}
