// internal/app/membership/views.go

package membership

import (
	"context"
	"time"

	"github.com/dalemusser/circlehub/internal/domain/models"
)

// MemberEntry is one row of a group's member listing. The owner appears
// first as a synthetic entry with no MembershipID; everyone else comes
// from a membership record.
type MemberEntry struct {
	MembershipID string
	UserID       string
	UserName     string
	Role         string
	Status       models.MembershipStatus
	JoinedAt     time.Time
}

// ListMembers returns the group's members with the owner materialized
// first. The owner's JoinedAt is the group's creation time.
func (e *Engine) ListMembers(ctx context.Context, groupID string) ([]MemberEntry, error) {
	g, err := e.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ms, err := e.memberships.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	entries := make([]MemberEntry, 0, len(ms)+1)
	entries = append(entries, MemberEntry{
		UserID:   g.OwnerID,
		UserName: g.OwnerName,
		Role:     "owner",
		Status:   models.StatusApproved,
		JoinedAt: g.CreatedAt,
	})
	for _, m := range ms {
		entries = append(entries, MemberEntry{
			MembershipID: m.ID,
			UserID:       m.UserID,
			UserName:     m.UserName,
			Role:         string(m.Role),
			Status:       m.Status,
			JoinedAt:     m.JoinedAt,
		})
	}
	return entries, nil
}

// DashboardData is a user's home view: groups they own and groups they
// have joined. Owned groups never appear in Joined even if a stale
// membership row exists.
type DashboardData struct {
	Owned  []models.Group
	Joined []models.Group
}

// Dashboard assembles the owned and joined group lists for a user.
func (e *Engine) Dashboard(ctx context.Context, userID string) (DashboardData, error) {
	owned, err := e.groups.ListByOwner(ctx, userID)
	if err != nil {
		return DashboardData{}, err
	}
	ownedIDs := make(map[string]bool, len(owned))
	for _, g := range owned {
		ownedIDs[g.ID] = true
	}

	ms, err := e.memberships.ListApprovedByUser(ctx, userID)
	if err != nil {
		return DashboardData{}, err
	}
	var joinedIDs []string
	for _, m := range ms {
		if !ownedIDs[m.GroupID] {
			joinedIDs = append(joinedIDs, m.GroupID)
		}
	}
	joined, err := e.groups.ListByIDs(ctx, joinedIDs)
	if err != nil {
		return DashboardData{}, err
	}
	return DashboardData{Owned: owned, Joined: joined}, nil
}

// GroupAnalytics summarizes a group for its owner.
type GroupAnalytics struct {
	TotalMembers    int
	NewThisWeek     int
	PendingRequests int
}

// Analytics reports member totals for a group. Owner-only. TotalMembers
// counts the owner plus approved members, matching the cached count.
func (e *Engine) Analytics(ctx context.Context, groupID, requesterID string) (GroupAnalytics, error) {
	if _, err := e.ownedGroup(ctx, groupID, requesterID); err != nil {
		return GroupAnalytics{}, err
	}

	approved, err := e.memberships.CountApproved(ctx, groupID)
	if err != nil {
		return GroupAnalytics{}, err
	}
	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	recent, err := e.memberships.CountApprovedSince(ctx, groupID, weekAgo)
	if err != nil {
		return GroupAnalytics{}, err
	}
	pending, err := e.memberships.CountPending(ctx, groupID)
	if err != nil {
		return GroupAnalytics{}, err
	}
	return GroupAnalytics{
		TotalMembers:    1 + int(approved),
		NewThisWeek:     int(recent),
		PendingRequests: int(pending),
	}, nil
}

// DeleteGroup removes a group and all of its membership records.
// Owner-only. Notifications and activity history are left in place.
func (e *Engine) DeleteGroup(ctx context.Context, groupID, requesterID string) error {
	if _, err := e.ownedGroup(ctx, groupID, requesterID); err != nil {
		return err
	}
	if _, err := e.memberships.DeleteByGroup(ctx, groupID); err != nil {
		return err
	}
	_, err := e.groups.Delete(ctx, groupID)
	return err
}
