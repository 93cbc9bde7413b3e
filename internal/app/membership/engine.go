// internal/app/membership/engine.go

// Package membership is the lifecycle engine for the relationship
// between users and groups: join requests, approval, promotion,
// leaving, and removal, together with the bookkeeping that keeps each
// group's cached member count consistent.
//
// Counting policy: the engine never increments or decrements the
// cached count. After every mutation it recomputes
//
//	memberCount = 1 + |approved memberships|
//
// from the memberships collection and overwrites the cache. Recompute
// is idempotent, so repeating an operation (or re-running one after a
// partial failure) converges on the correct value instead of drifting.
package membership

import (
	"context"
	"errors"
	"fmt"

	activitystore "github.com/dalemusser/circlehub/internal/app/store/activity"
	groupstore "github.com/dalemusser/circlehub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/circlehub/internal/app/store/memberships"
	notificationstore "github.com/dalemusser/circlehub/internal/app/store/notifications"
	"github.com/dalemusser/circlehub/internal/docstore"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"go.uber.org/zap"
)

// Identity is a pre-validated external identity. The engine trusts it
// opaquely; token verification happens elsewhere.
type Identity struct {
	UserID   string
	UserName string
}

// Engine orchestrates membership mutations across the groups and
// memberships collections, emitting notifications and activity entries
// best-effort.
type Engine struct {
	groups        *groupstore.Store
	memberships   *membershipstore.Store
	notifications *notificationstore.Store
	activities    *activitystore.Store
	log           *zap.Logger
}

// New builds an Engine over db. A nil logger disables logging.
func New(db docstore.DB, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		groups:        groupstore.New(db),
		memberships:   membershipstore.New(db),
		notifications: notificationstore.New(db),
		activities:    activitystore.New(db),
		log:           logger,
	}
}

// NewGroup carries the user-supplied fields for CreateGroup.
type NewGroup struct {
	Title       string
	Description string
	Category    string
	Visibility  models.Visibility
}

// CreateGroup creates a group owned by ident. The owner is not given a
// membership record; the member count starts at 1 and listings
// materialize the owner entry separately.
func (e *Engine) CreateGroup(ctx context.Context, ng NewGroup, ident Identity) (models.Group, error) {
	if !ng.Visibility.Valid() {
		return models.Group{}, ErrInvalidVisibility
	}
	g, err := e.groups.Create(ctx, models.Group{
		Title:       ng.Title,
		Description: ng.Description,
		Category:    ng.Category,
		Visibility:  ng.Visibility,
		OwnerID:     ident.UserID,
		OwnerName:   ident.UserName,
	})
	if err != nil {
		return models.Group{}, err
	}
	e.record(ctx, models.Activity{
		GroupID:   g.ID,
		Kind:      models.ActivityGroupCreated,
		ActorID:   ident.UserID,
		ActorName: ident.UserName,
	})
	return g, nil
}

// RequestJoin asks to join a group. Public groups approve immediately;
// private groups leave the membership pending for the owner. The
// returned status tells the caller which happened.
func (e *Engine) RequestJoin(ctx context.Context, groupID string, ident Identity) (models.MembershipStatus, error) {
	g, err := e.getGroup(ctx, groupID)
	if err != nil {
		return "", err
	}
	if g.OwnerID == ident.UserID {
		// The owner is implicitly senior to any membership.
		return "", ErrAlreadyMember
	}

	status := models.StatusPending
	if g.Visibility == models.VisibilityPublic {
		status = models.StatusApproved
	}

	_, err = e.memberships.Insert(ctx, models.Membership{
		UserID:   ident.UserID,
		UserName: ident.UserName,
		GroupID:  groupID,
		Status:   status,
		Role:     models.RoleMember,
	})
	if err != nil {
		if errors.Is(err, membershipstore.ErrDuplicateMembership) {
			return "", ErrAlreadyMember
		}
		return "", err
	}
	if err := e.recount(ctx, groupID); err != nil {
		return "", err
	}

	if status == models.StatusApproved {
		e.notify(ctx, models.Notification{
			UserID:     g.OwnerID,
			GroupID:    g.ID,
			GroupTitle: g.Title,
			Kind:       models.NotifyMemberJoined,
			Message:    fmt.Sprintf("%s joined %s", ident.UserName, g.Title),
		})
		e.record(ctx, models.Activity{
			GroupID:   g.ID,
			Kind:      models.ActivityMemberJoined,
			ActorID:   ident.UserID,
			ActorName: ident.UserName,
		})
	} else {
		e.notify(ctx, models.Notification{
			UserID:     g.OwnerID,
			GroupID:    g.ID,
			GroupTitle: g.Title,
			Kind:       models.NotifyJoinRequest,
			Message:    fmt.Sprintf("%s requested to join %s", ident.UserName, g.Title),
		})
	}
	return status, nil
}

// Leave removes the caller's own membership, approved or pending. The
// owner cannot leave.
func (e *Engine) Leave(ctx context.Context, groupID string, ident Identity) error {
	g, err := e.getGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if g.OwnerID == ident.UserID {
		return ErrOwnerCannotLeave
	}

	m, err := e.memberships.FindByUserGroup(ctx, ident.UserID, groupID)
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocuments) {
			return ErrNotAMember
		}
		return err
	}
	if _, err := e.memberships.Delete(ctx, m.ID); err != nil {
		return err
	}
	if err := e.recount(ctx, groupID); err != nil {
		return err
	}

	if m.Status == models.StatusApproved {
		e.record(ctx, models.Activity{
			GroupID:   g.ID,
			Kind:      models.ActivityMemberLeft,
			ActorID:   ident.UserID,
			ActorName: ident.UserName,
		})
	}
	return nil
}

// Approve marks a pending membership approved. Owner-only. Re-approving
// an approved membership is a no-op on the count because the count is
// recomputed, not incremented.
func (e *Engine) Approve(ctx context.Context, groupID, membershipID, requesterID string) error {
	g, err := e.ownedGroup(ctx, groupID, requesterID)
	if err != nil {
		return err
	}
	m, err := e.getMembership(ctx, groupID, membershipID)
	if err != nil {
		return err
	}

	if err := e.memberships.SetStatus(ctx, m.ID, models.StatusApproved); err != nil {
		return err
	}
	if err := e.recount(ctx, groupID); err != nil {
		return err
	}

	if m.Status != models.StatusApproved {
		e.notify(ctx, models.Notification{
			UserID:     m.UserID,
			GroupID:    g.ID,
			GroupTitle: g.Title,
			Kind:       models.NotifyMemberApproved,
			Message:    fmt.Sprintf("Your request to join %s was approved", g.Title),
		})
		e.record(ctx, models.Activity{
			GroupID:   g.ID,
			Kind:      models.ActivityMemberApproved,
			ActorID:   m.UserID,
			ActorName: m.UserName,
		})
	}
	return nil
}

// Promote raises an approved member to moderator. Owner-only. No-op if
// the membership is already a moderator; never touches the count.
func (e *Engine) Promote(ctx context.Context, groupID, membershipID, requesterID string) error {
	g, err := e.ownedGroup(ctx, groupID, requesterID)
	if err != nil {
		return err
	}
	m, err := e.getMembership(ctx, groupID, membershipID)
	if err != nil {
		return err
	}
	if m.Status != models.StatusApproved {
		return ErrNotApproved
	}
	if m.Role == models.RoleModerator {
		return nil
	}

	if err := e.memberships.SetRole(ctx, m.ID, models.RoleModerator); err != nil {
		return err
	}
	e.notify(ctx, models.Notification{
		UserID:     m.UserID,
		GroupID:    g.ID,
		GroupTitle: g.Title,
		Kind:       models.NotifyMemberPromoted,
		Message:    fmt.Sprintf("You are now a moderator of %s", g.Title),
	})
	return nil
}

// Remove deletes a membership regardless of status. Owner-only.
func (e *Engine) Remove(ctx context.Context, groupID, membershipID, requesterID string) error {
	g, err := e.ownedGroup(ctx, groupID, requesterID)
	if err != nil {
		return err
	}
	m, err := e.getMembership(ctx, groupID, membershipID)
	if err != nil {
		return err
	}

	if _, err := e.memberships.Delete(ctx, m.ID); err != nil {
		return err
	}
	if err := e.recount(ctx, groupID); err != nil {
		return err
	}

	e.notify(ctx, models.Notification{
		UserID:     m.UserID,
		GroupID:    g.ID,
		GroupTitle: g.Title,
		Kind:       models.NotifyMemberRemoved,
		Message:    fmt.Sprintf("You were removed from %s", g.Title),
	})
	e.record(ctx, models.Activity{
		GroupID:   g.ID,
		Kind:      models.ActivityMemberRemoved,
		ActorID:   m.UserID,
		ActorName: m.UserName,
	})
	return nil
}

// RebuildMemberCount recomputes the cached count for one group from
// the memberships collection. Exposed for repair jobs; every engine
// mutation already does this.
func (e *Engine) RebuildMemberCount(ctx context.Context, groupID string) error {
	if _, err := e.getGroup(ctx, groupID); err != nil {
		return err
	}
	return e.recount(ctx, groupID)
}

func (e *Engine) getGroup(ctx context.Context, groupID string) (models.Group, error) {
	g, err := e.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocuments) {
			return models.Group{}, ErrGroupNotFound
		}
		return models.Group{}, err
	}
	return g, nil
}

// ownedGroup loads the group and enforces the owner-only gate shared
// by approve, promote, and remove.
func (e *Engine) ownedGroup(ctx context.Context, groupID, requesterID string) (models.Group, error) {
	g, err := e.getGroup(ctx, groupID)
	if err != nil {
		return models.Group{}, err
	}
	if g.OwnerID != requesterID {
		return models.Group{}, ErrNotAuthorized
	}
	return g, nil
}

// getMembership loads a membership and checks it belongs to groupID, so
// a membership id from one group cannot act on another.
func (e *Engine) getMembership(ctx context.Context, groupID, membershipID string) (models.Membership, error) {
	m, err := e.memberships.GetByID(ctx, membershipID)
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocuments) {
			return models.Membership{}, ErrMembershipNotFound
		}
		return models.Membership{}, err
	}
	if m.GroupID != groupID {
		return models.Membership{}, ErrMembershipNotFound
	}
	return m, nil
}

// recount rebuilds the cached member count from the source of truth.
func (e *Engine) recount(ctx context.Context, groupID string) error {
	n, err := e.memberships.CountApproved(ctx, groupID)
	if err != nil {
		return err
	}
	return e.groups.SetMemberCount(ctx, groupID, 1+int(n))
}

// notify and record are best-effort: a failed write is logged and the
// lifecycle operation still succeeds.
func (e *Engine) notify(ctx context.Context, n models.Notification) {
	if _, err := e.notifications.Create(ctx, n); err != nil {
		e.log.Warn("notification write failed",
			zap.String("kind", n.Kind),
			zap.String("user_id", n.UserID),
			zap.Error(err))
	}
}

func (e *Engine) record(ctx context.Context, a models.Activity) {
	if err := e.activities.Record(ctx, a); err != nil {
		e.log.Warn("activity write failed",
			zap.String("kind", a.Kind),
			zap.String("group_id", a.GroupID),
			zap.Error(err))
	}
}
