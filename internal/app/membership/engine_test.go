// internal/app/membership/engine_test.go

package membership_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/circlehub/internal/app/membership"
	groupstore "github.com/dalemusser/circlehub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/circlehub/internal/app/store/memberships"
	notificationstore "github.com/dalemusser/circlehub/internal/app/store/notifications"
	"github.com/dalemusser/circlehub/internal/docstore/memdb"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"go.uber.org/zap"
)

func newEngine(t *testing.T) (*membership.Engine, *memdb.DB) {
	t.Helper()
	db := memdb.Open()
	return membership.New(db, zap.NewNop()), db
}

func mustCreate(t *testing.T, e *membership.Engine, vis models.Visibility, owner membership.Identity) models.Group {
	t.Helper()
	g, err := e.CreateGroup(context.Background(), membership.NewGroup{
		Title:      "Watercolor Painters",
		Category:   "Art",
		Visibility: vis,
	}, owner)
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	return g
}

// checkCount asserts the cached count matches 1 + approved memberships.
func checkCount(t *testing.T, e *membership.Engine, db *memdb.DB, groupID string, want int) {
	t.Helper()
	ctx := context.Background()
	g, err := groupstore.New(db).GetByID(ctx, groupID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if g.MemberCount != want {
		t.Fatalf("memberCount = %d, want %d", g.MemberCount, want)
	}
	approved, err := membershipstore.New(db).CountApproved(ctx, groupID)
	if err != nil {
		t.Fatalf("CountApproved: %v", err)
	}
	if g.MemberCount != 1+int(approved) {
		t.Fatalf("cached count %d diverges from 1+approved (%d)", g.MemberCount, 1+approved)
	}
}

func TestPrivateJoinApproveLeave(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()
	owner := membership.Identity{UserID: "owner-1", UserName: "Olive"}
	user := membership.Identity{UserID: "user-1", UserName: "Uma"}

	g := mustCreate(t, e, models.VisibilityPrivate, owner)
	checkCount(t, e, db, g.ID, 1)

	status, err := e.RequestJoin(ctx, g.ID, user)
	if err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}
	if status != models.StatusPending {
		t.Fatalf("status = %q, want pending", status)
	}
	checkCount(t, e, db, g.ID, 1)

	m, err := membershipstore.New(db).FindByUserGroup(ctx, user.UserID, g.ID)
	if err != nil {
		t.Fatalf("FindByUserGroup: %v", err)
	}
	if err := e.Approve(ctx, g.ID, m.ID, owner.UserID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	checkCount(t, e, db, g.ID, 2)

	if err := e.Leave(ctx, g.ID, user); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	checkCount(t, e, db, g.ID, 1)
}

func TestPublicJoinAutoApproves(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()
	owner := membership.Identity{UserID: "owner-1", UserName: "Olive"}
	user := membership.Identity{UserID: "user-1", UserName: "Uma"}

	g := mustCreate(t, e, models.VisibilityPublic, owner)

	status, err := e.RequestJoin(ctx, g.ID, user)
	if err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}
	if status != models.StatusApproved {
		t.Fatalf("status = %q, want approved", status)
	}
	checkCount(t, e, db, g.ID, 2)
}

func TestDuplicateJoinRejected(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()
	owner := membership.Identity{UserID: "owner-1", UserName: "Olive"}
	user := membership.Identity{UserID: "user-1", UserName: "Uma"}

	for _, vis := range []models.Visibility{models.VisibilityPublic, models.VisibilityPrivate} {
		g := mustCreate(t, e, vis, owner)
		if _, err := e.RequestJoin(ctx, g.ID, user); err != nil {
			t.Fatalf("%s first join: %v", vis, err)
		}
		if _, err := e.RequestJoin(ctx, g.ID, user); !errors.Is(err, membership.ErrAlreadyMember) {
			t.Fatalf("%s second join err = %v, want ErrAlreadyMember", vis, err)
		}
		ms, err := membershipstore.New(db).ListByGroup(ctx, g.ID)
		if err != nil {
			t.Fatalf("ListByGroup: %v", err)
		}
		if len(ms) != 1 {
			t.Fatalf("%s membership rows = %d, want 1", vis, len(ms))
		}
	}
}

func TestOwnerCannotJoinOrLeave(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	owner := membership.Identity{UserID: "owner-1", UserName: "Olive"}

	g := mustCreate(t, e, models.VisibilityPublic, owner)

	if _, err := e.RequestJoin(ctx, g.ID, owner); !errors.Is(err, membership.ErrAlreadyMember) {
		t.Fatalf("owner join err = %v, want ErrAlreadyMember", err)
	}
	if err := e.Leave(ctx, g.ID, owner); !errors.Is(err, membership.ErrOwnerCannotLeave) {
		t.Fatalf("owner leave err = %v, want ErrOwnerCannotLeave", err)
	}
}

func TestApproveIdempotent(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()
	owner := membership.Identity{UserID: "owner-1", UserName: "Olive"}
	user := membership.Identity{UserID: "user-1", UserName: "Uma"}

	g := mustCreate(t, e, models.VisibilityPrivate, owner)
	if _, err := e.RequestJoin(ctx, g.ID, user); err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}
	m, err := membershipstore.New(db).FindByUserGroup(ctx, user.UserID, g.ID)
	if err != nil {
		t.Fatalf("FindByUserGroup: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := e.Approve(ctx, g.ID, m.ID, owner.UserID); err != nil {
			t.Fatalf("Approve #%d: %v", i+1, err)
		}
		checkCount(t, e, db, g.ID, 2)
	}

	// Only the first approval notifies the user.
	ns, err := notificationstore.New(db).ListByUser(ctx, user.UserID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(ns) != 1 {
		t.Fatalf("notifications = %d, want 1", len(ns))
	}
	if ns[0].Kind != models.NotifyMemberApproved {
		t.Fatalf("kind = %q, want %q", ns[0].Kind, models.NotifyMemberApproved)
	}
}

func TestOwnerOnlyOperations(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()
	owner := membership.Identity{UserID: "owner-1", UserName: "Olive"}
	user := membership.Identity{UserID: "user-1", UserName: "Uma"}

	g := mustCreate(t, e, models.VisibilityPrivate, owner)
	if _, err := e.RequestJoin(ctx, g.ID, user); err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}
	m, err := membershipstore.New(db).FindByUserGroup(ctx, user.UserID, g.ID)
	if err != nil {
		t.Fatalf("FindByUserGroup: %v", err)
	}

	if err := e.Approve(ctx, g.ID, m.ID, user.UserID); !errors.Is(err, membership.ErrNotAuthorized) {
		t.Fatalf("Approve by non-owner err = %v, want ErrNotAuthorized", err)
	}
	if err := e.Promote(ctx, g.ID, m.ID, user.UserID); !errors.Is(err, membership.ErrNotAuthorized) {
		t.Fatalf("Promote by non-owner err = %v, want ErrNotAuthorized", err)
	}
	if err := e.Remove(ctx, g.ID, m.ID, user.UserID); !errors.Is(err, membership.ErrNotAuthorized) {
		t.Fatalf("Remove by non-owner err = %v, want ErrNotAuthorized", err)
	}
	if _, err := e.Analytics(ctx, g.ID, user.UserID); !errors.Is(err, membership.ErrNotAuthorized) {
		t.Fatalf("Analytics by non-owner err = %v, want ErrNotAuthorized", err)
	}
}

func TestMembershipScopedToGroup(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()
	owner := membership.Identity{UserID: "owner-1", UserName: "Olive"}
	user := membership.Identity{UserID: "user-1", UserName: "Uma"}

	g1 := mustCreate(t, e, models.VisibilityPrivate, owner)
	g2 := mustCreate(t, e, models.VisibilityPrivate, owner)
	if _, err := e.RequestJoin(ctx, g1.ID, user); err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}
	m, err := membershipstore.New(db).FindByUserGroup(ctx, user.UserID, g1.ID)
	if err != nil {
		t.Fatalf("FindByUserGroup: %v", err)
	}

	// A membership id from g1 must not act on g2.
	if err := e.Approve(ctx, g2.ID, m.ID, owner.UserID); !errors.Is(err, membership.ErrMembershipNotFound) {
		t.Fatalf("cross-group approve err = %v, want ErrMembershipNotFound", err)
	}
}

func TestPromoteRequiresApproved(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()
	owner := membership.Identity{UserID: "owner-1", UserName: "Olive"}
	user := membership.Identity{UserID: "user-1", UserName: "Uma"}

	g := mustCreate(t, e, models.VisibilityPrivate, owner)
	if _, err := e.RequestJoin(ctx, g.ID, user); err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}
	store := membershipstore.New(db)
	m, err := store.FindByUserGroup(ctx, user.UserID, g.ID)
	if err != nil {
		t.Fatalf("FindByUserGroup: %v", err)
	}

	if err := e.Promote(ctx, g.ID, m.ID, owner.UserID); !errors.Is(err, membership.ErrNotApproved) {
		t.Fatalf("promote pending err = %v, want ErrNotApproved", err)
	}

	if err := e.Approve(ctx, g.ID, m.ID, owner.UserID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	before, _ := groupstore.New(db).GetByID(ctx, g.ID)
	if err := e.Promote(ctx, g.ID, m.ID, owner.UserID); err != nil {
		t.Fatalf("Promote: %v", err)
	}
	// Promoting again is a no-op.
	if err := e.Promote(ctx, g.ID, m.ID, owner.UserID); err != nil {
		t.Fatalf("Promote again: %v", err)
	}
	m2, err := store.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if m2.Role != models.RoleModerator {
		t.Fatalf("role = %q, want moderator", m2.Role)
	}
	if m2.Status != models.StatusApproved {
		t.Fatalf("status = %q, want approved", m2.Status)
	}
	after, _ := groupstore.New(db).GetByID(ctx, g.ID)
	if before.MemberCount != after.MemberCount {
		t.Fatalf("promote changed memberCount %d -> %d", before.MemberCount, after.MemberCount)
	}
}

func TestRemoveAnyStatus(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()
	owner := membership.Identity{UserID: "owner-1", UserName: "Olive"}

	g := mustCreate(t, e, models.VisibilityPrivate, owner)
	store := membershipstore.New(db)

	pending := membership.Identity{UserID: "user-1", UserName: "Uma"}
	approved := membership.Identity{UserID: "user-2", UserName: "Vic"}
	for _, u := range []membership.Identity{pending, approved} {
		if _, err := e.RequestJoin(ctx, g.ID, u); err != nil {
			t.Fatalf("RequestJoin %s: %v", u.UserID, err)
		}
	}
	ma, err := store.FindByUserGroup(ctx, approved.UserID, g.ID)
	if err != nil {
		t.Fatalf("FindByUserGroup: %v", err)
	}
	if err := e.Approve(ctx, g.ID, ma.ID, owner.UserID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	checkCount(t, e, db, g.ID, 2)

	mp, err := store.FindByUserGroup(ctx, pending.UserID, g.ID)
	if err != nil {
		t.Fatalf("FindByUserGroup: %v", err)
	}
	if err := e.Remove(ctx, g.ID, mp.ID, owner.UserID); err != nil {
		t.Fatalf("Remove pending: %v", err)
	}
	checkCount(t, e, db, g.ID, 2)

	if err := e.Remove(ctx, g.ID, ma.ID, owner.UserID); err != nil {
		t.Fatalf("Remove approved: %v", err)
	}
	checkCount(t, e, db, g.ID, 1)

	if err := e.Remove(ctx, g.ID, ma.ID, owner.UserID); !errors.Is(err, membership.ErrMembershipNotFound) {
		t.Fatalf("Remove gone err = %v, want ErrMembershipNotFound", err)
	}
}

func TestLeaveWithoutMembership(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	owner := membership.Identity{UserID: "owner-1", UserName: "Olive"}
	user := membership.Identity{UserID: "user-1", UserName: "Uma"}

	g := mustCreate(t, e, models.VisibilityPublic, owner)
	if err := e.Leave(ctx, g.ID, user); !errors.Is(err, membership.ErrNotAMember) {
		t.Fatalf("leave err = %v, want ErrNotAMember", err)
	}
}

func TestGroupNotFound(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	user := membership.Identity{UserID: "user-1", UserName: "Uma"}

	if _, err := e.RequestJoin(ctx, "999", user); !errors.Is(err, membership.ErrGroupNotFound) {
		t.Fatalf("join err = %v, want ErrGroupNotFound", err)
	}
	if err := e.Leave(ctx, "999", user); !errors.Is(err, membership.ErrGroupNotFound) {
		t.Fatalf("leave err = %v, want ErrGroupNotFound", err)
	}
	if err := e.Approve(ctx, "999", "1", user.UserID); !errors.Is(err, membership.ErrGroupNotFound) {
		t.Fatalf("approve err = %v, want ErrGroupNotFound", err)
	}
}

func TestRecountHealsDrift(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()
	owner := membership.Identity{UserID: "owner-1", UserName: "Olive"}
	user := membership.Identity{UserID: "user-1", UserName: "Uma"}

	g := mustCreate(t, e, models.VisibilityPublic, owner)
	if _, err := e.RequestJoin(ctx, g.ID, user); err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}

	// Corrupt the cached count out of band.
	if err := groupstore.New(db).SetMemberCount(ctx, g.ID, 41); err != nil {
		t.Fatalf("SetMemberCount: %v", err)
	}

	if err := e.RebuildMemberCount(ctx, g.ID); err != nil {
		t.Fatalf("RebuildMemberCount: %v", err)
	}
	checkCount(t, e, db, g.ID, 2)
}

func TestCreateGroupValidatesVisibility(t *testing.T) {
	e, _ := newEngine(t)
	owner := membership.Identity{UserID: "owner-1", UserName: "Olive"}

	_, err := e.CreateGroup(context.Background(), membership.NewGroup{
		Title:      "Bad",
		Visibility: models.Visibility("unlisted"),
	}, owner)
	if !errors.Is(err, membership.ErrInvalidVisibility) {
		t.Fatalf("err = %v, want ErrInvalidVisibility", err)
	}
}

func TestListMembersOwnerFirst(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	owner := membership.Identity{UserID: "owner-1", UserName: "Olive"}
	user := membership.Identity{UserID: "user-1", UserName: "Uma"}

	g := mustCreate(t, e, models.VisibilityPublic, owner)
	if _, err := e.RequestJoin(ctx, g.ID, user); err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}

	entries, err := e.ListMembers(ctx, g.ID)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].UserID != owner.UserID || entries[0].Role != "owner" {
		t.Fatalf("first entry = %+v, want synthetic owner", entries[0])
	}
	if entries[0].MembershipID != "" {
		t.Fatalf("owner entry has membership id %q", entries[0].MembershipID)
	}
	if entries[1].UserID != user.UserID || entries[1].Status != models.StatusApproved {
		t.Fatalf("second entry = %+v", entries[1])
	}
}

func TestDashboardExcludesOwnedFromJoined(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	alice := membership.Identity{UserID: "user-a", UserName: "Alice"}
	bob := membership.Identity{UserID: "user-b", UserName: "Bob"}

	mine := mustCreate(t, e, models.VisibilityPublic, alice)
	theirs := mustCreate(t, e, models.VisibilityPublic, bob)

	if _, err := e.RequestJoin(ctx, theirs.ID, alice); err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}

	d, err := e.Dashboard(ctx, alice.UserID)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if len(d.Owned) != 1 || d.Owned[0].ID != mine.ID {
		t.Fatalf("owned = %+v", d.Owned)
	}
	if len(d.Joined) != 1 || d.Joined[0].ID != theirs.ID {
		t.Fatalf("joined = %+v", d.Joined)
	}
}

func TestAnalytics(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()
	owner := membership.Identity{UserID: "owner-1", UserName: "Olive"}

	g := mustCreate(t, e, models.VisibilityPrivate, owner)
	store := membershipstore.New(db)

	approvedUser := membership.Identity{UserID: "user-1", UserName: "Uma"}
	pendingUser := membership.Identity{UserID: "user-2", UserName: "Vic"}
	for _, u := range []membership.Identity{approvedUser, pendingUser} {
		if _, err := e.RequestJoin(ctx, g.ID, u); err != nil {
			t.Fatalf("RequestJoin %s: %v", u.UserID, err)
		}
	}
	m, err := store.FindByUserGroup(ctx, approvedUser.UserID, g.ID)
	if err != nil {
		t.Fatalf("FindByUserGroup: %v", err)
	}
	if err := e.Approve(ctx, g.ID, m.ID, owner.UserID); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	a, err := e.Analytics(ctx, g.ID, owner.UserID)
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if a.TotalMembers != 2 {
		t.Errorf("TotalMembers = %d, want 2", a.TotalMembers)
	}
	if a.NewThisWeek != 1 {
		t.Errorf("NewThisWeek = %d, want 1", a.NewThisWeek)
	}
	if a.PendingRequests != 1 {
		t.Errorf("PendingRequests = %d, want 1", a.PendingRequests)
	}
}

func TestDeleteGroupRemovesMemberships(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()
	owner := membership.Identity{UserID: "owner-1", UserName: "Olive"}
	user := membership.Identity{UserID: "user-1", UserName: "Uma"}

	g := mustCreate(t, e, models.VisibilityPublic, owner)
	if _, err := e.RequestJoin(ctx, g.ID, user); err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}

	if err := e.DeleteGroup(ctx, g.ID, user.UserID); !errors.Is(err, membership.ErrNotAuthorized) {
		t.Fatalf("delete by member err = %v, want ErrNotAuthorized", err)
	}
	if err := e.DeleteGroup(ctx, g.ID, owner.UserID); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}

	if _, err := e.ListMembers(ctx, g.ID); !errors.Is(err, membership.ErrGroupNotFound) {
		t.Fatalf("list after delete err = %v, want ErrGroupNotFound", err)
	}
	ms, err := membershipstore.New(db).ListByGroup(ctx, g.ID)
	if err != nil {
		t.Fatalf("ListByGroup: %v", err)
	}
	if len(ms) != 0 {
		t.Fatalf("memberships after delete = %d, want 0", len(ms))
	}
}

func TestMixedSequenceKeepsInvariant(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()
	owner := membership.Identity{UserID: "owner-1", UserName: "Olive"}

	g := mustCreate(t, e, models.VisibilityPrivate, owner)
	store := membershipstore.New(db)

	users := []membership.Identity{
		{UserID: "user-1", UserName: "Uma"},
		{UserID: "user-2", UserName: "Vic"},
		{UserID: "user-3", UserName: "Wen"},
	}
	for _, u := range users {
		if _, err := e.RequestJoin(ctx, g.ID, u); err != nil {
			t.Fatalf("RequestJoin %s: %v", u.UserID, err)
		}
		checkCount(t, e, db, g.ID, 1)
	}
	for i, u := range users[:2] {
		m, err := store.FindByUserGroup(ctx, u.UserID, g.ID)
		if err != nil {
			t.Fatalf("FindByUserGroup: %v", err)
		}
		if err := e.Approve(ctx, g.ID, m.ID, owner.UserID); err != nil {
			t.Fatalf("Approve: %v", err)
		}
		checkCount(t, e, db, g.ID, 2+i)
	}
	if err := e.Leave(ctx, g.ID, users[0]); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	checkCount(t, e, db, g.ID, 2)
	m, err := store.FindByUserGroup(ctx, users[2].UserID, g.ID)
	if err != nil {
		t.Fatalf("FindByUserGroup: %v", err)
	}
	if err := e.Remove(ctx, g.ID, m.ID, owner.UserID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	checkCount(t, e, db, g.ID, 2)
}
