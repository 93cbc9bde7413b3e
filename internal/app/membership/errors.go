// internal/app/membership/errors.go
package membership

import "errors"

// Business-rule failures surfaced by the lifecycle engine. Callers map
// these to user-facing responses; none are retried here.
var (
	// ErrGroupNotFound: the group id does not exist.
	ErrGroupNotFound = errors.New("group not found")

	// ErrMembershipNotFound: the membership id does not exist or does
	// not belong to the given group.
	ErrMembershipNotFound = errors.New("membership not found")

	// ErrNotAuthorized: an owner-only action attempted by a non-owner.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrAlreadyMember: the user already has a membership record for
	// the group (approved or pending), or is the group's owner.
	ErrAlreadyMember = errors.New("already a member or request pending")

	// ErrNotAMember: leave by a user with no membership record.
	ErrNotAMember = errors.New("not a member")

	// ErrOwnerCannotLeave: the owner may delete the group but never
	// leave it.
	ErrOwnerCannotLeave = errors.New("owner cannot leave group")

	// ErrNotApproved: promotion of a membership that is still pending.
	ErrNotApproved = errors.New("membership is not approved")

	// ErrInvalidVisibility: a visibility outside {public, private}.
	ErrInvalidVisibility = errors.New("visibility must be public or private")
)
