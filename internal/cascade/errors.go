package cascade

import (
	"errors"
	"fmt"
	"strings"

	"github.com/girmesh03/taskhub/internal/entities"
)

var (
	// ErrPlatformTenantProtected rejects any attempt to delete the platform
	// tenant; the system bootstraps exactly one and it never goes away.
	ErrPlatformTenantProtected = errors.New("cascade: platform tenant cannot be deleted")

	// ErrLastDepartment rejects deleting the only active department of a
	// tenant. Every tenant keeps at least one.
	ErrLastDepartment = errors.New("cascade: cannot delete the last department of a tenant")

	// ErrLastAdministrator rejects deleting the only active user holding the
	// tenant's top role, which would lock the tenant out.
	ErrLastAdministrator = errors.New("cascade: cannot delete the last administrator of a tenant")

	// ErrActingDepartmentHead rejects deleting a user who still heads an
	// active department; headship must be handed over first.
	ErrActingDepartmentHead = errors.New("cascade: user still heads an active department")

	// ErrPlatformTenantExists rejects restoring a platform tenant while
	// another one is active.
	ErrPlatformTenantExists = errors.New("cascade: an active platform tenant already exists")
)

// BlockedError aborts a cascade whose subtree reached a block_if_exists
// edge with active children. It names the blockers so the caller can act
// on them.
type BlockedError struct {
	Parent   entities.ResourceType
	ParentID string
	Child    entities.ResourceType
	ChildIDs []string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("cascade: %s %s is blocked by active %s [%s]",
		e.Parent, e.ParentID, e.Child, strings.Join(e.ChildIDs, ", "))
}

// MissingReassignmentError aborts a cascade that reached a
// require_reassignment edge with active children but no replacement target
// in the call options.
type MissingReassignmentError struct {
	Parent   entities.ResourceType
	ParentID string
	Child    entities.ResourceType
}

func (e *MissingReassignmentError) Error() string {
	return fmt.Sprintf("cascade: deleting %s %s requires a reassignment target for active %s",
		e.Parent, e.ParentID, e.Child)
}

// ReassignmentTargetError aborts a cascade whose reassignment target is
// unusable: missing, deleted, the record being deleted itself, or owned by
// another tenant. Rejecting it here keeps children from ending up pointing
// at a dangling parent.
type ReassignmentTargetError struct {
	Parent   entities.ResourceType
	TargetID string
	Reason   string
}

func (e *ReassignmentTargetError) Error() string {
	return fmt.Sprintf("cascade: reassignment target %s %s rejected: %s",
		e.Parent, e.TargetID, e.Reason)
}
