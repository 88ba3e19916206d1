package biz

import (
	"errors"

	"github.com/girmesh03/taskhub/internal/authz"
	"github.com/girmesh03/taskhub/internal/cascade"
	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/lifecycle"
	"github.com/girmesh03/taskhub/internal/storage"
)

var (
	ErrInternal = errors.New("internal error, please try again later")

	// ErrAlreadyBootstrapped rejects a second platform bootstrap.
	ErrAlreadyBootstrapped = errors.New("platform is already bootstrapped")

	// ErrCommentTooDeep rejects a reply below the maximum thread depth.
	ErrCommentTooDeep = errors.New("comment thread is too deep")

	// ErrInvalidInput rejects requests failing field validation.
	ErrInvalidInput = errors.New("invalid input")
)

// ErrorKind classifies a service error for the transport layer.
type ErrorKind string

const (
	// KindConfiguration means the process booted with an invalid matrix or
	// entity graph declaration. Never caused by request input.
	KindConfiguration ErrorKind = "configuration"
	// KindDenied means the actor may not perform the operation at all.
	KindDenied ErrorKind = "denied"
	// KindNotFound means the record does not exist or sits outside the
	// actor's scope; the two cases are deliberately indistinguishable.
	KindNotFound ErrorKind = "not_found"
	// KindConflict means the current state refuses the operation, like a
	// blocked cascade or restoring an active record.
	KindConflict ErrorKind = "conflict"
	// KindInvariant means a structural guard refused the operation.
	KindInvariant ErrorKind = "invariant"
	// KindTransient means a storage-level conflict worth retrying.
	KindTransient ErrorKind = "transient"
	// KindInvalid means the request input failed validation.
	KindInvalid ErrorKind = "invalid"
	// KindInternal is everything else.
	KindInternal ErrorKind = "internal"
)

// Classify maps a service error to its kind.
func Classify(err error) ErrorKind {
	var (
		blocked   *cascade.BlockedError
		missing   *cascade.MissingReassignmentError
		badTarget *cascade.ReassignmentTargetError
	)

	switch {
	case err == nil:
		return ""
	case errors.Is(err, entities.ErrInvalidGraph), errors.Is(err, authz.ErrInvalidMatrix):
		return KindConfiguration
	case errors.Is(err, authz.ErrDenied):
		return KindDenied
	case errors.Is(err, storage.ErrNotFound):
		return KindNotFound
	case errors.As(err, &blocked),
		errors.As(err, &missing),
		errors.Is(err, lifecycle.ErrNotDeleted),
		errors.Is(err, cascade.ErrPlatformTenantExists),
		errors.Is(err, ErrAlreadyBootstrapped),
		errors.Is(err, ErrCommentTooDeep):
		return KindConflict
	case errors.Is(err, cascade.ErrPlatformTenantProtected),
		errors.Is(err, cascade.ErrLastDepartment),
		errors.Is(err, cascade.ErrLastAdministrator),
		errors.Is(err, cascade.ErrActingDepartmentHead),
		errors.Is(err, cascade.ErrSelfDepthExceeded):
		return KindInvariant
	case storage.IsTransient(err):
		return KindTransient
	case errors.As(err, &badTarget), errors.Is(err, ErrInvalidInput):
		return KindInvalid
	default:
		return KindInternal
	}
}
