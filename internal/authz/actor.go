package authz

import (
	"context"
	"fmt"

	"github.com/girmesh03/taskhub/internal/entities"
)

// Actor is the authenticated identity a request acts as. It is supplied by
// the external authentication layer and carried on the context.
// Each request can only have one Actor, guaranteed by WithActor's set-once
// semantics.
type Actor struct {
	ID           string
	Role         entities.Role
	TenantID     string
	DepartmentID string
	// IsPlatformActor is derived from membership in the platform tenant.
	IsPlatformActor bool
	// System marks background workers acting without a user identity.
	System bool
}

// IsSystem checks if it is a system actor.
func (a Actor) IsSystem() bool {
	return a.System
}

// String returns string representation of the Actor (for audit logs).
func (a Actor) String() string {
	if a.System {
		return "system"
	}

	if a.ID == "" {
		return "unknown"
	}

	return fmt.Sprintf("user:%s", a.ID)
}

// actorKey is an unexported key type to prevent external forgery.
type actorKey struct{}

// WithActor sets the Actor, returns an error if a different one already
// exists. Ensures each context can only carry one actor, preventing
// identity mixing across layers.
func WithActor(ctx context.Context, a Actor) (context.Context, error) {
	if existing, ok := GetActor(ctx); ok {
		if existing != a {
			return ctx, fmt.Errorf("authz: actor conflict: existing=%s, new=%s", existing.String(), a.String())
		}

		return ctx, nil // Same actor, idempotent
	}

	return context.WithValue(ctx, actorKey{}, a), nil
}

// GetActor reads the Actor.
func GetActor(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

// MustGetActor reads the Actor, panics if absent (used in chains where the
// actor is confirmed).
func MustGetActor(ctx context.Context) Actor {
	a, ok := GetActor(ctx)
	if !ok {
		panic("authz: no actor in context")
	}

	return a
}

// NewSystemContext creates a context with a system actor (for background
// tasks such as the purge sweep and bootstrap).
func NewSystemContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, actorKey{}, Actor{System: true})
}

// RequireSystemActor checks that the current actor is the system actor.
// Used to protect sensitive background operations.
func RequireSystemActor(ctx context.Context) error {
	a, ok := GetActor(ctx)
	if !ok {
		return fmt.Errorf("authz: no actor in context")
	}

	if !a.IsSystem() {
		return fmt.Errorf("authz: operation requires system actor, got %s", a.String())
	}

	return nil
}
