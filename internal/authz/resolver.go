package authz

import (
	"context"
	"errors"
	"slices"

	"github.com/samber/lo"

	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/log"
	"github.com/girmesh03/taskhub/internal/storage"
)

// ErrDenied is the expected outcome of an authorization check that fails
// without a concrete target (create, list). It is never retried.
var ErrDenied = errors.New("authz: operation denied")

// Decision is the outcome of one authorization check.
//
// A deny against an existing target must be surfaced to callers exactly
// like a missing record; Decision deliberately carries no detail that could
// leak existence across tenant or department boundaries.
type Decision struct {
	Allow bool
	// Scope is the effective scope: the declared cell scope, downgraded
	// from ALL to TENANT outside the platform tenant special case.
	Scope  Scope
	Reason string
}

func allow(scope Scope, reason string) Decision {
	return Decision{Allow: true, Scope: scope, Reason: reason}
}

func deny(reason string) Decision {
	return Decision{Allow: false, Scope: ScopeNone, Reason: reason}
}

// Resolver evaluates the authorization matrix against actors and targets.
// It is read-only and side-effect-free; any number of request-handling
// goroutines may share one instance without synchronization.
type Resolver struct {
	matrix *Matrix
	graph  *entities.Graph
}

func NewResolver(matrix *Matrix, graph *entities.Graph) *Resolver {
	return &Resolver{matrix: matrix, graph: graph}
}

// Authorize decides whether the actor may perform op on the resource type,
// optionally against a concrete target record. System actors bypass the
// matrix; they act only from audited background paths.
func (r *Resolver) Authorize(ctx context.Context, actor Actor, resource entities.ResourceType, op Operation, target entities.Record) Decision {
	d := r.authorize(actor, resource, op, target)

	log.Debug(ctx, "authz: decision",
		log.String("actor", actor.String()),
		log.String("resource", resource.String()),
		log.String("operation", string(op)),
		log.String("decision", lo.Ternary(d.Allow, "allow", "deny")),
		log.String("scope", d.Scope.String()),
		log.String("reason", d.Reason),
	)

	return d
}

func (r *Resolver) authorize(actor Actor, resource entities.ResourceType, op Operation, target entities.Record) Decision {
	if actor.IsSystem() {
		return allow(ScopeAll, "system actor")
	}

	scope, ok := r.matrix.Lookup(resource, actor.Role, op)
	if !ok || scope == ScopeNone {
		return deny("no scope declared")
	}

	if target == nil {
		return allow(scope, "no target")
	}

	meta := &target.GetBase().Meta

	if scope == ScopeAll {
		if actor.IsPlatformActor && resource == entities.TypeTenant {
			return allow(ScopeAll, "platform tenant administration")
		}

		// ALL outside the platform special case degrades to TENANT.
		scope = ScopeTenant
	}

	switch scope {
	case ScopeTenant:
		if meta.TenantID == actor.TenantID {
			return allow(ScopeTenant, "tenant match")
		}
	case ScopeDepartment:
		if meta.TenantID == actor.TenantID && meta.DepartmentID == actor.DepartmentID {
			return allow(ScopeDepartment, "department match")
		}
	case ScopeOwn:
		if meta.TenantID == actor.TenantID && r.graph.Owns(actor.ID, target) {
			return allow(ScopeOwn, "ownership match")
		}
	}

	return deny("target out of scope")
}

// BuildListFilter authorizes a list-style operation and converts the
// effective scope into a storage predicate. The caller must use the
// returned predicate, never a narrower client-supplied filter.
//
// OWN matches the ownership column, widened to the assignee column for
// types that persist one, so list visibility agrees with the per-record
// ownership predicate.
func (r *Resolver) BuildListFilter(ctx context.Context, actor Actor, resource entities.ResourceType, op Operation) (storage.Predicate, error) {
	d := r.Authorize(ctx, actor, resource, op, nil)
	if !d.Allow {
		return nil, ErrDenied
	}

	switch d.Scope {
	case ScopeAll:
		if actor.IsSystem() || (actor.IsPlatformActor && resource == entities.TypeTenant) {
			return storage.All(), nil
		}

		return storage.TenantEQ(actor.TenantID), nil
	case ScopeTenant:
		return storage.TenantEQ(actor.TenantID), nil
	case ScopeDepartment:
		return storage.And(storage.TenantEQ(actor.TenantID), storage.DepartmentEQ(actor.DepartmentID)), nil
	case ScopeOwn:
		return storage.And(storage.TenantEQ(actor.TenantID), r.ownFilter(actor, resource)), nil
	default:
		return nil, ErrDenied
	}
}

func (r *Resolver) ownFilter(actor Actor, resource entities.ResourceType) storage.Predicate {
	if d := r.graph.Descriptor(resource); d != nil && slices.Contains(d.RefColumns, entities.ColAssignees) {
		return storage.OwnedOrAssigned(actor.ID, entities.ColAssignees)
	}

	return storage.OwnerEQ(actor.ID)
}
