package authz

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/girmesh03/taskhub/internal/entities"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()

	graph := entities.MustGraph()

	return NewResolver(MustMatrix(graph), graph)
}

func memberActor() Actor {
	return Actor{
		ID:           "u-member",
		Role:         entities.RoleMember,
		TenantID:     "t-acme",
		DepartmentID: "d-ops",
	}
}

func recordWith(rec entities.Record, tenantID, departmentID, ownerID string) entities.Record {
	meta := &rec.GetBase().Meta
	meta.TenantID = tenantID
	meta.DepartmentID = departmentID
	meta.OwnerID = ownerID

	return rec
}

func TestAuthorizeSystemActorBypassesMatrix(t *testing.T) {
	r := newTestResolver(t)
	ctx := t.Context()

	d := r.Authorize(ctx, Actor{System: true}, entities.TypeTenant, OpDelete, nil)
	require.True(t, d.Allow)
	require.Equal(t, ScopeAll, d.Scope)
}

func TestAuthorizeDeniesUndeclaredOrNoneScope(t *testing.T) {
	r := newTestResolver(t)
	ctx := t.Context()

	d := r.Authorize(ctx, memberActor(), entities.TypeTenant, OpDelete, nil)
	require.False(t, d.Allow)

	stranger := memberActor()
	stranger.Role = "auditor"
	d = r.Authorize(ctx, stranger, entities.TypeVendor, OpRead, nil)
	require.False(t, d.Allow, "unknown role hits no declared cell")
}

func TestAuthorizeWithoutTargetGrantsDeclaredScope(t *testing.T) {
	r := newTestResolver(t)
	ctx := t.Context()

	d := r.Authorize(ctx, memberActor(), entities.TypeProjectTask, OpCreate, nil)
	require.True(t, d.Allow)
	require.Equal(t, ScopeOwn, d.Scope)
}

func TestAuthorizeTenantScope(t *testing.T) {
	r := newTestResolver(t)
	ctx := t.Context()

	admin := memberActor()
	admin.Role = entities.RoleAdministrator

	inTenant := recordWith(&entities.Vendor{}, "t-acme", "", "u-other")
	d := r.Authorize(ctx, admin, entities.TypeVendor, OpUpdate, inTenant)
	require.True(t, d.Allow)
	require.Equal(t, ScopeTenant, d.Scope)

	foreign := recordWith(&entities.Vendor{}, "t-globex", "", "u-other")
	d = r.Authorize(ctx, admin, entities.TypeVendor, OpUpdate, foreign)
	require.False(t, d.Allow)
}

func TestAuthorizeDepartmentScope(t *testing.T) {
	r := newTestResolver(t)
	ctx := t.Context()

	head := memberActor()
	head.Role = entities.RoleDepartmentHead

	sameDept := recordWith(&entities.ProjectTask{}, "t-acme", "d-ops", "u-other")
	d := r.Authorize(ctx, head, entities.TypeProjectTask, OpDelete, sameDept)
	require.True(t, d.Allow)
	require.Equal(t, ScopeDepartment, d.Scope)

	otherDept := recordWith(&entities.ProjectTask{}, "t-acme", "d-hr", "u-other")
	d = r.Authorize(ctx, head, entities.TypeProjectTask, OpDelete, otherDept)
	require.False(t, d.Allow)
}

func TestAuthorizeOwnScopeUsesOwnershipPredicate(t *testing.T) {
	r := newTestResolver(t)
	ctx := t.Context()
	actor := memberActor()

	owned := recordWith(&entities.ProjectTask{}, "t-acme", "d-ops", actor.ID)
	d := r.Authorize(ctx, actor, entities.TypeProjectTask, OpUpdate, owned)
	require.True(t, d.Allow)
	require.Equal(t, ScopeOwn, d.Scope)

	assigned := recordWith(&entities.ProjectTask{}, "t-acme", "d-ops", "u-other").(*entities.ProjectTask)
	assigned.AssigneeIDs = []string{actor.ID}
	d = r.Authorize(ctx, actor, entities.TypeProjectTask, OpUpdate, assigned)
	require.True(t, d.Allow, "assignees satisfy the task ownership predicate")

	unrelated := recordWith(&entities.ProjectTask{}, "t-acme", "d-ops", "u-other")
	d = r.Authorize(ctx, actor, entities.TypeProjectTask, OpUpdate, unrelated)
	require.False(t, d.Allow)

	// OWN never crosses the tenant boundary even for the record owner.
	foreign := recordWith(&entities.ProjectTask{}, "t-globex", "d-ops", actor.ID)
	d = r.Authorize(ctx, actor, entities.TypeProjectTask, OpUpdate, foreign)
	require.False(t, d.Allow)
}

func TestAuthorizeAllDegradesOutsidePlatformCase(t *testing.T) {
	r := newTestResolver(t)
	ctx := t.Context()

	platform := Actor{
		ID:              "u-root",
		Role:            entities.RolePlatformAdministrator,
		TenantID:        "t-platform",
		IsPlatformActor: true,
	}

	foreignTenant := recordWith(&entities.Tenant{}, "t-acme", "", "")
	d := r.Authorize(ctx, platform, entities.TypeTenant, OpDelete, foreignTenant)
	require.True(t, d.Allow)
	require.Equal(t, ScopeAll, d.Scope)

	// The same role claimed outside the platform tenant only reaches its
	// own tenant.
	impostor := platform
	impostor.IsPlatformActor = false
	impostor.TenantID = "t-acme"
	d = r.Authorize(ctx, impostor, entities.TypeTenant, OpDelete, foreignTenant)
	require.True(t, d.Allow)
	require.Equal(t, ScopeTenant, d.Scope)

	d = r.Authorize(ctx, impostor, entities.TypeTenant, OpDelete, recordWith(&entities.Tenant{}, "t-globex", "", ""))
	require.False(t, d.Allow)
}

func TestBuildListFilter(t *testing.T) {
	r := newTestResolver(t)
	ctx := t.Context()

	p, err := r.BuildListFilter(ctx, memberActor(), entities.TypeProjectTask, OpRead)
	require.NoError(t, err)
	require.NotNil(t, p)

	_, err = r.BuildListFilter(ctx, memberActor(), entities.TypeTenant, OpDelete)
	require.ErrorIs(t, err, ErrDenied)

	p, err = r.BuildListFilter(ctx, Actor{System: true}, entities.TypeTenant, OpRead)
	require.NoError(t, err)
	require.NotNil(t, p)
}
