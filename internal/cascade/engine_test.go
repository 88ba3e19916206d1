package cascade_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/girmesh03/taskhub/internal/cascade"
	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/storage"
	"github.com/girmesh03/taskhub/internal/storage/storagetest"
)

const actorID = "actor-1"

func insert(t *testing.T, store *storage.Store, rec entities.Record) {
	t.Helper()
	require.NoError(t, store.Reader().Insert(context.Background(), rec))
}

func newTenant(name string, platform bool) *entities.Tenant {
	tn := &entities.Tenant{Name: name, Slug: name, IsPlatform: platform}
	return tn
}

func newDepartment(tenantID, name, headID string) *entities.Department {
	d := &entities.Department{Name: name, HeadActorID: headID}
	d.Base.Meta.TenantID = tenantID
	return d
}

func newUser(tenantID, departmentID string, role entities.Role) *entities.User {
	u := &entities.User{Email: "u@example.com", DisplayName: "U", Role: role}
	u.Base.Meta.TenantID = tenantID
	u.Base.Meta.DepartmentID = departmentID
	return u
}

func newProjectTask(tenantID, departmentID, ownerID, vendorID string) *entities.ProjectTask {
	pt := &entities.ProjectTask{VendorID: vendorID}
	pt.Title = "install"
	pt.Status = entities.TaskStatusOpen
	pt.Base.Meta.TenantID = tenantID
	pt.Base.Meta.DepartmentID = departmentID
	pt.Base.Meta.OwnerID = ownerID
	return pt
}

func newRoutineTask(tenantID, departmentID, materialID string) *entities.RoutineTask {
	rt := &entities.RoutineTask{MaterialID: materialID}
	rt.Title = "inspect"
	rt.Status = entities.TaskStatusOpen
	rt.Base.Meta.TenantID = tenantID
	rt.Base.Meta.DepartmentID = departmentID
	return rt
}

func newComment(tenantID, departmentID, taskID, parentID string) *entities.Comment {
	c := &entities.Comment{TaskID: taskID, ParentID: parentID, Body: "note"}
	c.Base.Meta.TenantID = tenantID
	c.Base.Meta.DepartmentID = departmentID
	return c
}

func newVendor(tenantID, name string) *entities.Vendor {
	v := &entities.Vendor{Name: name}
	v.Base.Meta.TenantID = tenantID
	return v
}

func newMaterial(tenantID, name string) *entities.Material {
	m := &entities.Material{Name: name, Unit: "pc"}
	m.Base.Meta.TenantID = tenantID
	return m
}

func runDelete(t *testing.T, store *storage.Store, eng *cascade.Engine, root entities.Record, opts cascade.Options) (*cascade.Result, error) {
	t.Helper()

	ctx := context.Background()
	sess, err := store.Tx(ctx)
	require.NoError(t, err)

	res, err := eng.Delete(ctx, sess, root, actorID, opts)
	if err != nil {
		require.NoError(t, sess.Rollback())
		return nil, err
	}

	require.NoError(t, sess.Commit())
	return res, nil
}

func runRestore(t *testing.T, store *storage.Store, eng *cascade.Engine, root entities.Record, opts cascade.RestoreOptions) (*cascade.Result, error) {
	t.Helper()

	ctx := context.Background()
	sess, err := store.Tx(ctx)
	require.NoError(t, err)

	res, err := eng.Restore(ctx, sess, root, actorID, opts)
	if err != nil {
		require.NoError(t, sess.Rollback())
		return nil, err
	}

	require.NoError(t, sess.Commit())
	return res, nil
}

func TestDeleteTenantCascadesWholeTree(t *testing.T) {
	store := storagetest.NewStore(t)
	eng := cascade.New(store.Graph())
	ctx := context.Background()

	tn := newTenant("acme", false)
	insert(t, store, tn)

	d1 := newDepartment(tn.Base.Meta.ID, "maintenance", "")
	d2 := newDepartment(tn.Base.Meta.ID, "projects", "")
	insert(t, store, d1)
	insert(t, store, d2)

	u := newUser(tn.Base.Meta.ID, d1.Base.Meta.ID, entities.RoleAdministrator)
	insert(t, store, u)

	// A vendor with an active project task would block its own deletion,
	// but the tenant cascade clears departments first.
	v := newVendor(tn.Base.Meta.ID, "northwind")
	insert(t, store, v)

	pt := newProjectTask(tn.Base.Meta.ID, d2.Base.Meta.ID, u.Base.Meta.ID, v.Base.Meta.ID)
	insert(t, store, pt)

	c := newComment(tn.Base.Meta.ID, d2.Base.Meta.ID, pt.Base.Meta.ID, "")
	insert(t, store, c)

	res, err := runDelete(t, store, eng, tn, cascade.Options{})
	require.NoError(t, err)
	require.NotEmpty(t, res.BatchID)
	assert.Len(t, res.Entries, 7)

	for _, entry := range res.Entries {
		assert.Equal(t, cascade.ActionDeleted, entry.Action)

		got, err := store.Reader().Get(ctx, entry.Type, entry.ID, storage.ModeDeletedOnly)
		require.NoError(t, err)
		assert.Equal(t, res.BatchID, got.GetBase().Lifecycle.DeletionBatchID)
	}
}

func TestDeleteAlreadyDeletedIsNoop(t *testing.T) {
	store := storagetest.NewStore(t)
	eng := cascade.New(store.Graph())

	v := newVendor("t1", "acme")
	insert(t, store, v)

	first, err := runDelete(t, store, eng, v, cascade.Options{})
	require.NoError(t, err)

	second, err := runDelete(t, store, eng, v, cascade.Options{})
	require.NoError(t, err)
	assert.Equal(t, first.BatchID, second.BatchID)
	assert.Empty(t, second.Entries)
}

func TestDeleteVendorBlockedByProjectTasks(t *testing.T) {
	store := storagetest.NewStore(t)
	eng := cascade.New(store.Graph())

	v := newVendor("t1", "northwind")
	insert(t, store, v)

	pt := newProjectTask("t1", "d1", "u1", v.Base.Meta.ID)
	insert(t, store, pt)

	_, err := runDelete(t, store, eng, v, cascade.Options{})

	var blocked *cascade.BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, entities.TypeVendor, blocked.Parent)
	assert.Equal(t, entities.TypeProjectTask, blocked.Child)
	assert.Equal(t, []string{pt.Base.Meta.ID}, blocked.ChildIDs)

	// Nothing was committed, the vendor is still active.
	got, err := store.Reader().Get(context.Background(), entities.TypeVendor, v.Base.Meta.ID, storage.ModeActive)
	require.NoError(t, err)
	assert.True(t, got.GetBase().Lifecycle.Active())

	// Once the task is gone the vendor can be deleted. The root is
	// re-fetched because the aborted attempt ran against a copy.
	_, err = runDelete(t, store, eng, pt, cascade.Options{})
	require.NoError(t, err)

	fresh, err := store.Reader().Get(context.Background(), entities.TypeVendor, v.Base.Meta.ID, storage.ModeActive)
	require.NoError(t, err)

	_, err = runDelete(t, store, eng, fresh, cascade.Options{})
	require.NoError(t, err)
}

func TestDeleteMaterialReassignment(t *testing.T) {
	store := storagetest.NewStore(t)
	eng := cascade.New(store.Graph())
	ctx := context.Background()

	old := newMaterial("t1", "grease")
	repl := newMaterial("t1", "grease-v2")
	insert(t, store, old)
	insert(t, store, repl)

	active := newRoutineTask("t1", "d1", old.Base.Meta.ID)
	insert(t, store, active)

	// A task deleted earlier keeps the old reference for history.
	gone := newRoutineTask("t1", "d1", old.Base.Meta.ID)
	insert(t, store, gone)
	_, err := runDelete(t, store, eng, gone, cascade.Options{})
	require.NoError(t, err)

	// Without a target the cascade refuses.
	_, err = runDelete(t, store, eng, old, cascade.Options{})
	var missing *cascade.MissingReassignmentError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, entities.TypeRoutineTask, missing.Child)

	freshRec, err := store.Reader().Get(ctx, entities.TypeMaterial, old.Base.Meta.ID, storage.ModeActive)
	require.NoError(t, err)

	res, err := runDelete(t, store, eng, freshRec, cascade.Options{
		Reassignments: map[entities.ResourceType]string{
			entities.TypeRoutineTask: repl.Base.Meta.ID,
		},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Entries, cascade.Entry{
		Type: entities.TypeRoutineTask, ID: active.Base.Meta.ID, Action: cascade.ActionReassigned,
	})

	got, err := store.Reader().Get(ctx, entities.TypeRoutineTask, active.Base.Meta.ID, storage.ModeActive)
	require.NoError(t, err)
	assert.Equal(t, repl.Base.Meta.ID, got.(*entities.RoutineTask).MaterialID)

	kept, err := store.Reader().Get(ctx, entities.TypeRoutineTask, gone.Base.Meta.ID, storage.ModeDeletedOnly)
	require.NoError(t, err)
	assert.Equal(t, old.Base.Meta.ID, kept.(*entities.RoutineTask).MaterialID)
}

func TestDeleteMaterialRejectsBadReassignmentTarget(t *testing.T) {
	store := storagetest.NewStore(t)
	eng := cascade.New(store.Graph())
	ctx := context.Background()

	old := newMaterial("t1", "grease")
	foreign := newMaterial("t2", "grease")
	insert(t, store, old)
	insert(t, store, foreign)

	task := newRoutineTask("t1", "d1", old.Base.Meta.ID)
	insert(t, store, task)

	cases := []struct {
		name   string
		target string
	}{
		{"nonexistent id", "m-typo"},
		{"record being deleted", old.Base.Meta.ID},
		{"another tenant", foreign.Base.Meta.ID},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runDelete(t, store, eng, old, cascade.Options{
				Reassignments: map[entities.ResourceType]string{
					entities.TypeRoutineTask: tc.target,
				},
			})

			var badTarget *cascade.ReassignmentTargetError
			require.ErrorAs(t, err, &badTarget)
			assert.Equal(t, tc.target, badTarget.TargetID)
		})
	}

	// Nothing moved and nothing was deleted.
	got, err := store.Reader().Get(ctx, entities.TypeRoutineTask, task.Base.Meta.ID, storage.ModeActive)
	require.NoError(t, err)
	assert.Equal(t, old.Base.Meta.ID, got.(*entities.RoutineTask).MaterialID)

	_, err = store.Reader().Get(ctx, entities.TypeMaterial, old.Base.Meta.ID, storage.ModeActive)
	require.NoError(t, err)
}

func TestDeleteMaterialRejectsDeletedReassignmentTarget(t *testing.T) {
	store := storagetest.NewStore(t)
	eng := cascade.New(store.Graph())

	old := newMaterial("t1", "grease")
	repl := newMaterial("t1", "grease-v2")
	insert(t, store, old)
	insert(t, store, repl)

	task := newRoutineTask("t1", "d1", old.Base.Meta.ID)
	insert(t, store, task)

	_, err := runDelete(t, store, eng, repl, cascade.Options{})
	require.NoError(t, err)

	_, err = runDelete(t, store, eng, old, cascade.Options{
		Reassignments: map[entities.ResourceType]string{
			entities.TypeRoutineTask: repl.Base.Meta.ID,
		},
	})

	var badTarget *cascade.ReassignmentTargetError
	require.ErrorAs(t, err, &badTarget)
	assert.Equal(t, repl.Base.Meta.ID, badTarget.TargetID)
}

func TestRestoreIsBatchScoped(t *testing.T) {
	store := storagetest.NewStore(t)
	eng := cascade.New(store.Graph())
	ctx := context.Background()

	task := newProjectTask("t1", "d1", "u1", "")
	insert(t, store, task)

	top := newComment("t1", "d1", task.Base.Meta.ID, "")
	insert(t, store, top)

	reply := newComment("t1", "d1", task.Base.Meta.ID, top.Base.Meta.ID)
	insert(t, store, reply)

	// The reply is deleted on its own first, in a separate batch.
	_, err := runDelete(t, store, eng, reply, cascade.Options{})
	require.NoError(t, err)

	res, err := runDelete(t, store, eng, task, cascade.Options{})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 2)

	restored, err := runRestore(t, store, eng, task, cascade.RestoreOptions{CascadeChildren: true})
	require.NoError(t, err)
	assert.Len(t, restored.Entries, 2)

	// Task and top comment are back, the independently deleted reply stays
	// deleted.
	_, err = store.Reader().Get(ctx, entities.TypeComment, top.Base.Meta.ID, storage.ModeActive)
	require.NoError(t, err)

	_, err = store.Reader().Get(ctx, entities.TypeComment, reply.Base.Meta.ID, storage.ModeActive)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRestoreRootOnly(t *testing.T) {
	store := storagetest.NewStore(t)
	eng := cascade.New(store.Graph())
	ctx := context.Background()

	task := newProjectTask("t1", "d1", "u1", "")
	insert(t, store, task)

	c := newComment("t1", "d1", task.Base.Meta.ID, "")
	insert(t, store, c)

	_, err := runDelete(t, store, eng, task, cascade.Options{})
	require.NoError(t, err)

	res, err := runRestore(t, store, eng, task, cascade.RestoreOptions{})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 1)

	_, err = store.Reader().Get(ctx, entities.TypeComment, c.Base.Meta.ID, storage.ModeActive)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteGuards(t *testing.T) {
	store := storagetest.NewStore(t)
	eng := cascade.New(store.Graph())

	platform := newTenant("platform", true)
	insert(t, store, platform)

	tn := newTenant("acme", false)
	insert(t, store, tn)

	dept := newDepartment(tn.Base.Meta.ID, "maintenance", "")
	insert(t, store, dept)

	admin := newUser(tn.Base.Meta.ID, dept.Base.Meta.ID, entities.RoleAdministrator)
	insert(t, store, admin)

	head := newUser(tn.Base.Meta.ID, dept.Base.Meta.ID, entities.RoleDepartmentHead)
	insert(t, store, head)
	dept.HeadActorID = head.Base.Meta.ID
	require.NoError(t, store.Reader().Update(context.Background(), dept))

	t.Run("platform tenant", func(t *testing.T) {
		_, err := runDelete(t, store, eng, platform, cascade.Options{})
		assert.ErrorIs(t, err, cascade.ErrPlatformTenantProtected)
	})

	t.Run("last department", func(t *testing.T) {
		_, err := runDelete(t, store, eng, dept, cascade.Options{})
		assert.ErrorIs(t, err, cascade.ErrLastDepartment)
	})

	t.Run("last administrator", func(t *testing.T) {
		_, err := runDelete(t, store, eng, admin, cascade.Options{})
		assert.ErrorIs(t, err, cascade.ErrLastAdministrator)
	})

	t.Run("department head", func(t *testing.T) {
		_, err := runDelete(t, store, eng, head, cascade.Options{})
		assert.ErrorIs(t, err, cascade.ErrActingDepartmentHead)
	})
}

func TestGuardsApplyToRootOnly(t *testing.T) {
	store := storagetest.NewStore(t)
	eng := cascade.New(store.Graph())

	tn := newTenant("acme", false)
	insert(t, store, tn)

	// Single department and single administrator: either would refuse as a
	// root, but the tenant cascade takes them down.
	dept := newDepartment(tn.Base.Meta.ID, "maintenance", "")
	insert(t, store, dept)

	admin := newUser(tn.Base.Meta.ID, dept.Base.Meta.ID, entities.RoleAdministrator)
	insert(t, store, admin)

	res, err := runDelete(t, store, eng, tn, cascade.Options{})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 3)
}

func TestRestorePlatformTenantConflict(t *testing.T) {
	store := storagetest.NewStore(t)
	eng := cascade.New(store.Graph())

	// Two platform tenants can only coexist while one is deleted.
	old := newTenant("platform-old", true)
	insert(t, store, old)

	// Deleting the platform tenant is forbidden, so simulate the deleted
	// state directly through the lifecycle columns.
	old.Base.Lifecycle.IsDeleted = true
	require.NoError(t, store.Reader().Update(context.Background(), old))

	current := newTenant("platform-new", true)
	insert(t, store, current)

	_, err := runRestore(t, store, eng, old, cascade.RestoreOptions{})
	assert.ErrorIs(t, err, cascade.ErrPlatformTenantExists)
}

func TestCommentThreadDeletesRecursively(t *testing.T) {
	store := storagetest.NewStore(t)
	eng := cascade.New(store.Graph())

	top := newComment("t1", "d1", "task-1", "")
	insert(t, store, top)

	mid := newComment("t1", "d1", "task-1", top.Base.Meta.ID)
	insert(t, store, mid)

	leaf := newComment("t1", "d1", "task-1", mid.Base.Meta.ID)
	insert(t, store, leaf)

	res, err := runDelete(t, store, eng, top, cascade.Options{})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 3)
}
