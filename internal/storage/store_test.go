package storage_test

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/pkg/xtime"
	"github.com/girmesh03/taskhub/internal/storage"
	"github.com/girmesh03/taskhub/internal/storage/storagetest"
)

func insertVendor(t *testing.T, store *storage.Store, tenantID, name string) *entities.Vendor {
	t.Helper()

	v := &entities.Vendor{Name: name, ContactEmail: name + "@example.com"}
	v.Meta.TenantID = tenantID
	v.Meta.OwnerID = "u-seed"
	require.NoError(t, store.Reader().Insert(t.Context(), v))

	return v
}

func TestInsertAndGetRoundTrip(t *testing.T) {
	store := storagetest.NewStore(t)
	ctx := t.Context()

	m := &entities.Material{
		Name:     "copper pipe",
		SKU:      "CU-15",
		Unit:     "m",
		UnitCost: decimal.RequireFromString("3.75"),
		StockQty: 40,
	}
	m.Meta.TenantID = "t-acme"
	m.Meta.OwnerID = "u-seed"
	m.Lifecycle.TTL = entities.TTLPolicy(0)

	require.NoError(t, store.Reader().Insert(ctx, m))
	require.NotEmpty(t, m.Meta.ID, "insert assigns an id")
	require.False(t, m.Meta.CreatedAt.IsZero())

	got, err := store.Reader().Get(ctx, entities.TypeMaterial, m.Meta.ID, storage.ModeActive)
	require.NoError(t, err)

	loaded, ok := got.(*entities.Material)
	require.True(t, ok)
	require.Equal(t, "copper pipe", loaded.Name)
	require.Equal(t, "CU-15", loaded.SKU)
	require.True(t, decimal.RequireFromString("3.75").Equal(loaded.UnitCost))
	require.Equal(t, 40, loaded.StockQty)
	require.Equal(t, "t-acme", loaded.Meta.TenantID)
}

func TestGetUnknownIDIsNotFound(t *testing.T) {
	store := storagetest.NewStore(t)

	_, err := store.Reader().Get(t.Context(), entities.TypeVendor, "nope", storage.ModeActive)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.Reader().Get(t.Context(), "spaceship", "nope", storage.ModeActive)
	require.Error(t, err)
	require.NotErrorIs(t, err, storage.ErrNotFound)
}

func TestReadModes(t *testing.T) {
	store := storagetest.NewStore(t)
	ctx := t.Context()
	sess := store.Reader()

	active := insertVendor(t, store, "t-acme", "active")
	deleted := insertVendor(t, store, "t-acme", "deleted")

	now := xtime.Now()
	deleted.Lifecycle.IsDeleted = true
	deleted.Lifecycle.DeletedAt = &now
	deleted.Lifecycle.DeletedBy = "u-seed"
	require.NoError(t, sess.UpdateLifecycle(ctx, deleted))

	n, err := sess.Count(ctx, entities.TypeVendor, storage.ModeActive)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = sess.Count(ctx, entities.TypeVendor, storage.ModeWithDeleted)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	recs, err := sess.List(ctx, entities.TypeVendor, storage.ModeDeletedOnly, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, deleted.Meta.ID, recs[0].GetBase().Meta.ID)

	_, err = sess.Get(ctx, entities.TypeVendor, deleted.Meta.ID, storage.ModeActive)
	require.ErrorIs(t, err, storage.ErrNotFound)

	got, err := sess.Get(ctx, entities.TypeVendor, active.Meta.ID, storage.ModeActive)
	require.NoError(t, err)
	require.Equal(t, "active", got.(*entities.Vendor).Name)
}

func TestListPredicatesAndKeysetPaging(t *testing.T) {
	store := storagetest.NewStore(t)
	ctx := t.Context()
	sess := store.Reader()

	for i := range 5 {
		insertVendor(t, store, "t-acme", fmt.Sprintf("acme-%d", i))
	}
	insertVendor(t, store, "t-globex", "globex-0")

	recs, err := sess.List(ctx, entities.TypeVendor, storage.ModeActive,
		[]storage.Predicate{storage.TenantEQ("t-acme")})
	require.NoError(t, err)
	require.Len(t, recs, 5)

	// Page through with a keyset cursor and verify each id appears once.
	seen := map[string]bool{}
	cursor := ""
	for {
		page, err := sess.List(ctx, entities.TypeVendor, storage.ModeActive,
			[]storage.Predicate{storage.TenantEQ("t-acme")},
			storage.WithLimit(2), storage.WithCursor(cursor))
		require.NoError(t, err)

		if len(page) == 0 {
			break
		}

		for _, rec := range page {
			id := rec.GetBase().Meta.ID
			require.False(t, seen[id], "cursor paging must not repeat rows")
			seen[id] = true
			cursor = id
		}
	}
	require.Len(t, seen, 5)
}

func TestUpdateRewritesAttrs(t *testing.T) {
	store := storagetest.NewStore(t)
	ctx := t.Context()
	sess := store.Reader()

	v := insertVendor(t, store, "t-acme", "old name")
	v.Name = "new name"
	v.Phone = "555-0100"
	require.NoError(t, sess.Update(ctx, v))

	got, err := sess.Get(ctx, entities.TypeVendor, v.Meta.ID, storage.ModeActive)
	require.NoError(t, err)
	require.Equal(t, "new name", got.(*entities.Vendor).Name)
	require.Equal(t, "555-0100", got.(*entities.Vendor).Phone)
}

func TestReassignSkipsDeletedRows(t *testing.T) {
	store := storagetest.NewStore(t)
	ctx := t.Context()
	sess := store.Reader()

	newTask := func(materialID string, deleted bool) *entities.RoutineTask {
		task := &entities.RoutineTask{MaterialID: materialID}
		task.Title = "flush boiler"
		task.Meta.TenantID = "t-acme"
		task.Meta.DepartmentID = "d-ops"
		task.Meta.OwnerID = "u-seed"
		require.NoError(t, sess.Insert(ctx, task))

		if deleted {
			now := xtime.Now()
			task.Lifecycle.IsDeleted = true
			task.Lifecycle.DeletedAt = &now
			require.NoError(t, sess.UpdateLifecycle(ctx, task))
		}

		return task
	}

	activeTask := newTask("m-old", false)
	deletedTask := newTask("m-old", true)

	n, err := sess.Reassign(ctx, entities.TypeRoutineTask, entities.ColMaterialID, "m-old", "m-new")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := sess.Get(ctx, entities.TypeRoutineTask, activeTask.Meta.ID, storage.ModeActive)
	require.NoError(t, err)
	require.Equal(t, "m-new", got.(*entities.RoutineTask).MaterialID)

	got, err = sess.Get(ctx, entities.TypeRoutineTask, deletedTask.Meta.ID, storage.ModeDeletedOnly)
	require.NoError(t, err)
	require.Equal(t, "m-old", got.(*entities.RoutineTask).MaterialID, "deleted rows keep the old reference")
}

func TestUpdateLifecycleRejectsStaleTransition(t *testing.T) {
	store := storagetest.NewStore(t)
	ctx := t.Context()
	sess := store.Reader()

	v := insertVendor(t, store, "t-acme", "contested")

	// Two readers load the same active row and both try to delete it.
	first, err := sess.Get(ctx, entities.TypeVendor, v.Meta.ID, storage.ModeActive)
	require.NoError(t, err)
	second, err := sess.Get(ctx, entities.TypeVendor, v.Meta.ID, storage.ModeActive)
	require.NoError(t, err)

	now := xtime.Now()
	first.GetBase().Lifecycle.IsDeleted = true
	first.GetBase().Lifecycle.DeletedAt = &now
	first.GetBase().Lifecycle.DeletedBy = "u-first"
	require.NoError(t, sess.UpdateLifecycle(ctx, first))

	second.GetBase().Lifecycle.IsDeleted = true
	second.GetBase().Lifecycle.DeletedAt = &now
	second.GetBase().Lifecycle.DeletedBy = "u-second"
	err = sess.UpdateLifecycle(ctx, second)
	require.ErrorIs(t, err, storage.ErrTransientConflict)

	got, err := sess.Get(ctx, entities.TypeVendor, v.Meta.ID, storage.ModeDeletedOnly)
	require.NoError(t, err)
	require.Equal(t, "u-first", got.GetBase().Lifecycle.DeletedBy, "the winner's audit stamp survives")
}

func TestUpdateLifecycleRejectsStaleRestore(t *testing.T) {
	store := storagetest.NewStore(t)
	ctx := t.Context()
	sess := store.Reader()

	v := insertVendor(t, store, "t-acme", "contested")

	now := xtime.Now()
	v.Lifecycle.IsDeleted = true
	v.Lifecycle.DeletedAt = &now
	require.NoError(t, sess.UpdateLifecycle(ctx, v))

	first, err := sess.Get(ctx, entities.TypeVendor, v.Meta.ID, storage.ModeDeletedOnly)
	require.NoError(t, err)
	second, err := sess.Get(ctx, entities.TypeVendor, v.Meta.ID, storage.ModeDeletedOnly)
	require.NoError(t, err)

	first.GetBase().Lifecycle.IsDeleted = false
	first.GetBase().Lifecycle.DeletedAt = nil
	first.GetBase().Lifecycle.RestoredAt = &now
	first.GetBase().Lifecycle.RestoredBy = "u-first"
	require.NoError(t, sess.UpdateLifecycle(ctx, first))

	second.GetBase().Lifecycle.IsDeleted = false
	second.GetBase().Lifecycle.DeletedAt = nil
	second.GetBase().Lifecycle.RestoredAt = &now
	second.GetBase().Lifecycle.RestoredBy = "u-second"
	err = sess.UpdateLifecycle(ctx, second)
	require.ErrorIs(t, err, storage.ErrTransientConflict)
}

func TestDeleteByIDsOnlyRemovesDeletedRows(t *testing.T) {
	store := storagetest.NewStore(t)
	ctx := t.Context()
	sess := store.Reader()

	active := insertVendor(t, store, "t-acme", "active")
	deleted := insertVendor(t, store, "t-acme", "deleted")

	now := xtime.Now()
	deleted.Lifecycle.IsDeleted = true
	deleted.Lifecycle.DeletedAt = &now
	require.NoError(t, sess.UpdateLifecycle(ctx, deleted))

	n, err := sess.DeleteByIDs(ctx, entities.TypeVendor,
		[]string{active.Meta.ID, deleted.Meta.ID})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = sess.Count(ctx, entities.TypeVendor, storage.ModeWithDeleted)
	require.NoError(t, err)
	require.Equal(t, 1, n, "active rows survive a purge attempt")

	n, err = sess.DeleteByIDs(ctx, entities.TypeVendor, nil)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestTxRollbackDiscardsWrites(t *testing.T) {
	store := storagetest.NewStore(t)
	ctx := t.Context()

	tx, err := store.Tx(ctx)
	require.NoError(t, err)

	v := &entities.Vendor{Name: "ghost"}
	v.Meta.TenantID = "t-acme"
	require.NoError(t, tx.Insert(ctx, v))
	require.NoError(t, tx.Rollback())

	_, err = store.Reader().Get(ctx, entities.TypeVendor, v.Meta.ID, storage.ModeWithDeleted)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTxCommitPersistsWrites(t *testing.T) {
	store := storagetest.NewStore(t)
	ctx := t.Context()

	tx, err := store.Tx(ctx)
	require.NoError(t, err)

	v := &entities.Vendor{Name: "durable"}
	v.Meta.TenantID = "t-acme"
	require.NoError(t, tx.Insert(ctx, v))
	require.NoError(t, tx.Commit())

	got, err := store.Reader().Get(ctx, entities.TypeVendor, v.Meta.ID, storage.ModeActive)
	require.NoError(t, err)
	require.Equal(t, "durable", got.(*entities.Vendor).Name)
}

func TestIsTransient(t *testing.T) {
	require.False(t, storage.IsTransient(nil))
	require.False(t, storage.IsTransient(storage.ErrNotFound))
	require.True(t, storage.IsTransient(storage.ErrTransientConflict))
	require.True(t, storage.IsTransient(fmt.Errorf("exec: database is locked (5)")))
}
