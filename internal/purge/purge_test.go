package purge_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/girmesh03/taskhub/internal/cascade"
	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/pkg/xtime"
	"github.com/girmesh03/taskhub/internal/purge"
	"github.com/girmesh03/taskhub/internal/storage"
	"github.com/girmesh03/taskhub/internal/storage/storagetest"
)

func newWorker(t *testing.T, store *storage.Store) *purge.Worker {
	t.Helper()

	w, err := purge.NewWorker(purge.Params{
		Config: purge.Config{CRON: "0 3 * * *", BatchSize: 10},
		Store:  store,
		Meter:  noop.NewMeterProvider().Meter("test"),
	})
	require.NoError(t, err)

	return w
}

func seedVendor(t *testing.T, store *storage.Store, ttl entities.TTLPolicy) *entities.Vendor {
	t.Helper()

	v := &entities.Vendor{Name: "northwind"}
	v.Base.Meta.TenantID = "t1"
	v.Base.Lifecycle.TTL = ttl
	require.NoError(t, store.Reader().Insert(context.Background(), v))

	return v
}

func deleteRecord(t *testing.T, store *storage.Store, rec entities.Record) {
	t.Helper()

	ctx := context.Background()
	eng := cascade.New(store.Graph())

	sess, err := store.Tx(ctx)
	require.NoError(t, err)

	_, err = eng.Delete(ctx, sess, rec, "actor-1", cascade.Options{})
	require.NoError(t, err)
	require.NoError(t, sess.Commit())
}

func TestSweepRemovesExpiredRecords(t *testing.T) {
	store := storagetest.NewStore(t)
	ctx := context.Background()

	deletedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	xtime.SetNowFunc(func() time.Time { return deletedAt })
	defer xtime.ResetNowFunc()

	expired := seedVendor(t, store, entities.TTLPolicy(time.Hour))
	pending := seedVendor(t, store, entities.TTLPolicy(48*time.Hour))
	forever := seedVendor(t, store, entities.TTLNever)
	active := seedVendor(t, store, entities.TTLPolicy(time.Hour))

	deleteRecord(t, store, expired)
	deleteRecord(t, store, pending)
	deleteRecord(t, store, forever)

	// A day later only the one-hour ttl has elapsed.
	xtime.SetNowFunc(func() time.Time { return deletedAt.Add(24 * time.Hour) })

	require.NoError(t, newWorker(t, store).Sweep(ctx))

	_, err := store.Reader().Get(ctx, entities.TypeVendor, expired.Base.Meta.ID, storage.ModeWithDeleted)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.Reader().Get(ctx, entities.TypeVendor, pending.Base.Meta.ID, storage.ModeDeletedOnly)
	assert.NoError(t, err)

	_, err = store.Reader().Get(ctx, entities.TypeVendor, forever.Base.Meta.ID, storage.ModeDeletedOnly)
	assert.NoError(t, err)

	_, err = store.Reader().Get(ctx, entities.TypeVendor, active.Base.Meta.ID, storage.ModeActive)
	assert.NoError(t, err)
}

func TestSweepPagesThroughCandidates(t *testing.T) {
	store := storagetest.NewStore(t)
	ctx := context.Background()

	deletedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	xtime.SetNowFunc(func() time.Time { return deletedAt })
	defer xtime.ResetNowFunc()

	const n = 25

	for range n {
		deleteRecord(t, store, seedVendor(t, store, entities.TTLPolicy(time.Minute)))
	}

	xtime.SetNowFunc(func() time.Time { return deletedAt.Add(time.Hour) })

	require.NoError(t, newWorker(t, store).Sweep(ctx))

	left, err := store.Reader().Count(ctx, entities.TypeVendor, storage.ModeWithDeleted)
	require.NoError(t, err)
	assert.Zero(t, left)
}
