// Package storagetest opens throwaway in-memory stores for tests.
package storagetest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/storage"
)

var dbSeq atomic.Int64

// NewStore returns a migrated sqlite in-memory store backed by the full
// entity graph. The store is closed when the test finishes.
func NewStore(t *testing.T) *storage.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:storagetest%d?mode=memory&cache=shared", dbSeq.Add(1))

	drv, err := storage.Open(storage.Config{Dialect: "sqlite3", DSN: dsn})
	require.NoError(t, err)

	// Keep one connection pinned so the shared in-memory database survives
	// pool churn between queries.
	drv.DB().SetMaxIdleConns(1)

	store := storage.New(drv, entities.MustGraph())
	require.NoError(t, store.Migrate(context.Background()))

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}
