// Package lifecycle implements the soft-delete state machine applied to
// single records:
//
//	ACTIVE -> (delete) -> DELETED -> (restore) -> ACTIVE -> ...
//	DELETED -> (ttl expiry, purge sweep) -> PURGED (terminal)
//
// All transitions run inside a caller-supplied session; the engine never
// opens or commits transactions itself.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/log"
	"github.com/girmesh03/taskhub/internal/pkg/xtime"
	"github.com/girmesh03/taskhub/internal/storage"
)

// ErrNotDeleted is returned by Restore for a record that is currently
// active; a delete/restore race resolves by one side observing it.
var ErrNotDeleted = errors.New("lifecycle: record is not deleted")

// MarkDeleted soft-deletes a record inside the caller's session, stamping
// the shared deletion batch id. It is idempotent: an already-deleted record
// is left untouched, keeping its original batch.
func MarkDeleted(ctx context.Context, sess *storage.Session, rec entities.Record, actorID, batchID string) error {
	life := &rec.GetBase().Lifecycle
	if life.IsDeleted {
		return nil
	}

	now := xtime.Now()
	life.IsDeleted = true
	life.DeletedAt = &now
	life.DeletedBy = actorID
	life.RestoredAt = nil
	life.RestoredBy = ""
	life.DeletionBatchID = batchID

	if err := sess.UpdateLifecycle(ctx, rec); err != nil {
		return fmt.Errorf("lifecycle: failed to mark %s %s deleted: %w", rec.Type(), rec.GetBase().Meta.ID, err)
	}

	log.Debug(ctx, "record soft deleted",
		log.String("type", rec.Type().String()),
		log.String("id", rec.GetBase().Meta.ID),
		log.String("batch_id", batchID),
	)

	return nil
}

// Restore reactivates a soft-deleted record inside the caller's session,
// clearing the deletion batch and stamping the restore audit fields. It
// fails with ErrNotDeleted for an active record.
func Restore(ctx context.Context, sess *storage.Session, rec entities.Record, actorID string) error {
	life := &rec.GetBase().Lifecycle
	if !life.IsDeleted {
		return fmt.Errorf("%w: %s %s", ErrNotDeleted, rec.Type(), rec.GetBase().Meta.ID)
	}

	now := xtime.Now()
	life.IsDeleted = false
	life.DeletedAt = nil
	life.DeletedBy = ""
	life.DeletionBatchID = ""
	life.RestoredAt = &now
	life.RestoredBy = actorID

	if err := sess.UpdateLifecycle(ctx, rec); err != nil {
		return fmt.Errorf("lifecycle: failed to restore %s %s: %w", rec.Type(), rec.GetBase().Meta.ID, err)
	}

	log.Debug(ctx, "record restored",
		log.String("type", rec.Type().String()),
		log.String("id", rec.GetBase().Meta.ID),
	)

	return nil
}
