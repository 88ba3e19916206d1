// Package cascade walks the entity graph to delete and restore whole
// subtrees atomically. A delete stamps every affected record with one
// deletion batch id; a restore of the same root brings back exactly the
// records carrying that batch, so interleaved deletes never bleed into
// each other.
package cascade

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/lifecycle"
	"github.com/girmesh03/taskhub/internal/log"
	"github.com/girmesh03/taskhub/internal/storage"
)

// ErrSelfDepthExceeded reports a self-referential chain deeper than the
// declared bound; write paths enforce the bound, so hitting this means the
// data is corrupt.
var ErrSelfDepthExceeded = errors.New("cascade: self edge depth exceeded")

// Action says what the cascade did to one record.
type Action string

const (
	ActionDeleted    Action = "deleted"
	ActionRestored   Action = "restored"
	ActionReassigned Action = "reassigned"
)

// Entry is one record touched by a cascade.
type Entry struct {
	Type   entities.ResourceType `json:"type"`
	ID     string                `json:"id"`
	Action Action                `json:"action"`
}

// Result reports everything a cascade touched, root first.
type Result struct {
	BatchID string  `json:"batch_id"`
	Entries []Entry `json:"entries"`
}

// Options tune a delete cascade.
type Options struct {
	// Reassignments maps a child type reached through a
	// require_reassignment edge to the replacement parent id.
	Reassignments map[entities.ResourceType]string
}

// RestoreOptions tune a restore cascade.
type RestoreOptions struct {
	// CascadeChildren also restores the records soft-deleted together with
	// the root, identified by the root's deletion batch.
	CascadeChildren bool
}

// walkBatchSize bounds how many children are loaded per query while
// walking an edge.
const walkBatchSize = 200

// Engine executes cascades inside caller-supplied sessions. It is
// stateless and safe for concurrent use.
type Engine struct {
	graph *entities.Graph
}

func New(graph *entities.Graph) *Engine {
	return &Engine{graph: graph}
}

// Delete soft-deletes the root and every record reachable through
// soft_delete edges, in one session. Structural guards apply to the root
// only. Deleting an already-deleted root is a no-op returning its original
// batch id.
func (e *Engine) Delete(ctx context.Context, sess *storage.Session, root entities.Record, actorID string, opts Options) (*Result, error) {
	if !root.GetBase().Lifecycle.Active() {
		return &Result{BatchID: root.GetBase().Lifecycle.DeletionBatchID}, nil
	}

	if err := e.checkDeleteGuards(ctx, sess, root); err != nil {
		return nil, err
	}

	res := &Result{BatchID: uuid.NewString()}
	if err := e.deleteTree(ctx, sess, root, actorID, opts, res, 0); err != nil {
		return nil, err
	}

	log.Info(ctx, "cascade delete completed",
		log.String("root_type", root.Type().String()),
		log.String("root_id", root.GetBase().Meta.ID),
		log.String("batch_id", res.BatchID),
		log.Int("affected", len(res.Entries)),
	)

	return res, nil
}

func (e *Engine) deleteTree(ctx context.Context, sess *storage.Session, rec entities.Record, actorID string, opts Options, res *Result, selfDepth int) error {
	d := e.graph.Descriptor(rec.Type())
	if d == nil {
		return fmt.Errorf("cascade: unknown resource type %q", rec.Type())
	}

	if err := lifecycle.MarkDeleted(ctx, sess, rec, actorID, res.BatchID); err != nil {
		return err
	}

	res.Entries = append(res.Entries, Entry{Type: rec.Type(), ID: rec.GetBase().Meta.ID, Action: ActionDeleted})

	for _, edge := range d.Edges {
		switch edge.Policy {
		case entities.PolicyBlockIfExists:
			if err := e.applyBlock(ctx, sess, rec, edge); err != nil {
				return err
			}
		case entities.PolicyRequireReassignment:
			if err := e.applyReassignment(ctx, sess, rec, edge, opts, res); err != nil {
				return err
			}
		case entities.PolicySoftDelete:
			if err := e.deleteChildren(ctx, sess, rec, edge, actorID, opts, res, selfDepth); err != nil {
				return err
			}
		}
	}

	return nil
}

func (e *Engine) applyBlock(ctx context.Context, sess *storage.Session, rec entities.Record, edge entities.Edge) error {
	parentID := rec.GetBase().Meta.ID

	children, err := sess.List(ctx, edge.Child, storage.ModeActive,
		[]storage.Predicate{storage.FieldEQ(edge.RefColumn, parentID)},
		storage.WithLimit(walkBatchSize))
	if err != nil {
		return err
	}

	if len(children) == 0 {
		return nil
	}

	ids := make([]string, len(children))
	for i, c := range children {
		ids[i] = c.GetBase().Meta.ID
	}

	return &BlockedError{Parent: rec.Type(), ParentID: parentID, Child: edge.Child, ChildIDs: ids}
}

func (e *Engine) applyReassignment(ctx context.Context, sess *storage.Session, rec entities.Record, edge entities.Edge, opts Options, res *Result) error {
	parentID := rec.GetBase().Meta.ID

	children, err := e.listAll(ctx, sess, edge.Child, storage.ModeActive,
		storage.FieldEQ(edge.RefColumn, parentID))
	if err != nil {
		return err
	}

	if len(children) == 0 {
		return nil
	}

	target, ok := opts.Reassignments[edge.Child]
	if !ok || target == "" {
		return &MissingReassignmentError{Parent: rec.Type(), ParentID: parentID, Child: edge.Child}
	}

	if err := e.checkReassignmentTarget(ctx, sess, rec, target); err != nil {
		return err
	}

	if _, err := sess.Reassign(ctx, edge.Child, edge.RefColumn, parentID, target); err != nil {
		return err
	}

	for _, c := range children {
		res.Entries = append(res.Entries, Entry{Type: c.Type(), ID: c.GetBase().Meta.ID, Action: ActionReassigned})
	}

	return nil
}

// checkReassignmentTarget verifies the replacement parent before any child
// is repointed at it: it must be a different record of the same type,
// active, and in the same tenant as the record being deleted.
func (e *Engine) checkReassignmentTarget(ctx context.Context, sess *storage.Session, rec entities.Record, target string) error {
	if target == rec.GetBase().Meta.ID {
		return &ReassignmentTargetError{Parent: rec.Type(), TargetID: target, Reason: "target is the record being deleted"}
	}

	got, err := sess.Get(ctx, rec.Type(), target, storage.ModeActive)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &ReassignmentTargetError{Parent: rec.Type(), TargetID: target, Reason: "no active record with that id"}
		}

		return err
	}

	if got.GetBase().Meta.TenantID != rec.GetBase().Meta.TenantID {
		return &ReassignmentTargetError{Parent: rec.Type(), TargetID: target, Reason: "target belongs to another tenant"}
	}

	return nil
}

func (e *Engine) deleteChildren(ctx context.Context, sess *storage.Session, rec entities.Record, edge entities.Edge, actorID string, opts Options, res *Result, selfDepth int) error {
	d := e.graph.Descriptor(rec.Type())

	childDepth := 0
	if edge.Child == rec.Type() {
		childDepth = selfDepth + 1
	}

	children, err := e.listAll(ctx, sess, edge.Child, storage.ModeActive,
		storage.FieldEQ(edge.RefColumn, rec.GetBase().Meta.ID))
	if err != nil {
		return err
	}

	if len(children) > 0 && childDepth >= d.MaxSelfDepth && edge.Child == rec.Type() {
		return fmt.Errorf("%w: %s %s", ErrSelfDepthExceeded, rec.Type(), rec.GetBase().Meta.ID)
	}

	for _, c := range children {
		if err := e.deleteTree(ctx, sess, c, actorID, opts, res, childDepth); err != nil {
			return err
		}
	}

	return nil
}

// Restore reactivates the root and, when asked, the children deleted in
// the same batch. Children deleted in earlier, separate cascades keep
// their own batch and stay deleted.
func (e *Engine) Restore(ctx context.Context, sess *storage.Session, root entities.Record, actorID string, opts RestoreOptions) (*Result, error) {
	if err := e.checkRestoreGuards(ctx, sess, root); err != nil {
		return nil, err
	}

	// The batch must be captured before the root restore clears it.
	batchID := root.GetBase().Lifecycle.DeletionBatchID

	if err := lifecycle.Restore(ctx, sess, root, actorID); err != nil {
		return nil, err
	}

	res := &Result{BatchID: batchID}
	res.Entries = append(res.Entries, Entry{Type: root.Type(), ID: root.GetBase().Meta.ID, Action: ActionRestored})

	if opts.CascadeChildren && batchID != "" {
		if err := e.restoreChildren(ctx, sess, root, actorID, batchID, res, 0); err != nil {
			return nil, err
		}
	}

	log.Info(ctx, "cascade restore completed",
		log.String("root_type", root.Type().String()),
		log.String("root_id", root.GetBase().Meta.ID),
		log.String("batch_id", batchID),
		log.Int("affected", len(res.Entries)),
	)

	return res, nil
}

func (e *Engine) restoreChildren(ctx context.Context, sess *storage.Session, rec entities.Record, actorID, batchID string, res *Result, selfDepth int) error {
	d := e.graph.Descriptor(rec.Type())
	if d == nil {
		return fmt.Errorf("cascade: unknown resource type %q", rec.Type())
	}

	for _, edge := range d.Edges {
		if edge.Policy != entities.PolicySoftDelete {
			continue
		}

		childDepth := 0
		if edge.Child == rec.Type() {
			childDepth = selfDepth + 1
		}

		children, err := e.listAll(ctx, sess, edge.Child, storage.ModeDeletedOnly,
			storage.FieldEQ(edge.RefColumn, rec.GetBase().Meta.ID),
			storage.BatchEQ(batchID))
		if err != nil {
			return err
		}

		if len(children) > 0 && childDepth >= d.MaxSelfDepth && edge.Child == rec.Type() {
			return fmt.Errorf("%w: %s %s", ErrSelfDepthExceeded, rec.Type(), rec.GetBase().Meta.ID)
		}

		for _, c := range children {
			if err := lifecycle.Restore(ctx, sess, c, actorID); err != nil {
				return err
			}

			res.Entries = append(res.Entries, Entry{Type: c.Type(), ID: c.GetBase().Meta.ID, Action: ActionRestored})

			if err := e.restoreChildren(ctx, sess, c, actorID, batchID, res, childDepth); err != nil {
				return err
			}
		}
	}

	return nil
}

// listAll pages through every record matching the predicates with a keyset
// scan so a wide edge never loads in one query.
func (e *Engine) listAll(ctx context.Context, sess *storage.Session, t entities.ResourceType, mode storage.ReadMode, preds ...storage.Predicate) ([]entities.Record, error) {
	var (
		all    []entities.Record
		cursor string
	)

	for {
		page, err := sess.List(ctx, t, mode, preds,
			storage.WithLimit(walkBatchSize), storage.WithCursor(cursor))
		if err != nil {
			return nil, err
		}

		all = append(all, page...)

		if len(page) < walkBatchSize {
			return all, nil
		}

		cursor = page[len(page)-1].GetBase().Meta.ID
	}
}
