// Package storage persists entity-graph records over the ent sql dialect
// layer, one table per resource type with a uniform column layout. Any
// engine able to satisfy the small Session surface can replace it.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	"github.com/google/uuid"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/pkg/xtime"
)

// Store owns the database connection and hands out sessions.
type Store struct {
	drv   *entsql.Driver
	graph *entities.Graph
}

func New(drv *entsql.Driver, graph *entities.Graph) *Store {
	return &Store{drv: drv, graph: graph}
}

func (s *Store) Graph() *entities.Graph {
	return s.graph
}

func (s *Store) Close() error {
	return s.drv.Close()
}

// Reader returns an auto-commit session for read paths that do not need a
// transaction.
func (s *Store) Reader() *Session {
	return &Session{conn: s.drv, graph: s.graph, dialect: s.drv.Dialect()}
}

// Tx opens a transaction-bound session. Every mutating engine call runs
// inside exactly one such session; cancelling ctx aborts it wholesale.
func (s *Store) Tx(ctx context.Context) (*Session, error) {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to begin transaction: %w", err)
	}

	return &Session{conn: tx, tx: tx, graph: s.graph, dialect: s.drv.Dialect()}, nil
}

// Session executes record operations against one connection, transactional
// or not.
type Session struct {
	conn    dialect.ExecQuerier
	tx      dialect.Tx
	graph   *entities.Graph
	dialect string
}

// Commit commits the underlying transaction; no-op for reader sessions.
func (s *Session) Commit() error {
	if s.tx == nil {
		return nil
	}

	return s.tx.Commit()
}

// Rollback rolls back the underlying transaction; no-op for reader sessions.
func (s *Session) Rollback() error {
	if s.tx == nil {
		return nil
	}

	return s.tx.Rollback()
}

func (s *Session) Graph() *entities.Graph {
	return s.graph
}

func (s *Session) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}

func (s *Session) descriptor(t entities.ResourceType) (*entities.Descriptor, error) {
	d := s.graph.Descriptor(t)
	if d == nil {
		return nil, fmt.Errorf("storage: unknown resource type %q", t)
	}

	return d, nil
}

type listOptions struct {
	limit  int
	cursor string
}

// ListOption tunes a List call.
type ListOption func(*listOptions)

// WithLimit caps the number of returned records.
func WithLimit(n int) ListOption {
	return func(o *listOptions) { o.limit = n }
}

// WithCursor resumes a keyset scan strictly after the given id.
func WithCursor(id string) ListOption {
	return func(o *listOptions) { o.cursor = id }
}

// Get fetches one record by id under the given read mode. A record outside
// the mode is reported as ErrNotFound.
func (s *Session) Get(ctx context.Context, t entities.ResourceType, id string, mode ReadMode) (entities.Record, error) {
	recs, err := s.List(ctx, t, mode, []Predicate{IDEQ(id)}, WithLimit(1))
	if err != nil {
		return nil, err
	}

	if len(recs) == 0 {
		return nil, ErrNotFound
	}

	return recs[0], nil
}

// List returns records matching all predicates, ordered by id for stable
// keyset pagination.
func (s *Session) List(ctx context.Context, t entities.ResourceType, mode ReadMode, preds []Predicate, opts ...ListOption) ([]entities.Record, error) {
	d, err := s.descriptor(t)
	if err != nil {
		return nil, err
	}

	var o listOptions
	for _, opt := range opts {
		opt(&o)
	}

	sel := s.builder().
		Select(selectColumns(d)...).
		From(entsql.Table(d.Table))
	mode.apply(sel)

	for _, p := range preds {
		p(sel)
	}

	if o.cursor != "" {
		sel.Where(entsql.GT("id", o.cursor))
	}

	sel.OrderBy("id")

	if o.limit > 0 {
		sel.Limit(o.limit)
	}

	query, args := sel.Query()

	rows := &entsql.Rows{}
	if err := s.conn.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("storage: failed to list %s: %w", t, err)
	}
	defer rows.Close()

	var recs []entities.Record

	for rows.Next() {
		rec, err := scanRecord(d, rows)
		if err != nil {
			return nil, fmt.Errorf("storage: failed to scan %s: %w", t, err)
		}

		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: failed to iterate %s: %w", t, err)
	}

	return recs, nil
}

// Exists reports whether any record matches all predicates under the mode.
func (s *Session) Exists(ctx context.Context, t entities.ResourceType, mode ReadMode, preds ...Predicate) (bool, error) {
	d, err := s.descriptor(t)
	if err != nil {
		return false, err
	}

	sel := s.builder().
		Select("id").
		From(entsql.Table(d.Table)).
		Limit(1)
	mode.apply(sel)

	for _, p := range preds {
		p(sel)
	}

	query, args := sel.Query()

	rows := &entsql.Rows{}
	if err := s.conn.Query(ctx, query, args, rows); err != nil {
		return false, fmt.Errorf("storage: failed to probe %s: %w", t, err)
	}
	defer rows.Close()

	return rows.Next(), rows.Err()
}

// Count returns the number of records matching all predicates.
func (s *Session) Count(ctx context.Context, t entities.ResourceType, mode ReadMode, preds ...Predicate) (int, error) {
	d, err := s.descriptor(t)
	if err != nil {
		return 0, err
	}

	sel := s.builder().
		Select("COUNT(*)").
		From(entsql.Table(d.Table))
	mode.apply(sel)

	for _, p := range preds {
		p(sel)
	}

	query, args := sel.Query()

	rows := &entsql.Rows{}
	if err := s.conn.Query(ctx, query, args, rows); err != nil {
		return 0, fmt.Errorf("storage: failed to count %s: %w", t, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return 0, rows.Err()
	}

	var n int
	if err := rows.Scan(&n); err != nil {
		return 0, err
	}

	return n, rows.Err()
}

// Insert persists a new record, assigning id and timestamps when unset.
func (s *Session) Insert(ctx context.Context, rec entities.Record) error {
	d, err := s.descriptor(rec.Type())
	if err != nil {
		return err
	}

	base := rec.GetBase()
	if base.Meta.ID == "" {
		base.Meta.ID = uuid.NewString()
	}

	now := xtime.Now()
	if base.Meta.CreatedAt.IsZero() {
		base.Meta.CreatedAt = now
	}

	base.Meta.UpdatedAt = now

	cols, vals, err := encodeRecord(d, rec)
	if err != nil {
		return err
	}

	ins := s.builder().
		Insert(d.Table).
		Columns(cols...).
		Values(vals...)

	query, args := ins.Query()

	var res sql.Result
	if err := s.conn.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("storage: failed to insert %s: %w", rec.Type(), err)
	}

	return nil
}

// Update rewrites the full row of an existing record.
func (s *Session) Update(ctx context.Context, rec entities.Record) error {
	d, err := s.descriptor(rec.Type())
	if err != nil {
		return err
	}

	base := rec.GetBase()
	base.Meta.UpdatedAt = xtime.Now()

	cols, vals, err := encodeRecord(d, rec)
	if err != nil {
		return err
	}

	upd := s.builder().Update(d.Table)
	for i, col := range cols {
		if col == "id" {
			continue
		}

		upd.Set(col, vals[i])
	}

	upd.Where(entsql.EQ("id", base.Meta.ID))

	query, args := upd.Query()

	var res sql.Result
	if err := s.conn.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("storage: failed to update %s %s: %w", rec.Type(), base.Meta.ID, err)
	}

	return nil
}

// UpdateLifecycle persists only the lifecycle columns of a record; used by
// the lifecycle engine so attrs written by a concurrent updater survive.
// The row must still hold the pre-transition deletion flag; when a racing
// transition got there first the update matches nothing and the whole
// operation reports a transient conflict, so callers retry from the top
// against fresh state instead of overwriting the winner.
func (s *Session) UpdateLifecycle(ctx context.Context, rec entities.Record) error {
	d, err := s.descriptor(rec.Type())
	if err != nil {
		return err
	}

	base := rec.GetBase()
	base.Meta.UpdatedAt = xtime.Now()

	life := &base.Lifecycle

	upd := s.builder().
		Update(d.Table).
		Set("updated_at", base.Meta.UpdatedAt).
		Set("is_deleted", life.IsDeleted).
		Set("deleted_at", nullableTime(life.DeletedAt)).
		Set("deleted_by", life.DeletedBy).
		Set("restored_at", nullableTime(life.RestoredAt)).
		Set("restored_by", life.RestoredBy).
		Set("deletion_batch_id", life.DeletionBatchID).
		Set("ttl_seconds", life.TTL.Seconds()).
		Where(entsql.And(
			entsql.EQ("id", base.Meta.ID),
			entsql.EQ("is_deleted", !life.IsDeleted),
		))

	query, args := upd.Query()

	var res sql.Result
	if err := s.conn.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("storage: failed to update lifecycle of %s %s: %w", rec.Type(), base.Meta.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("storage: lifecycle of %s %s changed concurrently: %w",
			rec.Type(), base.Meta.ID, ErrTransientConflict)
	}

	return nil
}

// Reassign rewrites a ref column from oldID to newID on active rows only;
// rows already deleted keep the old reference for history. Returns the
// number of rewritten rows.
func (s *Session) Reassign(ctx context.Context, t entities.ResourceType, refColumn, oldID, newID string) (int, error) {
	d, err := s.descriptor(t)
	if err != nil {
		return 0, err
	}

	upd := s.builder().
		Update(d.Table).
		Set(refColumn, newID).
		Set("updated_at", xtime.Now()).
		Where(entsql.And(
			entsql.EQ(refColumn, oldID),
			entsql.EQ("is_deleted", false),
		))

	query, args := upd.Query()

	var res sql.Result
	if err := s.conn.Exec(ctx, query, args, &res); err != nil {
		return 0, fmt.Errorf("storage: failed to reassign %s.%s: %w", t, refColumn, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(n), nil
}

// DeleteByIDs physically removes soft-deleted rows. Active rows are never
// touched; this is the purge path, not a user-facing delete.
func (s *Session) DeleteByIDs(ctx context.Context, t entities.ResourceType, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	d, err := s.descriptor(t)
	if err != nil {
		return 0, err
	}

	anyIDs := make([]any, len(ids))
	for i, id := range ids {
		anyIDs[i] = id
	}

	del := s.builder().
		Delete(d.Table).
		Where(entsql.And(
			entsql.EQ("is_deleted", true),
			entsql.In("id", anyIDs...),
		))

	query, args := del.Query()

	var res sql.Result
	if err := s.conn.Exec(ctx, query, args, &res); err != nil {
		return 0, fmt.Errorf("storage: failed to purge %s: %w", t, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(n), nil
}

type sessionKey struct{}

// NewSessionContext stashes a session for nested service calls that must
// share one transaction.
func NewSessionContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the stashed session, if any.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok
}
