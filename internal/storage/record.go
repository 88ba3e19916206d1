package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/girmesh03/taskhub/internal/entities"
)

// baseColumns is the uniform column layout shared by every table; declared
// ref columns follow, attrs is always last.
var baseColumns = []string{
	"id",
	"tenant_id",
	"department_id",
	"owner_id",
	"created_at",
	"updated_at",
	"is_deleted",
	"deleted_at",
	"deleted_by",
	"restored_at",
	"restored_by",
	"deletion_batch_id",
	"ttl_seconds",
}

func selectColumns(d *entities.Descriptor) []string {
	cols := make([]string, 0, len(baseColumns)+len(d.RefColumns)+1)
	cols = append(cols, baseColumns...)
	cols = append(cols, d.RefColumns...)
	cols = append(cols, "attrs")

	return cols
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}

	return *t
}

// encodeRecord flattens a record into the uniform column layout. The
// type-specific fields ride in the attrs JSON payload; ref columns are
// duplicated out of it so cascades can query them.
func encodeRecord(d *entities.Descriptor, rec entities.Record) ([]string, []any, error) {
	attrs, err := json.Marshal(rec)
	if err != nil {
		return nil, nil, fmt.Errorf("storage: failed to encode %s attrs: %w", rec.Type(), err)
	}

	base := rec.GetBase()
	life := &base.Lifecycle

	vals := []any{
		base.Meta.ID,
		base.Meta.TenantID,
		base.Meta.DepartmentID,
		base.Meta.OwnerID,
		base.Meta.CreatedAt,
		base.Meta.UpdatedAt,
		life.IsDeleted,
		nullableTime(life.DeletedAt),
		life.DeletedBy,
		nullableTime(life.RestoredAt),
		life.RestoredBy,
		life.DeletionBatchID,
		life.TTL.Seconds(),
	}

	refs := rec.Refs()
	for _, col := range d.RefColumns {
		vals = append(vals, refs[col])
	}

	vals = append(vals, string(attrs))

	return selectColumns(d), vals, nil
}

// scanRecord rebuilds a record from one row of the uniform layout.
func scanRecord(d *entities.Descriptor, rows *entsql.Rows) (entities.Record, error) {
	var (
		id, tenantID, departmentID, ownerID  string
		createdAt, updatedAt                 sql.NullTime
		isDeleted                            bool
		deletedAt, restoredAt                sql.NullTime
		deletedBy, restoredBy, batchID       string
		ttlSeconds                           int64
		attrs                                []byte
	)

	dest := []any{
		&id, &tenantID, &departmentID, &ownerID,
		&createdAt, &updatedAt,
		&isDeleted, &deletedAt, &deletedBy, &restoredAt, &restoredBy,
		&batchID, &ttlSeconds,
	}

	refVals := make([]sql.NullString, len(d.RefColumns))
	for i := range refVals {
		dest = append(dest, &refVals[i])
	}

	dest = append(dest, &attrs)

	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	rec := d.New()
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, rec); err != nil {
			return nil, fmt.Errorf("failed to decode attrs: %w", err)
		}
	}

	base := rec.GetBase()
	base.Meta = entities.Meta{
		ID:           id,
		TenantID:     tenantID,
		DepartmentID: departmentID,
		OwnerID:      ownerID,
		CreatedAt:    createdAt.Time,
		UpdatedAt:    updatedAt.Time,
	}
	base.Lifecycle = entities.Lifecycle{
		IsDeleted:       isDeleted,
		DeletedAt:       timePtr(deletedAt),
		DeletedBy:       deletedBy,
		RestoredAt:      timePtr(restoredAt),
		RestoredBy:      restoredBy,
		DeletionBatchID: batchID,
		TTL:             entities.TTLFromSeconds(ttlSeconds),
	}

	for i, col := range d.RefColumns {
		if refVals[i].Valid {
			rec.SetRef(col, refVals[i].String)
		}
	}

	return rec, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}

	v := t.Time

	return &v
}
