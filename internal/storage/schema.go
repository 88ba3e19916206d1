package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"

	"github.com/girmesh03/taskhub/internal/entities"
)

// Migrate creates the table and indexes for every declared resource type.
// It is idempotent and runs once at startup, before serving.
func (s *Store) Migrate(ctx context.Context) error {
	sess := s.Reader()

	for _, t := range s.graph.Types() {
		d := s.graph.Descriptor(t)

		if err := sess.exec(ctx, createTableDDL(d.Table, d.RefColumns)); err != nil {
			return fmt.Errorf("storage: failed to create table %s: %w", d.Table, err)
		}

		for _, stmt := range createIndexDDL(sess.dialect, d.Table, d.RefColumns) {
			if err := sess.exec(ctx, stmt); err != nil {
				// MySQL has no IF NOT EXISTS for indexes; re-running the
				// migration reports duplicates, which are fine.
				if sess.dialect == dialect.MySQL && strings.Contains(err.Error(), "Duplicate key name") {
					continue
				}

				return fmt.Errorf("storage: failed to create index on %s: %w", d.Table, err)
			}
		}
	}

	return nil
}

func (s *Session) exec(ctx context.Context, stmt string) error {
	var res sql.Result
	return s.conn.Exec(ctx, stmt, []any{}, &res)
}

func createTableDDL(table string, refColumns []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", table)
	b.WriteString("  id VARCHAR(36) PRIMARY KEY,\n")
	b.WriteString("  tenant_id VARCHAR(36) NOT NULL DEFAULT '',\n")
	b.WriteString("  department_id VARCHAR(36) NOT NULL DEFAULT '',\n")
	b.WriteString("  owner_id VARCHAR(36) NOT NULL DEFAULT '',\n")
	b.WriteString("  created_at TIMESTAMP NOT NULL,\n")
	b.WriteString("  updated_at TIMESTAMP NOT NULL,\n")
	b.WriteString("  is_deleted BOOLEAN NOT NULL DEFAULT FALSE,\n")
	b.WriteString("  deleted_at TIMESTAMP NULL,\n")
	b.WriteString("  deleted_by VARCHAR(36) NOT NULL DEFAULT '',\n")
	b.WriteString("  restored_at TIMESTAMP NULL,\n")
	b.WriteString("  restored_by VARCHAR(36) NOT NULL DEFAULT '',\n")
	b.WriteString("  deletion_batch_id VARCHAR(36) NOT NULL DEFAULT '',\n")
	b.WriteString("  ttl_seconds BIGINT NOT NULL DEFAULT 0,\n")

	for _, col := range refColumns {
		// The assignee column holds a JSON array, not a single id.
		if col == entities.ColAssignees {
			fmt.Fprintf(&b, "  %s TEXT NOT NULL,\n", col)
			continue
		}

		fmt.Fprintf(&b, "  %s VARCHAR(64) NOT NULL DEFAULT '',\n", col)
	}

	b.WriteString("  attrs TEXT NOT NULL\n")
	b.WriteString(")")

	return b.String()
}

func createIndexDDL(dbDialect, table string, refColumns []string) []string {
	ifNotExists := "IF NOT EXISTS "
	if dbDialect == dialect.MySQL {
		ifNotExists = ""
	}

	stmts := []string{
		fmt.Sprintf("CREATE INDEX %sidx_%s_tenant ON %s (tenant_id, is_deleted)", ifNotExists, table, table),
		fmt.Sprintf("CREATE INDEX %sidx_%s_department ON %s (department_id, is_deleted)", ifNotExists, table, table),
		fmt.Sprintf("CREATE INDEX %sidx_%s_batch ON %s (deletion_batch_id)", ifNotExists, table, table),
	}

	for _, col := range refColumns {
		// No index for the assignee column: it is matched by substring,
		// which a b-tree cannot serve, and MySQL refuses unprefixed TEXT keys.
		if col == entities.ColAssignees {
			continue
		}

		stmts = append(stmts,
			fmt.Sprintf("CREATE INDEX %sidx_%s_%s ON %s (%s, is_deleted)", ifNotExists, table, col, table, col))
	}

	return stmts
}
