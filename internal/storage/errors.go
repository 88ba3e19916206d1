package storage

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"

	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when a record does not exist or is outside the
// caller's scope; the two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("storage: record not found")

// ErrTransientConflict marks a concurrent write conflict. The whole logical
// operation (not a sub-step) is safe to retry from the top.
var ErrTransientConflict = errors.New("storage: transient conflict")

// IsTransient reports whether err is a retryable storage conflict on any of
// the supported dialects.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrTransientConflict) {
		return true
	}

	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}

	var perr *pgconn.PgError
	if errors.As(err, &perr) {
		return pgerrcode.IsTransactionRollback(perr.Code)
	}

	var merr *mysql.MySQLError
	if errors.As(err, &merr) {
		// 1213 deadlock, 1205 lock wait timeout.
		return merr.Number == 1213 || merr.Number == 1205
	}

	// modernc surfaces busy errors from DDL paths as plain strings.
	return strings.Contains(err.Error(), "database is locked")
}
