package storage

import (
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"

	entsql "entgo.io/ent/dialect/sql"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	_ "github.com/girmesh03/taskhub/internal/pkg/sqlite"
)

// Config selects the backing database.
type Config struct {
	Dialect string `conf:"dialect" yaml:"dialect" json:"dialect"`
	DSN     string `conf:"dsn" yaml:"dsn" json:"dsn"`
	Debug   bool   `conf:"debug" yaml:"debug" json:"debug"`
}

// Open connects to the configured database and returns an ent sql driver.
func Open(cfg Config) (*entsql.Driver, error) {
	var (
		db        *sql.DB
		dbDialect string
		err       error
	)

	switch cfg.Dialect {
	case "postgres", "pgx", "pg", "postgresql":
		db, err = sql.Open("pgx", cfg.DSN)
		dbDialect = dialect.Postgres
	case "sqlite3", "sqlite", "":
		db, err = sql.Open("sqlite3", cfg.DSN)
		dbDialect = dialect.SQLite
	case "mysql", "tidb":
		db, err = sql.Open("mysql", cfg.DSN)
		dbDialect = dialect.MySQL
	default:
		return nil, fmt.Errorf("storage: invalid dialect: %s", cfg.Dialect)
	}

	if err != nil {
		return nil, fmt.Errorf("storage: failed to open %s: %w", cfg.Dialect, err)
	}

	return entsql.OpenDB(dbDialect, db), nil
}
