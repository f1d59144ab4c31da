package pagelayout

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// OpenSQLite opens a SQLite-backed bun database suitable for WithDB. Use the
// DSN "file::memory:?cache=shared" for an in-process database.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("pagelayout: open sqlite: %w", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	db.SetMaxOpenConns(1)
	return db, nil
}

// NewPostgresDB wraps an already opened Postgres connection pool in a bun
// database suitable for WithDB. The host owns driver selection and pooling.
func NewPostgresDB(sqldb *sql.DB) *bun.DB {
	return bun.NewDB(sqldb, pgdialect.New())
}
