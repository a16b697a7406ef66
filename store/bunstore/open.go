package bunstore

import (
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// OpenSQLite opens a SQLite-backed store. Use ":memory:" for an
// ephemeral database.
func OpenSQLite(dsn string) (*Store, error) {
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite serializes writers; a single connection avoids lock errors
	// under concurrent access.
	sqldb.SetMaxOpenConns(1)

	return New(bun.NewDB(sqldb, sqlitedialect.New())), nil
}

// OpenPostgres opens a PostgreSQL-backed store from a lib/pq DSN.
func OpenPostgres(dsn string) (*Store, error) {
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	return New(bun.NewDB(sqldb, pgdialect.New())), nil
}
