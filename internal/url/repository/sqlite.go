package repository

import (
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS url_mappings (
    short_code  TEXT      PRIMARY KEY,
    long_url    TEXT      NOT NULL,
    created_at  TIMESTAMP NOT NULL,
    expires_at  TIMESTAMP NULL,
    clicks      INTEGER   NOT NULL DEFAULT 0 CHECK (clicks >= 0),
    CHECK (expires_at IS NULL OR expires_at > created_at)
);

CREATE INDEX IF NOT EXISTS idx_url_mappings_long_url ON url_mappings (long_url);`

// NewSQLiteRepository wraps a sqlite3 handle. The pool is pinned to one
// connection so ":memory:" databases are shared and writes are serialized.
func NewSQLiteRepository(db *sqlx.DB) *SQLRepository {
	db.SetMaxOpenConns(1)

	return newSQLRepository(db, dialect{
		name:              "sqlite3",
		schema:            sqliteSchema,
		isUniqueViolation: isSQLiteUniqueViolation,
	})
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
