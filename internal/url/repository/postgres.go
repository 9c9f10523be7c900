package repository

import (
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS url_mappings (
    short_code  VARCHAR(32)   PRIMARY KEY,
    long_url    VARCHAR(2048) NOT NULL,
    created_at  TIMESTAMPTZ   NOT NULL,
    expires_at  TIMESTAMPTZ   NULL,
    clicks      BIGINT        NOT NULL DEFAULT 0 CHECK (clicks >= 0),
    CHECK (expires_at IS NULL OR expires_at > created_at)
);

CREATE INDEX IF NOT EXISTS idx_url_mappings_long_url ON url_mappings (long_url);`

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

func NewPostgresRepository(db *sqlx.DB) *SQLRepository {
	return newSQLRepository(db, dialect{
		name:              "postgres",
		schema:            postgresSchema,
		isUniqueViolation: isPostgresUniqueViolation,
	})
}

func isPostgresUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}
