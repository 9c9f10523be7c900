package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umanagarjuna/linkshort/internal/url/domain"
)

const selectColumns = `short_code, long_url, created_at, expires_at, clicks`

type dialect struct {
	name              string
	schema            string
	isUniqueViolation func(err error) bool
}

// SQLRepository implements Repository on top of sqlx. Queries are written
// with '?' placeholders and rebound for the driver.
type SQLRepository struct {
	db      *sqlx.DB
	dialect dialect
}

func newSQLRepository(db *sqlx.DB, d dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: d}
}

func (r *SQLRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.schema); err != nil {
		return fmt.Errorf("failed to apply %s schema: %w", r.dialect.name, err)
	}
	return nil
}

func (r *SQLRepository) Insert(ctx context.Context, url *domain.URL) error {
	query := r.db.Rebind(`
		INSERT INTO url_mappings (short_code, long_url, created_at, expires_at, clicks)
		VALUES (?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		url.ShortCode,
		url.LongURL,
		url.CreatedAt,
		url.ExpiresAt,
		url.Clicks)
	if err != nil {
		if r.dialect.isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", domain.ErrConflict, url.ShortCode)
		}
		return fmt.Errorf("failed to insert URL: %w", err)
	}

	return nil
}

func (r *SQLRepository) FindByCode(ctx context.Context, shortCode string) (*domain.URL, error) {
	var url domain.URL
	query := r.db.Rebind(`
		SELECT ` + selectColumns + `
		FROM url_mappings
		WHERE short_code = ?`)

	err := r.db.GetContext(ctx, &url, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get URL: %w", err)
	}

	return &url, nil
}

func (r *SQLRepository) FindByLongURL(ctx context.Context, longURL string) (*domain.URL, error) {
	var url domain.URL
	query := r.db.Rebind(`
		SELECT ` + selectColumns + `
		FROM url_mappings
		WHERE long_url = ?
		ORDER BY created_at DESC
		LIMIT 1`)

	err := r.db.GetContext(ctx, &url, query, longURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get URL by long URL: %w", err)
	}

	return &url, nil
}

func (r *SQLRepository) ExistsByCode(ctx context.Context, shortCode string) (bool, error) {
	var exists bool
	query := r.db.Rebind(`SELECT EXISTS (SELECT 1 FROM url_mappings WHERE short_code = ?)`)

	if err := r.db.GetContext(ctx, &exists, query, shortCode); err != nil {
		return false, fmt.Errorf("failed to check short code: %w", err)
	}

	return exists, nil
}

func (r *SQLRepository) Update(ctx context.Context, url *domain.URL) error {
	query := r.db.Rebind(`
		UPDATE url_mappings
		SET expires_at = ?,
			clicks = ?
		WHERE short_code = ?`)

	result, err := r.db.ExecContext(ctx, query, url.ExpiresAt, url.Clicks, url.ShortCode)
	if err != nil {
		return fmt.Errorf("failed to update URL: %w", err)
	}

	return requireRow(result, url.ShortCode)
}

func (r *SQLRepository) IncrementClicks(ctx context.Context, shortCode string, now time.Time) error {
	query := r.db.Rebind(`
		UPDATE url_mappings
		SET clicks = clicks + 1
		WHERE short_code = ?
		  AND (expires_at IS NULL OR expires_at > ?)`)

	result, err := r.db.ExecContext(ctx, query, shortCode, now)
	if err != nil {
		return fmt.Errorf("failed to increment clicks: %w", err)
	}

	return requireRow(result, shortCode)
}

func (r *SQLRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM url_mappings`); err != nil {
		return 0, fmt.Errorf("failed to count URLs: %w", err)
	}
	return count, nil
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func requireRow(result sql.Result, shortCode string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %q", domain.ErrNotFound, shortCode)
	}

	return nil
}
