package repository

import (
	"context"
	"time"

	"github.com/umanagarjuna/linkshort/internal/url/domain"
)

// Repository is the durable store of short code mappings. Lookups return
// (nil, nil) when nothing matches.
type Repository interface {
	// Insert fails with domain.ErrConflict when the short code is taken.
	Insert(ctx context.Context, url *domain.URL) error
	FindByCode(ctx context.Context, shortCode string) (*domain.URL, error)
	// FindByLongURL returns the most recently created mapping for longURL.
	FindByLongURL(ctx context.Context, longURL string) (*domain.URL, error)
	ExistsByCode(ctx context.Context, shortCode string) (bool, error)
	// Update persists clicks and expiration; domain.ErrNotFound when absent.
	Update(ctx context.Context, url *domain.URL) error
	// IncrementClicks adds one click to an unexpired mapping; domain.ErrNotFound
	// when the mapping is absent or expired at now.
	IncrementClicks(ctx context.Context, shortCode string, now time.Time) error
	Count(ctx context.Context) (int64, error)
	Migrate(ctx context.Context) error
}
