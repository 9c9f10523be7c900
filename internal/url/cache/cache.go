package cache

import (
	"context"
	"time"
)

// Cache is a best-effort lookup layer from short code to long URL. It is never
// authoritative; the repository is.
type Cache interface {
	// Get returns "" with a nil error on a miss.
	Get(ctx context.Context, shortCode string) (string, error)
	// Set stores longURL for ttl; ttl <= 0 means the cache's default TTL.
	Set(ctx context.Context, shortCode, longURL string, ttl time.Duration) error
	Delete(ctx context.Context, shortCode string) error
}

// NoopCache disables caching: every Get misses.
type NoopCache struct{}

func NewNoopCache() NoopCache { return NoopCache{} }

func (NoopCache) Get(context.Context, string) (string, error)              { return "", nil }
func (NoopCache) Set(context.Context, string, string, time.Duration) error { return nil }
func (NoopCache) Delete(context.Context, string) error                     { return nil }
