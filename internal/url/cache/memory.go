package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps mappings in process. Used when no Redis is configured.
type MemoryCache struct {
	store *gocache.Cache
}

func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &MemoryCache{store: gocache.New(defaultTTL, cleanupInterval)}
}

func (c *MemoryCache) Get(_ context.Context, shortCode string) (string, error) {
	v, ok := c.store.Get(shortCode)
	if !ok {
		return "", nil
	}
	longURL, _ := v.(string)
	return longURL, nil
}

func (c *MemoryCache) Set(_ context.Context, shortCode, longURL string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.store.Set(shortCode, longURL, ttl)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, shortCode string) error {
	c.store.Delete(shortCode)
	return nil
}

func (c *MemoryCache) Len() int {
	return c.store.ItemCount()
}
