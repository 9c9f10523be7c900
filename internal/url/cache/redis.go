package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	urlPrefix  = "url:"
	DefaultTTL = 24 * time.Hour
)

type RedisCache struct {
	client     *redis.Client
	defaultTTL time.Duration
}

func NewRedisCache(client *redis.Client, defaultTTL time.Duration) *RedisCache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &RedisCache{client: client, defaultTTL: defaultTTL}
}

func key(shortCode string) string {
	return urlPrefix + shortCode
}

func (c *RedisCache) Get(ctx context.Context, shortCode string) (string, error) {
	val, err := c.client.Get(ctx, key(shortCode)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("cache get error: %w", err)
	}

	return val, nil
}

func (c *RedisCache) Set(ctx context.Context, shortCode, longURL string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	if err := c.client.Set(ctx, key(shortCode), longURL, ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}

	return nil
}

func (c *RedisCache) Delete(ctx context.Context, shortCode string) error {
	if err := c.client.Del(ctx, key(shortCode)).Err(); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}

	return nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
