// Package cache provides the key/value store used to cache catalog reads.
package cache

import (
	"context"
	"time"

	"loan-compare/internal/config"
)

// Cache stores string values with an expiry. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// New returns a Redis cache when an address is configured, otherwise an in-process cache
func New(cfg config.CacheConfig) Cache {
	if cfg.UsesRedis() {
		return NewRedisCache(cfg)
	}
	return NewMemoryCache()
}
