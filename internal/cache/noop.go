package cache

import (
	"context"
	"time"
)

// NoOpCache is a cache implementation that does nothing.
// Used when CACHE_PROVIDER=none or Redis is unavailable: every lookup misses.
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) GetLetter(ctx context.Context, key string) (*Letter, error) {
	return nil, nil
}

func (c *NoOpCache) SetLetter(ctx context.Context, key string, letter *Letter, ttl time.Duration) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}
