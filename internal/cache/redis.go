package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key prefix for cached letters
const cacheKeyPrefix = "letter:"

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache client and verifies the connection.
func NewRedisCache(addr, password string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisCache{
		client: client,
	}, nil
}

func (c *RedisCache) GetLetter(ctx context.Context, key string) (*Letter, error) {
	data, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}

	var letter Letter
	if err := json.Unmarshal(data, &letter); err != nil {
		return nil, err
	}
	return &letter, nil
}

func (c *RedisCache) SetLetter(ctx context.Context, key string, letter *Letter, ttl time.Duration) error {
	data, err := json.Marshal(letter)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKeyPrefix+key, data, ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
