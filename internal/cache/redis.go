// Package cache wraps the Redis client behind the small surface the
// stats service needs. A nil *Client is a valid, disabled cache: every
// Get misses and every Set is a no-op.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	coreerrors "github.com/chatinsight/insight-bot/internal/core/errors"
)

// Client is a thin wrapper over a shared Redis connection.
type Client struct {
	rdb *redis.Client
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// New connects to Redis and verifies the connection with a ping.
// An empty Addr returns (nil, nil): caching is disabled.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.Addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Get returns the value stored under key, or ErrCacheMiss when the key
// is absent or expired, or ErrCacheDisabled on a nil client.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c == nil {
		return "", coreerrors.ErrCacheDisabled
	}

	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", coreerrors.ErrCacheMiss
		}

		return "", fmt.Errorf("cache get %q: %w", key, err)
	}

	return val, nil
}

// Set stores value under key with the given TTL. No-op on a nil client.
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if c == nil {
		return nil
	}

	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}

	return nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}

	return c.rdb.Close()
}
