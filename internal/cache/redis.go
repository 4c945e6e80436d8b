// Package cache keeps the per-department registration counts in Redis so
// the departments listing does not scan the students table on every load.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aanand-mishra/registration-api/internal/config"
)

// DefaultKey is the hash holding department -> count.
const DefaultKey = "registration:department_counts"

// Counts is a Redis-backed department count cache.
type Counts struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// New connects to the Redis server in cfg and pings it.
func New(ctx context.Context, cfg config.Cache) (*Counts, error) {
	if cfg.RedisAddr == "" {
		return nil, errors.New("cache.New: redis address is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache.New: ping: %w", err)
	}

	return NewWithClient(client, DefaultKey, cfg.TTL), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client redis.UniversalClient, key string, ttl time.Duration) *Counts {
	return &Counts{client: client, key: key, ttl: ttl}
}

// Get returns the cached counts. A missing or expired key is a miss.
func (c *Counts) Get(ctx context.Context) (map[string]int, bool, error) {
	raw, err := c.client.HGetAll(ctx, c.key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("cache.Get: %w", err)
	}
	if len(raw) == 0 {
		return nil, false, nil
	}

	counts := make(map[string]int, len(raw))
	for department, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, false, fmt.Errorf("cache.Get: bad count for %q: %w", department, err)
		}
		counts[department] = n
	}
	return counts, true, nil
}

// Set replaces the cached counts atomically and re-arms the TTL.
func (c *Counts) Set(ctx context.Context, counts map[string]int) error {
	values := make(map[string]any, len(counts))
	for department, n := range counts {
		values[department] = n
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.key)
		if len(values) > 0 {
			pipe.HSet(ctx, c.key, values)
		}
		if c.ttl > 0 {
			pipe.Expire(ctx, c.key, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache.Set: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (c *Counts) Close() error {
	return c.client.Close()
}
