// Package cache provides the optional search-response cache. Keys are
// canonical serialized queries, so two textually different but equivalent
// search strings share one entry.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// Cache stores rendered search responses for a short TTL. Implementations
// must treat every failure as a miss; search correctness never depends on
// the cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Redis is a rueidis-backed cache.
type Redis struct {
	client rueidis.Client
}

// NewRedis connects a Redis cache.
func NewRedis(addrs []string, password string) (*Redis, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  addrs,
		Password:     password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cache client: %w", err)
	}
	return &Redis{client: client}, nil
}

// Get retrieves a cached response. Any error, including a missing key,
// reports a miss.
func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	cmd := c.client.B().Get().Key(key).Build()
	data, err := c.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores a response with an expiration. Failures are dropped; the next
// request recomputes.
func (c *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	cmd := c.client.B().Set().Key(key).Value(string(value)).Ex(ttl).Build()
	_ = c.client.Do(ctx, cmd).Error()
}

// Close shuts down the client.
func (c *Redis) Close() {
	c.client.Close()
}

// Noop is the cache used when no Redis address is configured.
type Noop struct{}

// Get always misses.
func (Noop) Get(context.Context, string) ([]byte, bool) { return nil, false }

// Set drops the value.
func (Noop) Set(context.Context, string, []byte, time.Duration) {}
