// Package cache is the read cache in front of public catalog listings.
//
// Entries are keyed by a per-store version number. Invalidate bumps the
// version, which orphans every entry of that store at once; orphaned entries
// expire on their own TTL.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/pkg/metrics"
)

// Lookup is the result of Get. A miss carries the store version it was
// looked up at, and Set writes under that version only.
type Lookup struct {
	Data    []byte
	Hit     bool
	version int64
	valid   bool
}

// Catalog caches serialized catalog listings per store.
type Catalog interface {
	Get(ctx context.Context, storeID, key string) Lookup
	// Set fills the entry a previous Get missed. A fill racing with an
	// Invalidate lands under the orphaned version and is never served.
	Set(ctx context.Context, storeID, key string, at Lookup, data []byte)
	Invalidate(ctx context.Context, storeID string)
}

// Nop is used when no Redis is configured. Every lookup misses.
type Nop struct{}

func (Nop) Get(context.Context, string, string) Lookup { return Lookup{} }

func (Nop) Set(context.Context, string, string, Lookup, []byte) {}

func (Nop) Invalidate(context.Context, string) {}

// client is the subset of redis.Cmdable the cache needs.
type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// Redis is a Catalog backed by Redis. Failures are logged and treated as
// misses; the database stays the source of truth.
type Redis struct {
	client  client
	ttl     time.Duration
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewRedis(c client, ttl time.Duration, log *zap.Logger, m *metrics.Metrics) *Redis {
	return &Redis{client: c, ttl: ttl, log: log, metrics: m}
}

// Connect parses url and returns a client. The connection itself is lazy.
func Connect(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func versionKey(storeID string) string { return "catalog:" + storeID + ":version" }

func entryKey(storeID string, version int64, key string) string {
	return fmt.Sprintf("catalog:%s:v%d:%s", storeID, version, key)
}

func (c *Redis) version(ctx context.Context, storeID string) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(storeID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *Redis) Get(ctx context.Context, storeID, key string) Lookup {
	v, err := c.version(ctx, storeID)
	if err != nil {
		c.fail("version lookup", storeID, err)
		return Lookup{}
	}
	at := Lookup{version: v, valid: true}
	data, err := c.client.Get(ctx, entryKey(storeID, v, key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.count("miss")
		return at
	case err != nil:
		c.fail("get", storeID, err)
		return at
	}
	c.count("hit")
	at.Data, at.Hit = data, true
	return at
}

// Set skips lookups whose version is unknown.
func (c *Redis) Set(ctx context.Context, storeID, key string, at Lookup, data []byte) {
	if !at.valid {
		return
	}
	if err := c.client.Set(ctx, entryKey(storeID, at.version, key), data, c.ttl).Err(); err != nil {
		c.fail("set", storeID, err)
	}
}

// Invalidate implements pipeline.Invalidator.
func (c *Redis) Invalidate(ctx context.Context, storeID string) {
	if err := c.client.Incr(ctx, versionKey(storeID)).Err(); err != nil {
		c.fail("invalidate", storeID, err)
	}
}

func (c *Redis) fail(step, storeID string, err error) {
	c.count("error")
	c.log.Warn("catalog cache "+step+" failed", zap.String("store_id", storeID), zap.Error(err))
}

func (c *Redis) count(result string) {
	if c.metrics != nil {
		c.metrics.CatalogCacheRequests.WithLabelValues(result).Inc()
	}
}
