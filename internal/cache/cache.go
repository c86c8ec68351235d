// Package cache stores parsed rosters in Redis, keyed by a digest of the
// source bytes, so unchanged exports are not parsed twice.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Options configures the cache client.
type Options struct {
	URL         string
	TTL         time.Duration
	KeyPrefix   string
	PoolSize    int
	DialTimeout time.Duration
}

// Cache is a Redis-backed JSON cache. A nil *Cache is valid and behaves as
// an always-missing cache, so callers need no Redis-specific branches.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// New connects to Redis. It returns nil, nil when opts.URL is empty.
func New(ctx context.Context, opts Options) (*Cache, error) {
	if opts.URL == "" {
		return nil, nil
	}

	ro, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, eris.Wrap(err, "cache: parse redis url")
	}
	if opts.PoolSize > 0 {
		ro.PoolSize = opts.PoolSize
	}
	if opts.DialTimeout > 0 {
		ro.DialTimeout = opts.DialTimeout
	}

	client := redis.NewClient(ro)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrap(err, "cache: ping redis")
	}

	return NewWithClient(client, opts.TTL, opts.KeyPrefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, ttl time.Duration, prefix string) *Cache {
	return &Cache{client: client, ttl: ttl, prefix: prefix}
}

// Key derives a cache key from a namespace and the given byte slices.
func Key(namespace string, parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0})
	}
	return namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// Get decodes the value stored under key into dst. It reports false on a
// miss.
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil {
		return false, nil
	}
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "cache: get %s", key)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, eris.Wrapf(err, "cache: decode %s", key)
	}
	zap.L().Debug("cache hit", zap.String("component", "cache"), zap.String("key", key))
	return true, nil
}

// Set stores v under key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, v any) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "cache: encode %s", key)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return eris.Wrapf(err, "cache: set %s", key)
	}
	return nil
}

// Health pings Redis.
func (c *Cache) Health(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return eris.Wrap(c.client.Ping(ctx).Err(), "cache: ping redis")
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
