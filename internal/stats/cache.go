package stats

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps JSON snapshots in Redis.  A nil *Cache is valid and caches
// nothing.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewCache returns nil when rdb is nil or ttl is not positive.
func NewCache(rdb *redis.Client, ttl time.Duration, prefix string) *Cache {
	if rdb == nil || ttl <= 0 {
		return nil
	}
	return &Cache{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (c *Cache) key(k string) string { return c.prefix + ":" + k }

// Get decodes the snapshot under key into dst and reports whether one was
// found.
func (c *Cache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}
	b, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores v under key for the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, v interface{}) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(key), b, c.ttl).Err()
}

// Delete removes the given snapshots.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.rdb.Del(ctx, full...).Err()
}
