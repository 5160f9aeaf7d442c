package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache stores catalog entries in redis.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

const keyPrefix = "shapesweeper:catalog:"

// Cached is a read-through cache in front of another catalog. Cache
// failures are logged and the underlying catalog answers instead; lookup
// errors are never cached.
type Cached struct {
	next   Catalog
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewCached(logger *slog.Logger, next Catalog, cache Cache, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (c *Cached) Maps(ctx context.Context) ([]Map, error) {
	var maps []Map
	if c.lookup(ctx, keyPrefix+"maps", &maps) {
		return maps, nil
	}
	maps, err := c.next.Maps(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, keyPrefix+"maps", maps)
	return maps, nil
}

func (c *Cached) Map(ctx context.Context, name string) (*Map, error) {
	key := keyPrefix + "map:" + strings.ToLower(strings.TrimSpace(name))
	var m Map
	if c.lookup(ctx, key, &m) {
		return &m, nil
	}
	found, err := c.next.Map(ctx, name)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, found)
	return found, nil
}

func (c *Cached) lookup(ctx context.Context, key string, v any) bool {
	b, err := c.cache.Get(ctx, key)
	if errors.Is(err, ErrCacheMiss) {
		c.logger.Debug("catalog cache miss", slog.String("key", key))
		return false
	}
	if err != nil {
		c.logger.Warn("unable to read catalog cache", slog.String("key", key), slog.Any("error", err))
		return false
	}
	if err := json.Unmarshal(b, v); err != nil {
		c.logger.Warn("malformed catalog cache entry", slog.String("key", key), slog.Any("error", err))
		return false
	}
	return true
}

func (c *Cached) store(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("unable to marshal catalog entry", slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := c.cache.Set(ctx, key, b, c.ttl); err != nil {
		c.logger.Warn("unable to write catalog cache", slog.String("key", key), slog.Any("error", err))
	}
}
