package cache

import (
	"context"
	"errors"
	"time"
)

// LayeredCache fronts the shared Redis cache with a small in-process one.
// Writes go through to both layers; a Redis hit is promoted into memory
// with a short TTL so repeated lookups stay local.
type LayeredCache struct {
	mem   *MemoryCache
	redis *RedisCache
}

var _ Service = (*LayeredCache)(nil)

const promoteTTL = time.Minute

func NewLayeredCache(redisCache *RedisCache) *LayeredCache {
	return &LayeredCache{
		mem:   NewMemoryCache(),
		redis: redisCache,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := lc.redis.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	_ = lc.mem.Set(ctx, key, value, ttl)
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.mem.Get(ctx, key, dest); err == nil {
		return nil
	} else if !errors.Is(err, ErrCacheMiss) {
		return err
	}

	if err := lc.redis.Get(ctx, key, dest); err != nil {
		return err
	}
	_ = lc.mem.Set(ctx, key, dest, promoteTTL)
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.mem.Delete(ctx, keys...)
	return lc.redis.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, key string) (bool, error) {
	if ok, err := lc.mem.Exists(ctx, key); err == nil && ok {
		return true, nil
	}
	return lc.redis.Exists(ctx, key)
}

func (lc *LayeredCache) Close() error {
	_ = lc.mem.Close()
	return lc.redis.Close()
}
