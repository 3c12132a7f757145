package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tallycart/tallycart-backend/pkg/logger"
)

// Cache holds materialized cart collections keyed by identity. Read failures
// degrade to misses so the source of truth stays reachable; invalidation
// failures surface to the caller because a stale entry after a write would
// serve wrong carts.
type Cache interface {
	Get(ctx context.Context, key string) ([]Item, bool, error)
	Remember(ctx context.Context, key string, ttl time.Duration, produce func(context.Context) ([]Item, error)) ([]Item, error)
	Forget(ctx context.Context, key string) error
}

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// RedisCache stores cart collections as JSON blobs.
type RedisCache struct {
	store redisStore
	logg  *logger.Logger
}

func NewRedisCache(store redisStore, logg *logger.Logger) (*RedisCache, error) {
	if store == nil {
		return nil, fmt.Errorf("redis store is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &RedisCache{store: store, logg: logg}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]Item, bool, error) {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "cart cache read failed, treating as miss")
		return nil, false, nil
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "cart cache entry corrupt, treating as miss")
		return nil, false, nil
	}
	return items, true, nil
}

// Remember returns the cached collection or materializes it via produce and
// stores the result for ttl. Store failures after a successful produce are
// logged and swallowed; the fresh collection is still returned.
func (c *RedisCache) Remember(ctx context.Context, key string, ttl time.Duration, produce func(context.Context) ([]Item, error)) ([]Item, error) {
	if items, ok, _ := c.Get(ctx, key); ok {
		return items, nil
	}
	items, err := produce(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encoding cart cache entry: %w", err)
	}
	if err := c.store.Set(ctx, key, string(payload), ttl); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "cart cache write failed")
	}
	return items, nil
}

func (c *RedisCache) Forget(ctx context.Context, key string) error {
	if err := c.store.Del(ctx, key); err != nil {
		return fmt.Errorf("invalidating cart cache: %w", err)
	}
	return nil
}
