package settings

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const cacheKey = "catering:settings:v1"

// Cache keeps the settings snapshot in redis so hot paths skip the database.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Fetch returns the cached snapshot, populating it through loader on a miss.
// Concurrent misses share a single loader call, which is detached from the
// first caller's cancellation so the waiters are not failed by it.
func (c *Cache) Fetch(ctx context.Context, loader func(context.Context) (Settings, error)) (Settings, error) {
	if loader == nil {
		return Settings{}, errors.New("settings cache: loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	payload, err := c.client.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var s Settings
		if err := json.Unmarshal(payload, &s); err == nil {
			return s, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return loader(ctx)
	}

	v, err, _ := c.group.Do(cacheKey, func() (interface{}, error) {
		ctx := context.WithoutCancel(ctx)
		s, err := loader(ctx)
		if err != nil {
			return Settings{}, err
		}
		raw, err := json.Marshal(s)
		if err == nil {
			_ = c.client.Set(ctx, cacheKey, raw, c.ttl).Err()
		}
		return s, nil
	})
	if err != nil {
		return Settings{}, err
	}
	return v.(Settings), nil
}

// Invalidate drops the cached snapshot.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, cacheKey).Err()
}
