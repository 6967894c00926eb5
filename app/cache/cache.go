package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"postpanel/app/models"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/go-redis/redis/v8"
)

// KeyPrefix namespaces every cache key.
const KeyPrefix = "postpanel:options:"

// OptionsCache holds preloaded select options keyed by relation name.
type OptionsCache interface {
	Get(ctx context.Context, key string) ([]models.Option, bool, error)
	Set(ctx context.Context, key string, options []models.Option) error
	Invalidate(ctx context.Context, key string) error
}

// RedisOptionsCache stores options as JSON strings in redis.
type RedisOptionsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisOptionsCache stores entries through client; ttl 0 keeps them until invalidated.
func NewRedisOptionsCache(client *redis.Client, ttl time.Duration) *RedisOptionsCache {
	return &RedisOptionsCache{client: client, ttl: ttl}
}

// Dial connects to redis and checks the connection with PING.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// Get returns the cached options; a miss is not an error.
func (c *RedisOptionsCache) Get(ctx context.Context, key string) ([]models.Option, bool, error) {
	data, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var options []models.Option
	if err := json.Unmarshal(data, &options); err != nil {
		return nil, false, err
	}
	return options, true, nil
}

// Set stores options as JSON with the cache TTL.
func (c *RedisOptionsCache) Set(ctx context.Context, key string, options []models.Option) error {
	data, err := json.Marshal(options)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, KeyPrefix+key, data, c.ttl).Err()
}

// Invalidate drops key.
func (c *RedisOptionsCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, KeyPrefix+key).Err()
}

// MemoryOptionsCache keeps options in process memory, backed by ristretto.
type MemoryOptionsCache struct {
	cache *ristretto.Cache[string, []models.Option]
	ttl   time.Duration
}

// NewMemoryOptionsCache creates a cache whose entries expire after ttl; ttl <= 0 never expires.
func NewMemoryOptionsCache(ttl time.Duration) (*MemoryOptionsCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []models.Option]{
		NumCounters: 1000,
		MaxCost:     1 << 16,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	if ttl < 0 {
		ttl = 0
	}
	return &MemoryOptionsCache{cache: c, ttl: ttl}, nil
}

// Get returns a copy of the cached options.
func (c *MemoryOptionsCache) Get(_ context.Context, key string) ([]models.Option, bool, error) {
	options, ok := c.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]models.Option(nil), options...), true, nil
}

// Set stores a copy of options. Ristretto applies writes asynchronously, so Set waits
// for the buffer to drain before returning.
func (c *MemoryOptionsCache) Set(_ context.Context, key string, options []models.Option) error {
	c.cache.SetWithTTL(key, append([]models.Option(nil), options...), int64(len(options))+1, c.ttl)
	c.cache.Wait()
	return nil
}

// Invalidate drops key.
func (c *MemoryOptionsCache) Invalidate(_ context.Context, key string) error {
	c.cache.Del(key)
	return nil
}

// Close stops the cache's background goroutines.
func (c *MemoryOptionsCache) Close() {
	c.cache.Close()
}
