package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bolao/api/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Config holds Redis connection settings
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// RedisCache is a JSON cache over Redis. A nil or disconnected cache
// reports every lookup as a miss and drops writes.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to Redis and pings it once
func NewRedisCache(cfg Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisCache{client: client, prefix: "bolao:"}, nil
}

// Available reports whether the cache is backed by a live client
func (c *RedisCache) Available() bool {
	return c != nil && c.client != nil
}

// Get decodes the cached value for key into dest. The bool is false on a miss.
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.Available() {
		return false, nil
	}

	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheMiss()
		return false, nil
	}
	if err != nil {
		metrics.RecordError("cache", "get")
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}

	if err := json.Unmarshal(val, dest); err != nil {
		metrics.RecordError("cache", "decode")
		return false, fmt.Errorf("failed to decode cache key %s: %w", key, err)
	}

	metrics.RecordCacheHit()
	return true, nil
}

// Set stores value as JSON under key for ttl
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.Available() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache key %s: %w", key, err)
	}

	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		metrics.RecordError("cache", "set")
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}

	log.Debug().Str("key", key).Dur("ttl", ttl).Msg("Cache entry stored")
	return nil
}

// Delete removes key from the cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if !c.Available() {
		return nil
	}
	return c.client.Del(ctx, c.prefix+key).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	if !c.Available() {
		return nil
	}
	return c.client.Close()
}
