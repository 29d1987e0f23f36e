package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV stores values in Redis, each expiring ttl after it was written,
// for web deployments that run more than one instance.
type RedisKV struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisKV creates a Redis-backed KV. Keys are stored as prefix+key.
func NewRedisKV(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisKV {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisKV{client: client, prefix: prefix, ttl: ttl}
}

// Get implements KV
func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

// Set implements KV
func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete implements KV
func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
