package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/salonsuite/salon-core/internal/domain"
)

// RedisCacheStore implements domain.CacheStore using Redis
type RedisCacheStore struct {
	client *redis.Client
}

// NewRedisCacheStore creates a new Redis cache store
func NewRedisCacheStore(client *redis.Client) *RedisCacheStore {
	return &RedisCacheStore{
		client: client,
	}
}

// Get retrieves the bytes stored under key with OTel tracing
func (r *RedisCacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.Get",
		trace.WithAttributes(attribute.String("cache.key", key)),
	)
	defer span.End()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			span.SetAttributes(attribute.String("cache.result", "miss"))
			return nil, domain.ErrCacheMiss
		}
		span.RecordError(err)
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	span.SetAttributes(attribute.String("cache.result", "hit"))
	return data, nil
}

// Set stores value under key with TTL and OTel tracing. A zero TTL keeps the
// key until it is removed.
func (r *RedisCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.Set",
		trace.WithAttributes(
			attribute.String("cache.key", key),
			attribute.Int64("cache.ttl_seconds", int64(ttl.Seconds())),
		),
	)
	defer span.End()

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis set error: %w", err)
	}

	return nil
}

// Remove deletes keys with OTel tracing
func (r *RedisCacheStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.Remove",
		trace.WithAttributes(attribute.Int("cache.key_count", len(keys))),
	)
	defer span.End()

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis delete error: %w", err)
	}

	return nil
}

// KeysByPrefix enumerates keys starting with prefix (use sparingly - O(N))
func (r *RedisCacheStore) KeysByPrefix(ctx context.Context, prefix string) ([]string, error) {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.KeysByPrefix",
		trace.WithAttributes(attribute.String("cache.prefix", prefix)),
	)
	defer span.End()

	keys, err := r.client.Keys(ctx, prefix+"*").Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("redis keys error: %w", err)
	}

	span.SetAttributes(attribute.Int("cache.matched_keys", len(keys)))
	return keys, nil
}
