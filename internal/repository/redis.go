package repository

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const suppressionKeyPrefix = "push:endpoint:suppressed:"

// RedisRepository marks provider endpoints the push provider has rejected so
// fan-outs stop publishing to them before the next graph sweep.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRepository(client *redis.Client, ttl time.Duration) *RedisRepository {
	return &RedisRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

// IsEndpointSuppressed returns true if the endpoint ARN is currently marked
// as rejected.
func (r *RedisRepository) IsEndpointSuppressed(ctx context.Context, arn string) (bool, error) {
	exists, err := r.client.Exists(ctx, suppressionKeyPrefix+arn).Result()
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

// SuppressEndpoint marks an endpoint ARN as rejected with a TTL.
func (r *RedisRepository) SuppressEndpoint(ctx context.Context, arn string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.ttl
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return r.client.SetEX(ctx, suppressionKeyPrefix+arn, "1", ttl).Err()
}
