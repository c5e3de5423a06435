package vibecache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "nekoai:vibe:"

// Redis is a nekoai.VibeCache backed by a shared Redis instance, so
// multiple proxy replicas reuse each other's encoded vibe tokens.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps an existing Redis client. Entries expire after ttl; zero
// means they never expire.
func New(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
	}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	encoded, err := r.client.Get(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return encoded, true, nil
}

func (r *Redis) Set(ctx context.Context, key, encoded string) error {
	return r.client.Set(ctx, keyPrefix+key, encoded, r.ttl).Err()
}
