package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// KV stores durable values in Redis. Keys never expire; eviction is the caller's job.
type KV struct {
	rdb *redis.Client
}

func New(client *redis.Client) *KV {
	return &KV{rdb: client}
}

func (kv *KV) Get(ctx context.Context, key string) (string, bool, error) {
	s, err := kv.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}

	if err != nil {
		return "", false, err
	}

	return s, true, nil
}

func (kv *KV) Set(ctx context.Context, key, value string) error {
	return kv.rdb.Set(ctx, key, value, 0).Err()
}

func (kv *KV) Delete(ctx context.Context, key string) error {
	return kv.rdb.Del(ctx, key).Err()
}
