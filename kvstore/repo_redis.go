package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/social-connect/internal/errors"
	"github.com/redis/go-redis/v9"
)

// RedisRepo keeps each browser's storage in a Redis hash so several BFF
// instances can serve the same browser.
type RedisRepo struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ Repo = (*RedisRepo)(nil)

func NewRedisRepo(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisRepo {
	if prefix == "" {
		prefix = "sc:kv"
	}
	return &RedisRepo{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisRepo) redisKey(browserID string) string {
	return fmt.Sprintf("%s:%s", r.prefix, browserID)
}

func (r *RedisRepo) Get(ctx context.Context, browserID, key string) (string, bool, error) {
	if err := validate(browserID, key); err != nil {
		return "", false, err
	}

	value, err := r.client.HGet(ctx, r.redisKey(browserID), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "[RedisRepo Get] %s", key)
	}
	return value, true, nil
}

func (r *RedisRepo) Set(ctx context.Context, browserID, key, value string) error {
	if err := validate(browserID, key); err != nil {
		return err
	}

	redisKey := r.redisKey(browserID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, redisKey, key, value)
		if r.ttl > 0 {
			pipe.Expire(ctx, redisKey, r.ttl)
		}
		return nil
	})
	return errors.Wrapf(err, "[RedisRepo Set] %s", key)
}

func (r *RedisRepo) Delete(ctx context.Context, browserID string, keys ...string) error {
	if browserID == "" {
		return errors.ErrEmptyBrowserID
	}
	if len(keys) == 0 {
		return nil
	}
	return errors.Wrapf(r.client.HDel(ctx, r.redisKey(browserID), keys...).Err(), "[RedisRepo Delete]")
}

func (r *RedisRepo) Clear(ctx context.Context, browserID string) error {
	if browserID == "" {
		return errors.ErrEmptyBrowserID
	}
	return errors.Wrapf(r.client.Del(ctx, r.redisKey(browserID)).Err(), "[RedisRepo Clear]")
}
