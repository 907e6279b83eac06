package throttle

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

const (
	attemptsKeyPrefix = "gophauth:login:attempts:"
	lockKeyPrefix     = "gophauth:login:lock:"
)

// RedisLimiter shares attempt state between server instances through Redis.
type RedisLimiter struct {
	rdb    redis.UniversalClient
	policy Policy
}

func NewRedisLimiter(rdb redis.UniversalClient, p Policy) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, policy: p}
}

// NewRedisClient builds a client from a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, oops.In("throttle").Code("REDIS_URL_INVALID").Wrapf(err, "parse redis url")
	}
	return redis.NewClient(opt), nil
}

func attemptsKey(key string) string { return attemptsKeyPrefix + key }
func lockKey(key string) string     { return lockKeyPrefix + key }

func (r *RedisLimiter) Check(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := r.rdb.PTTL(ctx, lockKey(key)).Result()
	if err != nil {
		return 0, oops.In("throttle").Code("REDIS_CHECK_FAILED").With("key", key).Wrap(err)
	}
	// -2 missing, -1 no expiry; neither counts as locked
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

func (r *RedisLimiter) RecordFailure(ctx context.Context, key string) (int, error) {
	ak := attemptsKey(key)

	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, ak)
	pipe.ExpireNX(ctx, ak, r.policy.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, oops.In("throttle").Code("REDIS_RECORD_FAILED").With("key", key).Wrap(err)
	}

	count := int(incr.Val())
	if count < r.policy.MaxAttempts {
		return r.policy.MaxAttempts - count, nil
	}

	pipe = r.rdb.TxPipeline()
	pipe.Set(ctx, lockKey(key), 1, r.policy.LockFor)
	pipe.Del(ctx, ak)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, oops.In("throttle").Code("REDIS_LOCK_FAILED").With("key", key).Wrap(err)
	}
	return 0, nil
}

func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, attemptsKey(key), lockKey(key)).Err(); err != nil {
		return oops.In("throttle").Code("REDIS_RESET_FAILED").With("key", key).Wrap(err)
	}
	return nil
}
