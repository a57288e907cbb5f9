package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter counts requests per key in fixed windows shared by every instance.
type RedisRateLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

func NewRedisRateLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
	}
}

// Allow increments the counter for key and reports whether it is still within the limit.
// A counter left without a TTL gets one on the next hit, so a failed EXPIRE cannot pin the key.
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := fmt.Sprintf("%s:%s", r.prefix, key)

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	if _, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		ttl = pipe.TTL(ctx, k)
		return nil
	}); err != nil {
		return false, err
	}

	// TTL reports -1 for a key with no expiry
	if ttl.Val() < 0 {
		if err := r.client.Expire(ctx, k, r.window).Err(); err != nil {
			return false, err
		}
	}
	return incr.Val() <= r.limit, nil
}

func (r *RedisRateLimiter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
