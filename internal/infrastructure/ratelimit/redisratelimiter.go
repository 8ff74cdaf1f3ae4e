package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "tollgate:ratelimit:"

// RedisRateLimiter keeps one sorted set of request timestamps per key and
// window.
type RedisRateLimiter struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, now: time.Now}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string, limit Limit) (bool, error) {
	now := l.now()

	windows := []struct {
		duration time.Duration
		max      int
	}{
		{time.Minute, limit.PerMinute},
		{time.Hour, limit.PerHour},
	}

	for _, w := range windows {
		if w.max <= 0 {
			continue
		}
		allowed, err := l.checkWindow(ctx, key, w.duration, w.max, now)
		if err != nil {
			return false, err
		}
		if !allowed {
			return false, nil
		}
	}
	return true, nil
}

// checkWindow records the request only when it fits, so refused calls do
// not extend the block.
func (l *RedisRateLimiter) checkWindow(ctx context.Context, key string, window time.Duration, max int, now time.Time) (bool, error) {
	redisKey := l.windowKey(key, window)
	windowStart := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", windowStart)
	count := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to read rate limit window: %w", err)
	}
	if count.Val() >= int64(max) {
		return false, nil
	}

	pipe = l.client.Pipeline()
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	pipe.Expire(ctx, redisKey, window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to record request: %w", err)
	}
	return true, nil
}

func (l *RedisRateLimiter) Remaining(ctx context.Context, key string, window time.Duration, max int) (int64, error) {
	redisKey := l.windowKey(key, window)
	windowStart := strconv.FormatInt(l.now().Add(-window).UnixNano(), 10)

	used, err := l.client.ZCount(ctx, redisKey, "("+windowStart, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	if left := int64(max) - used; left > 0 {
		return left, nil
	}
	return 0, nil
}

func (l *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	keys := []string{l.windowKey(key, time.Minute), l.windowKey(key, time.Hour)}
	if err := l.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}
	return nil
}

func (l *RedisRateLimiter) windowKey(key string, window time.Duration) string {
	return keyPrefix + key + ":" + window.String()
}
