package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*RedisRateLimiter, *time.Time) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRedisRateLimiter(client)
	limiter.now = func() time.Time { return now }
	return limiter, &now
}

func TestRedisRateLimiter_PerMinute(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()
	limit := Limit{PerMinute: 3}

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "user:1", limit)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(ctx, "user:1", limit)
	require.NoError(t, err)
	assert.False(t, allowed)

	remaining, err := limiter.Remaining(ctx, "user:1", time.Minute, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(0), remaining)
}

func TestRedisRateLimiter_WindowSlides(t *testing.T) {
	limiter, now := newTestLimiter(t)
	ctx := context.Background()
	limit := Limit{PerMinute: 1}

	allowed, err := limiter.Allow(ctx, "user:1", limit)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "user:1", limit)
	require.NoError(t, err)
	require.False(t, allowed)

	*now = now.Add(61 * time.Second)
	allowed, err = limiter.Allow(ctx, "user:1", limit)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_HourWindowBlocks(t *testing.T) {
	limiter, now := newTestLimiter(t)
	ctx := context.Background()
	limit := Limit{PerMinute: 5, PerHour: 2}

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "user:1", limit)
		require.NoError(t, err)
		require.True(t, allowed)
		*now = now.Add(2 * time.Minute)
	}

	allowed, err := limiter.Allow(ctx, "user:1", limit)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRedisRateLimiter_KeysAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()
	limit := Limit{PerMinute: 1}

	allowed, err := limiter.Allow(ctx, "user:1", limit)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "user:2", limit)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_Reset(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()
	limit := Limit{PerMinute: 1}

	_, err := limiter.Allow(ctx, "user:1", limit)
	require.NoError(t, err)
	require.NoError(t, limiter.Reset(ctx, "user:1"))

	allowed, err := limiter.Allow(ctx, "user:1", limit)
	require.NoError(t, err)
	assert.True(t, allowed)

	remaining, err := limiter.Remaining(ctx, "user:1", time.Minute, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), remaining)
}

func TestLimit_Enabled(t *testing.T) {
	assert.False(t, Limit{}.Enabled())
	assert.True(t, Limit{PerHour: 1}.Enabled())
}
