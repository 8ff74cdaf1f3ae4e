package ratelimit

import (
	"context"
	"time"
)

// Limit caps requests per key in sliding windows. Zero disables a window.
type Limit struct {
	PerMinute int
	PerHour   int
}

func (l Limit) Enabled() bool {
	return l.PerMinute > 0 || l.PerHour > 0
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit Limit) (bool, error)
	Remaining(ctx context.Context, key string, window time.Duration, max int) (int64, error)
	Reset(ctx context.Context, key string) error
}
