// Package queue implements the Redis email queue: a ready list consumed
// with BRPOP, a sorted set of delayed retries scored by due time and a
// dead-letter list for tasks that ran out of attempts.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/tollgate/internal/application/notification"
)

const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 60 * time.Second
)

type Options struct {
	Key        string
	MaxRetries int
	RetryDelay time.Duration
}

type EmailQueue struct {
	client     *redis.Client
	readyKey   string
	retryKey   string
	deadKey    string
	maxRetries int
	retryDelay time.Duration
	now        func() time.Time
}

func NewEmailQueue(client *redis.Client, opts Options) *EmailQueue {
	if opts.Key == "" {
		opts.Key = "tollgate:queue:email"
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return &EmailQueue{
		client:     client,
		readyKey:   opts.Key,
		retryKey:   opts.Key + ":retry",
		deadKey:    opts.Key + ":dead",
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		now:        time.Now,
	}
}

func (q *EmailQueue) Enqueue(ctx context.Context, task notification.EmailTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal email task: %w", err)
	}
	if err := q.client.LPush(ctx, q.readyKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue email task: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout and returns nil, nil when nothing arrived.
func (q *EmailQueue) Dequeue(ctx context.Context, timeout time.Duration) (*notification.EmailTask, error) {
	res, err := q.client.BRPop(ctx, timeout, q.readyKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue email task: %w", err)
	}
	// res is [key, value].
	var task notification.EmailTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("failed to decode email task: %w", err)
	}
	return &task, nil
}

// Retry schedules a failed task for another attempt after the retry delay.
// Once the task has used its retries it goes to the dead-letter list and
// false is returned.
func (q *EmailQueue) Retry(ctx context.Context, task notification.EmailTask) (bool, error) {
	if task.Attempts >= q.maxRetries {
		data, err := json.Marshal(task)
		if err != nil {
			return false, fmt.Errorf("failed to marshal email task: %w", err)
		}
		if err := q.client.LPush(ctx, q.deadKey, data).Err(); err != nil {
			return false, fmt.Errorf("failed to dead-letter email task: %w", err)
		}
		return false, nil
	}

	task.Attempts++
	data, err := json.Marshal(task)
	if err != nil {
		return false, fmt.Errorf("failed to marshal email task: %w", err)
	}
	due := q.now().Add(q.retryDelay).Unix()
	if err := q.client.ZAdd(ctx, q.retryKey, redis.Z{Score: float64(due), Member: data}).Err(); err != nil {
		return false, fmt.Errorf("failed to schedule email retry: %w", err)
	}
	return true, nil
}

// PromoteDue moves retries whose due time has passed back onto the ready
// list. ZREM decides ownership, so concurrent promoters never double-queue.
func (q *EmailQueue) PromoteDue(ctx context.Context) (int, error) {
	max := strconv.FormatInt(q.now().Unix(), 10)
	members, err := q.client.ZRangeByScore(ctx, q.retryKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   max,
		Count: 100,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read due retries: %w", err)
	}

	promoted := 0
	for _, m := range members {
		removed, err := q.client.ZRem(ctx, q.retryKey, m).Result()
		if err != nil {
			return promoted, fmt.Errorf("failed to claim retry: %w", err)
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, q.readyKey, m).Err(); err != nil {
			return promoted, fmt.Errorf("failed to requeue retry: %w", err)
		}
		promoted++
	}
	return promoted, nil
}

type Stats struct {
	Ready   int64 `json:"ready"`
	Delayed int64 `json:"delayed"`
	Dead    int64 `json:"dead"`
}

func (q *EmailQueue) Stats(ctx context.Context) (*Stats, error) {
	pipe := q.client.Pipeline()
	ready := pipe.LLen(ctx, q.readyKey)
	delayed := pipe.ZCard(ctx, q.retryKey)
	dead := pipe.LLen(ctx, q.deadKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to read queue stats: %w", err)
	}
	return &Stats{Ready: ready.Val(), Delayed: delayed.Val(), Dead: dead.Val()}, nil
}
