package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/orris-inc/tollgate/internal/application/notification"
	"github.com/orris-inc/tollgate/internal/shared/logger"
	"github.com/orris-inc/tollgate/internal/shared/utils"
)

// TaskHandler processes one task. A non-nil error schedules a retry.
type TaskHandler func(ctx context.Context, task notification.EmailTask) error

type Consumer struct {
	queue       *EmailQueue
	handle      TaskHandler
	pollTimeout time.Duration
	logger      logger.Interface
}

func NewConsumer(queue *EmailQueue, handle TaskHandler, pollTimeout time.Duration, logger logger.Interface) *Consumer {
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	return &Consumer{queue: queue, handle: handle, pollTimeout: pollTimeout, logger: logger}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	c.logger.Infow("email consumer started", "poll_timeout", c.pollTimeout)
	for {
		if ctx.Err() != nil {
			c.logger.Infow("email consumer stopped")
			return
		}

		task, err := c.queue.Dequeue(ctx, c.pollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				continue
			}
			c.logger.Errorw("failed to dequeue email task", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		if task == nil {
			continue
		}

		c.process(ctx, *task)
	}
}

func (c *Consumer) process(ctx context.Context, task notification.EmailTask) {
	err := c.safeHandle(ctx, task)
	if err == nil {
		return
	}

	// Retry bookkeeping must survive shutdown.
	retryCtx := context.WithoutCancel(ctx)
	scheduled, qerr := c.queue.Retry(retryCtx, task)
	switch {
	case qerr != nil:
		c.logger.Errorw("failed to reschedule email task", "task_id", task.ID, "error", qerr, "cause", err)
	case scheduled:
		c.logger.Warnw("email task failed, retry scheduled",
			"task_id", task.ID,
			"template", task.Template,
			"attempt", task.Attempts+1,
			"error", err)
	default:
		c.logger.Errorw("email task exhausted retries",
			"task_id", task.ID,
			"template", task.Template,
			"to", utils.MaskEmail(task.To),
			"error", err)
	}
}

func (c *Consumer) safeHandle(ctx context.Context, task notification.EmailTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorw("email handler panicked",
				"task_id", task.ID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()))
			err = fmt.Errorf("email handler panicked: %v", r)
		}
	}()
	return c.handle(ctx, task)
}
