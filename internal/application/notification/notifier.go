package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/orris-inc/tollgate/internal/shared/logger"
)

// Notifier enqueues best-effort emails. Enqueue failures are logged and
// dropped; a nil queue disables email entirely.
type Notifier struct {
	queue  Enqueuer
	logger logger.Interface
}

func NewNotifier(queue Enqueuer, logger logger.Interface) *Notifier {
	return &Notifier{queue: queue, logger: logger}
}

func (n *Notifier) Notify(ctx context.Context, to, name string, tpl Template, data map[string]string) {
	if n == nil || n.queue == nil || to == "" {
		return
	}
	task := EmailTask{
		ID:         uuid.NewString(),
		Template:   tpl,
		To:         to,
		Name:       name,
		Data:       data,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := n.queue.Enqueue(ctx, task); err != nil {
		n.logger.Warnw("failed to enqueue email", "template", tpl, "task_id", task.ID, "error", err)
	}
}
