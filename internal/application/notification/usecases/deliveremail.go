package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/tollgate/internal/application/notification"
	"github.com/orris-inc/tollgate/internal/shared/logger"
	"github.com/orris-inc/tollgate/internal/shared/utils"
)

// DeliverEmailUseCase renders a queued task and hands it to the SMTP sender.
// A returned error tells the queue consumer to retry the task.
type DeliverEmailUseCase struct {
	renderer notification.TemplateRenderer
	sender   notification.Sender
	logger   logger.Interface
}

func NewDeliverEmailUseCase(renderer notification.TemplateRenderer, sender notification.Sender, logger logger.Interface) *DeliverEmailUseCase {
	return &DeliverEmailUseCase{renderer: renderer, sender: sender, logger: logger}
}

func (uc *DeliverEmailUseCase) Execute(ctx context.Context, task notification.EmailTask) error {
	if task.To == "" {
		return fmt.Errorf("email task %s has no recipient", task.ID)
	}

	rendered, err := uc.renderer.Render(task)
	if err != nil {
		return fmt.Errorf("failed to render %s email: %w", task.Template, err)
	}

	if err := uc.sender.Send(ctx, task.To, task.Name, rendered); err != nil {
		return fmt.Errorf("failed to send %s email: %w", task.Template, err)
	}

	uc.logger.Infow("email delivered",
		"task_id", task.ID,
		"template", task.Template,
		"to", utils.MaskEmail(task.To),
		"attempt", task.Attempts+1,
	)
	return nil
}
