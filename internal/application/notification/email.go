// Package notification defines the transactional email port. Billing code
// enqueues EmailTasks; the worker renders and sends them.
package notification

import (
	"context"
	"time"
)

type Template string

const (
	TemplateCreditsPurchased      Template = "credits_purchased"
	TemplateCancellationRequested Template = "cancellation_requested"
	TemplateSubscriptionEnded     Template = "subscription_ended"
)

// EmailTask is the queued unit of work. Data is template specific.
type EmailTask struct {
	ID         string            `json:"id"`
	Template   Template          `json:"template"`
	To         string            `json:"to"`
	Name       string            `json:"name,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	Attempts   int               `json:"attempts"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
}

// Enqueuer accepts tasks for asynchronous delivery.
type Enqueuer interface {
	Enqueue(ctx context.Context, task EmailTask) error
}

// RenderedEmail is the output of a TemplateRenderer.
type RenderedEmail struct {
	Subject  string
	TextBody string
	HTMLBody string
}

type TemplateRenderer interface {
	Render(task EmailTask) (*RenderedEmail, error)
}

type Sender interface {
	Send(ctx context.Context, to, name string, email *RenderedEmail) error
}
