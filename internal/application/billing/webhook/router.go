// Package webhook reconciles local billing state from verified payment
// provider events.
package webhook

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/orris-inc/tollgate/internal/application/payment/paymentgateway"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

// HandlerFunc reacts to one event. It must be safe to run again for the
// same event.
type HandlerFunc func(ctx context.Context, event *paymentgateway.Event) error

// Registration binds a named handler to an event type.
type Registration struct {
	EventType string
	Name      string
	Handle    HandlerFunc
}

// Metrics receives per-event and per-handler outcomes.
type Metrics interface {
	EventProcessed(eventType, outcome string)
	HandlerRun(handler, outcome string)
}

type noopMetrics struct{}

func (noopMetrics) EventProcessed(string, string) {}
func (noopMetrics) HandlerRun(string, string)     {}

const (
	handlerOK    = "ok"
	handlerError = "error"
	handlerPanic = "panic"
)

// HandlerError is what Dispatch reports for a failed handler.
type HandlerError struct {
	Handler string
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s: %v", e.Handler, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Router dispatches events to the handlers registered for their type, in
// registration order.
type Router struct {
	handlers map[string][]Registration
	metrics  Metrics
	logger   logger.Interface
}

func NewRouter(registrations []Registration, metrics Metrics, logger logger.Interface) *Router {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	r := &Router{
		handlers: make(map[string][]Registration),
		metrics:  metrics,
		logger:   logger,
	}
	for _, reg := range registrations {
		r.handlers[reg.EventType] = append(r.handlers[reg.EventType], reg)
	}
	return r
}

// Handles reports whether any handler is registered for eventType.
func (r *Router) Handles(eventType string) bool {
	return len(r.handlers[eventType]) > 0
}

// Dispatch runs every handler for the event. A failing or panicking handler
// is logged and reported but does not stop the ones after it.
func (r *Router) Dispatch(ctx context.Context, event *paymentgateway.Event) []error {
	var errs []error
	for _, reg := range r.handlers[event.Type] {
		if err := r.run(ctx, reg, event); err != nil {
			errs = append(errs, &HandlerError{Handler: reg.Name, Err: err})
		}
	}
	return errs
}

func (r *Router) run(ctx context.Context, reg Registration, event *paymentgateway.Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.HandlerRun(reg.Name, handlerPanic)
			r.logger.Errorw("webhook handler panicked",
				"handler", reg.Name,
				"event_id", event.ID,
				"event_type", event.Type,
				"panic", fmt.Sprintf("%v", rec),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	if err := reg.Handle(ctx, event); err != nil {
		r.metrics.HandlerRun(reg.Name, handlerError)
		r.logger.Errorw("webhook handler failed",
			"handler", reg.Name,
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err,
		)
		return err
	}

	r.metrics.HandlerRun(reg.Name, handlerOK)
	return nil
}
