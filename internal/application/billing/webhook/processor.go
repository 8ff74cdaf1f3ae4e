package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orris-inc/tollgate/internal/application/payment/paymentgateway"
	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

// Outcome is the processor's verdict on one delivery.
type Outcome string

const (
	OutcomeInvalid   Outcome = "invalid"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeInFlight  Outcome = "in_flight"
	OutcomeProcessed Outcome = "processed"
	OutcomeFailed    Outcome = "failed"
)

// EventLock serializes concurrent deliveries of the same event. Acquire
// returns acquired=false when another delivery holds the lock.
type EventLock interface {
	Acquire(ctx context.Context, eventID string) (release func(), acquired bool, err error)
}

// NoopLock always grants the lock. It is used when Redis is not configured.
type NoopLock struct{}

func (NoopLock) Acquire(context.Context, string) (func(), bool, error) {
	return func() {}, true, nil
}

type Result struct {
	EventID string
	Type    string
	Outcome Outcome
}

// Processor verifies a delivery, deduplicates it against the event log and
// dispatches it.
type Processor struct {
	verifier paymentgateway.WebhookVerifier
	router   *Router
	events   billing.EventLog
	lock     EventLock
	metrics  Metrics
	logger   logger.Interface
}

func NewProcessor(
	verifier paymentgateway.WebhookVerifier,
	router *Router,
	events billing.EventLog,
	lock EventLock,
	metrics Metrics,
	logger logger.Interface,
) *Processor {
	if lock == nil {
		lock = NoopLock{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Processor{
		verifier: verifier,
		router:   router,
		events:   events,
		lock:     lock,
		metrics:  metrics,
		logger:   logger,
	}
}

// Process returns an error wrapping paymentgateway.ErrInvalidSignature or
// ErrInvalidPayload for rejected deliveries, and a plain error when the
// event log is unavailable. Handler failures are not errors: they yield
// OutcomeFailed and are recorded for the provider's retry.
func (p *Processor) Process(ctx context.Context, payload []byte, signature string) (*Result, error) {
	event, err := p.verifier.ParseWebhook(payload, signature)
	if err != nil {
		p.metrics.EventProcessed("unknown", string(OutcomeInvalid))
		p.logger.Warnw("rejected webhook delivery", "error", err)
		return &Result{Outcome: OutcomeInvalid}, err
	}

	result := &Result{EventID: event.ID, Type: event.Type}
	finish := func(o Outcome) (*Result, error) {
		result.Outcome = o
		p.metrics.EventProcessed(event.Type, string(o))
		return result, nil
	}

	if !p.router.Handles(event.Type) {
		p.logger.Debugw("ignoring unhandled webhook event", "event_id", event.ID, "event_type", event.Type)
		return finish(OutcomeIgnored)
	}

	release, acquired, err := p.lock.Acquire(ctx, event.ID)
	switch {
	case err != nil:
		p.logger.Warnw("event lock unavailable, processing without it", "event_id", event.ID, "error", err)
	case !acquired:
		p.logger.Infow("event already being processed", "event_id", event.ID, "event_type", event.Type)
		return finish(OutcomeInFlight)
	default:
		defer release()
	}

	existing, err := p.events.Get(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up event: %w", err)
	}
	if existing != nil && existing.IsProcessed() {
		p.logger.Infow("duplicate webhook event", "event_id", event.ID, "event_type", event.Type)
		return finish(OutcomeDuplicate)
	}
	if err := p.events.RecordReceived(ctx, event.ID, event.Type, event.Payload); err != nil {
		return nil, fmt.Errorf("failed to record event: %w", err)
	}

	// Handlers run to completion even if the provider drops the connection.
	dispatchCtx := context.WithoutCancel(ctx)
	started := time.Now()
	errs := p.router.Dispatch(dispatchCtx, event)

	if len(errs) > 0 {
		joined := errors.Join(errs...)
		if err := p.events.MarkFailed(dispatchCtx, event.ID, joined.Error()); err != nil {
			p.logger.Errorw("failed to mark event failed", "event_id", event.ID, "error", err)
		}
		p.logger.Warnw("webhook event failed",
			"event_id", event.ID,
			"event_type", event.Type,
			"failed_handlers", len(errs),
			"duration", time.Since(started),
			"error", joined,
		)
		return finish(OutcomeFailed)
	}

	if err := p.events.MarkProcessed(dispatchCtx, event.ID); err != nil {
		p.logger.Errorw("failed to mark event processed", "event_id", event.ID, "error", err)
	}
	p.logger.Infow("webhook event processed",
		"event_id", event.ID,
		"event_type", event.Type,
		"duration", time.Since(started),
	)
	return finish(OutcomeProcessed)
}
