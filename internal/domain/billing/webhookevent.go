package billing

import (
	"context"
	"time"
)

type EventStatus string

const (
	EventStatusReceived  EventStatus = "received"
	EventStatusProcessed EventStatus = "processed"
	EventStatusFailed    EventStatus = "failed"
)

// ProcessedEvent is one row of the webhook event log, keyed by the provider
// event ID.
type ProcessedEvent struct {
	EventID     string
	Type        string
	Payload     []byte
	Status      EventStatus
	LastError   string
	Attempts    int
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (e *ProcessedEvent) IsProcessed() bool {
	return e.Status == EventStatusProcessed
}

// EventLog returns nil, nil from Get for unknown event IDs.
type EventLog interface {
	Get(ctx context.Context, eventID string) (*ProcessedEvent, error)
	// RecordReceived inserts the event or, for a redelivery, bumps its
	// attempt counter and resets the status to received.
	RecordReceived(ctx context.Context, eventID, eventType string, payload []byte) error
	MarkProcessed(ctx context.Context, eventID string) error
	MarkFailed(ctx context.Context, eventID, lastError string) error
	// DeleteProcessedBefore prunes processed rows and returns how many were removed.
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
