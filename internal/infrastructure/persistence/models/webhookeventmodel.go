package models

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookEventModel is the processed-event log keyed by provider event ID.
type WebhookEventModel struct {
	EventID     string         `gorm:"primaryKey;size:255"`
	Type        string         `gorm:"size:128;not null;index"`
	Payload     datatypes.JSON `gorm:"not null"`
	Status      string         `gorm:"size:16;not null;index:idx_webhook_status_processed,priority:1"`
	LastError   string         `gorm:"type:text"`
	Attempts    int            `gorm:"not null;default:0"`
	ProcessedAt *time.Time     `gorm:"index:idx_webhook_status_processed,priority:2"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (WebhookEventModel) TableName() string {
	return "processed_webhook_events"
}
