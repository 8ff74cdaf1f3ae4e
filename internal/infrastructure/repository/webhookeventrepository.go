package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/tollgate/internal/infrastructure/persistence/models"
	"github.com/orris-inc/tollgate/internal/shared/db"
	apperrors "github.com/orris-inc/tollgate/internal/shared/errors"
)

// WebhookEventRepository implements billing.EventLog.
type WebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

func (r *WebhookEventRepository) Get(ctx context.Context, eventID string) (*billing.ProcessedEvent, error) {
	var model models.WebhookEventModel
	if err := db.GetTxFromContext(ctx, r.db).Where("event_id = ?", eventID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get webhook event: %w", err)
	}
	return mappers.WebhookEventToDomain(&model), nil
}

func (r *WebhookEventRepository) RecordReceived(ctx context.Context, eventID, eventType string, payload []byte) error {
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	model := &models.WebhookEventModel{
		EventID:  eventID,
		Type:     eventType,
		Payload:  datatypes.JSON(payload),
		Status:   string(billing.EventStatusReceived),
		Attempts: 1,
	}

	tx := db.GetTxFromContext(ctx, r.db)
	redelivered, err := r.bumpAttempts(tx, eventID, payload)
	if err != nil || redelivered {
		return err
	}

	if err := tx.Create(model).Error; err != nil {
		if !apperrors.IsDuplicateError(err) {
			return fmt.Errorf("failed to record webhook event: %w", err)
		}
		// Lost an insert race with a concurrent delivery.
		_, err = r.bumpAttempts(tx, eventID, payload)
		return err
	}
	return nil
}

func (r *WebhookEventRepository) bumpAttempts(tx *gorm.DB, eventID string, payload []byte) (bool, error) {
	result := tx.Model(&models.WebhookEventModel{}).
		Where("event_id = ?", eventID).
		Updates(map[string]any{
			"status":     string(billing.EventStatusReceived),
			"payload":    datatypes.JSON(payload),
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update webhook event: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, eventID string) error {
	now := time.Now().UTC()
	return r.updateStatus(ctx, eventID, map[string]any{
		"status":       string(billing.EventStatusProcessed),
		"last_error":   "",
		"processed_at": &now,
		"updated_at":   now,
	})
}

func (r *WebhookEventRepository) MarkFailed(ctx context.Context, eventID, lastError string) error {
	return r.updateStatus(ctx, eventID, map[string]any{
		"status":     string(billing.EventStatusFailed),
		"last_error": lastError,
		"updated_at": time.Now().UTC(),
	})
}

func (r *WebhookEventRepository) updateStatus(ctx context.Context, eventID string, fields map[string]any) error {
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.WebhookEventModel{}).
		Where("event_id = ?", eventID).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update webhook event %s: %w", eventID, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("webhook event not found", eventID)
	}
	return nil
}

func (r *WebhookEventRepository) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := db.GetTxFromContext(ctx, r.db).
		Where("status = ? AND processed_at < ?", string(billing.EventStatusProcessed), cutoff).
		Delete(&models.WebhookEventModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune webhook events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
