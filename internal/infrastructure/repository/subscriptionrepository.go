package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/tollgate/internal/infrastructure/persistence/models"
	"github.com/orris-inc/tollgate/internal/shared/db"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) GetByUserID(ctx context.Context, userID uint) (*billing.Subscription, error) {
	var model models.SubscriptionModel
	if err := db.GetTxFromContext(ctx, r.db).Where("user_id = ?", userID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return mappers.SubscriptionToDomain(&model)
}

// EnsureExists inserts the default row with ON CONFLICT DO NOTHING so that
// concurrent callers end up reading the same row.
func (r *SubscriptionRepository) EnsureExists(ctx context.Context, userID uint) (*billing.Subscription, error) {
	sub, err := billing.NewDefaultSubscription(userID)
	if err != nil {
		return nil, err
	}
	model := mappers.SubscriptionToModel(sub)

	if err := db.GetTxFromContext(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(model).Error; err != nil {
		return nil, fmt.Errorf("failed to create default subscription: %w", err)
	}

	stored, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, billing.ErrSubscriptionNotFound
	}
	return stored, nil
}

func (r *SubscriptionRepository) Update(ctx context.Context, sub *billing.Subscription) error {
	model := mappers.SubscriptionToModel(sub)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.SubscriptionModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"subscription_key":         model.SubscriptionKey,
			"external_subscription_id": model.ExternalSubscriptionID,
			"external_status":          model.ExternalStatus,
			"starts":                   model.Starts,
			"current_period_start":     model.CurrentPeriodStart,
			"current_period_end":       model.CurrentPeriodEnd,
			"cancel_at_period_end":     model.CancelAtPeriodEnd,
			"lifetime":                 model.Lifetime,
			"updated_at":               model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}
	return nil
}
