package mappers

import (
	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/infrastructure/persistence/models"
)

func SubscriptionToModel(s *billing.Subscription) *models.SubscriptionModel {
	return &models.SubscriptionModel{
		ID:                     s.ID(),
		UserID:                 s.UserID(),
		SubscriptionKey:        s.SubscriptionKey(),
		ExternalSubscriptionID: s.ExternalSubscriptionID(),
		ExternalStatus:         s.ExternalStatus(),
		Starts:                 s.Starts(),
		CurrentPeriodStart:     s.CurrentPeriodStart(),
		CurrentPeriodEnd:       s.CurrentPeriodEnd(),
		CancelAtPeriodEnd:      s.CancelAtPeriodEnd(),
		Lifetime:               s.Lifetime(),
		CreatedAt:              s.CreatedAt(),
		UpdatedAt:              s.UpdatedAt(),
	}
}

func SubscriptionToDomain(m *models.SubscriptionModel) (*billing.Subscription, error) {
	return billing.ReconstructSubscriptionWithParams(billing.SubscriptionReconstructParams{
		ID:                     m.ID,
		UserID:                 m.UserID,
		SubscriptionKey:        m.SubscriptionKey,
		ExternalSubscriptionID: m.ExternalSubscriptionID,
		ExternalStatus:         m.ExternalStatus,
		Starts:                 m.Starts,
		CurrentPeriodStart:     m.CurrentPeriodStart,
		CurrentPeriodEnd:       m.CurrentPeriodEnd,
		CancelAtPeriodEnd:      m.CancelAtPeriodEnd,
		Lifetime:               m.Lifetime,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	})
}
