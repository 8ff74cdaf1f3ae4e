package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

// EnsureSubscriptionUseCase seeds the default subscription for a user. It is
// safe to call repeatedly and joins the caller's transaction when there is one.
type EnsureSubscriptionUseCase struct {
	subs   billing.SubscriptionRepository
	logger logger.Interface
}

func NewEnsureSubscriptionUseCase(subs billing.SubscriptionRepository, logger logger.Interface) *EnsureSubscriptionUseCase {
	return &EnsureSubscriptionUseCase{subs: subs, logger: logger}
}

func (uc *EnsureSubscriptionUseCase) Execute(ctx context.Context, userID uint) (*billing.Subscription, error) {
	sub, err := uc.subs.EnsureExists(ctx, userID)
	if err != nil {
		uc.logger.Errorw("failed to ensure subscription", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to ensure subscription: %w", err)
	}
	return sub, nil
}
