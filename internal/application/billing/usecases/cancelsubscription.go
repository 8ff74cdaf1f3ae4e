package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/tollgate/internal/application/notification"
	"github.com/orris-inc/tollgate/internal/application/payment/paymentgateway"
	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/domain/user"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

// CancelSubscriptionUseCase asks the provider to stop renewing the user's
// subscription. Local state changes only when the resulting
// customer.subscription.updated event arrives.
type CancelSubscriptionUseCase struct {
	subs     billing.SubscriptionRepository
	users    user.Repository
	gateway  paymentgateway.Gateway
	notifier *notification.Notifier
	logger   logger.Interface
}

func NewCancelSubscriptionUseCase(
	subs billing.SubscriptionRepository,
	users user.Repository,
	gateway paymentgateway.Gateway,
	emails notification.Enqueuer,
	logger logger.Interface,
) *CancelSubscriptionUseCase {
	return &CancelSubscriptionUseCase{
		subs:     subs,
		users:    users,
		gateway:  gateway,
		notifier: notification.NewNotifier(emails, logger),
		logger:   logger,
	}
}

// Execute returns false when there is no provider subscription to cancel.
func (uc *CancelSubscriptionUseCase) Execute(ctx context.Context, userID uint) (bool, error) {
	sub, err := uc.subs.GetByUserID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil || sub.ExternalSubscriptionID() == nil {
		return false, nil
	}

	externalID := *sub.ExternalSubscriptionID()
	if err := uc.gateway.CancelAtPeriodEnd(ctx, externalID); err != nil {
		uc.logger.Errorw("failed to cancel subscription at provider",
			"user_id", userID, "subscription_id", externalID, "error", err)
		return false, gatewayError("cancel subscription", err)
	}

	uc.logger.Infow("subscription cancellation requested", "user_id", userID, "subscription_id", externalID)

	u, err := uc.users.GetByID(ctx, userID)
	if err != nil || u == nil {
		uc.logger.Warnw("failed to load user for cancellation email", "user_id", userID, "error", err)
		return true, nil
	}
	data := map[string]string{"plan": sub.SubscriptionKey()}
	if sub.CurrentPeriodEnd() > 0 {
		data["period_end"] = fmt.Sprintf("%d", sub.CurrentPeriodEnd())
	}
	uc.notifier.Notify(ctx, u.Email(), u.Name(), notification.TemplateCancellationRequested, data)

	return true, nil
}
