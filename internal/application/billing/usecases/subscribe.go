package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/tollgate/internal/application/billing/dto"
	"github.com/orris-inc/tollgate/internal/application/payment/paymentgateway"
	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/domain/catalog"
	"github.com/orris-inc/tollgate/internal/shared/biztime"
	apperrors "github.com/orris-inc/tollgate/internal/shared/errors"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

// customerEnsurer is satisfied by EnsureCustomerUseCase.
type customerEnsurer interface {
	Execute(ctx context.Context, userID uint) (string, error)
}

type SubscribeCommand struct {
	UserID  uint
	PlanKey string
}

// SubscribeUseCase starts a hosted checkout for a plan. Recurring plans use
// subscription mode, lifetime plans a one-time payment.
type SubscribeUseCase struct {
	catalog   *catalog.Catalog
	subs      billing.SubscriptionRepository
	customers customerEnsurer
	gateway   paymentgateway.Gateway
	urls      CheckoutURLs
	logger    logger.Interface
}

func NewSubscribeUseCase(
	cat *catalog.Catalog,
	subs billing.SubscriptionRepository,
	customers customerEnsurer,
	gateway paymentgateway.Gateway,
	urls CheckoutURLs,
	logger logger.Interface,
) *SubscribeUseCase {
	return &SubscribeUseCase{
		catalog:   cat,
		subs:      subs,
		customers: customers,
		gateway:   gateway,
		urls:      urls,
		logger:    logger,
	}
}

func (uc *SubscribeUseCase) Execute(ctx context.Context, cmd SubscribeCommand) (*dto.CheckoutDTO, error) {
	plan, ok := uc.catalog.PlanByKey(cmd.PlanKey)
	if !ok {
		return nil, apperrors.NewNotFoundError("plan not found", cmd.PlanKey)
	}
	if !plan.Purchasable() {
		return nil, apperrors.NewValidationError("plan cannot be purchased", cmd.PlanKey)
	}

	sub, err := uc.subs.GetByUserID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub != nil && sub.EffectiveKey(biztime.NowUnix()) == plan.Key {
		return nil, apperrors.NewConflictError("already subscribed to this plan", plan.Key)
	}

	customerID, err := uc.customers.Execute(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	mode := paymentgateway.CheckoutModeSubscription
	if plan.Lifetime {
		mode = paymentgateway.CheckoutModePayment
	}

	session, err := uc.gateway.CreateCheckoutSession(ctx, paymentgateway.CreateCheckoutRequest{
		CustomerID: customerID,
		PriceID:    plan.StripePriceID,
		Quantity:   1,
		Mode:       mode,
		SuccessURL: uc.urls.SuccessURL,
		CancelURL:  uc.urls.CancelURL,
	})
	if err != nil {
		uc.logger.Errorw("failed to create checkout session", "user_id", cmd.UserID, "plan", plan.Key, "error", err)
		return nil, gatewayError("create checkout session", err)
	}

	uc.logger.Infow("subscription checkout created",
		"user_id", cmd.UserID,
		"plan", plan.Key,
		"mode", mode,
		"session_id", session.ID,
	)
	return &dto.CheckoutDTO{SessionID: session.ID, CheckoutURL: session.URL}, nil
}
