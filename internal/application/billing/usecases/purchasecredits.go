package usecases

import (
	"context"

	"github.com/orris-inc/tollgate/internal/application/billing/dto"
	"github.com/orris-inc/tollgate/internal/application/payment/paymentgateway"
	"github.com/orris-inc/tollgate/internal/domain/catalog"
	apperrors "github.com/orris-inc/tollgate/internal/shared/errors"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

type PurchaseCreditsCommand struct {
	UserID     uint
	PackageKey string
}

// PurchaseCreditsUseCase starts a one-time checkout for a credit package.
// Credits are granted by the checkout.session.completed webhook.
type PurchaseCreditsUseCase struct {
	catalog   *catalog.Catalog
	customers customerEnsurer
	gateway   paymentgateway.Gateway
	urls      CheckoutURLs
	logger    logger.Interface
}

func NewPurchaseCreditsUseCase(
	cat *catalog.Catalog,
	customers customerEnsurer,
	gateway paymentgateway.Gateway,
	urls CheckoutURLs,
	logger logger.Interface,
) *PurchaseCreditsUseCase {
	return &PurchaseCreditsUseCase{
		catalog:   cat,
		customers: customers,
		gateway:   gateway,
		urls:      urls,
		logger:    logger,
	}
}

func (uc *PurchaseCreditsUseCase) Execute(ctx context.Context, cmd PurchaseCreditsCommand) (*dto.CheckoutDTO, error) {
	pkg, ok := uc.catalog.CreditPackageByKey(cmd.PackageKey)
	if !ok {
		return nil, apperrors.NewNotFoundError("credit package not found", cmd.PackageKey)
	}

	customerID, err := uc.customers.Execute(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	session, err := uc.gateway.CreateCheckoutSession(ctx, paymentgateway.CreateCheckoutRequest{
		CustomerID: customerID,
		PriceID:    pkg.StripePriceID,
		Quantity:   1,
		Mode:       paymentgateway.CheckoutModePayment,
		SuccessURL: uc.urls.SuccessURL,
		CancelURL:  uc.urls.CancelURL,
	})
	if err != nil {
		uc.logger.Errorw("failed to create checkout session", "user_id", cmd.UserID, "package", pkg.Key, "error", err)
		return nil, gatewayError("create checkout session", err)
	}

	uc.logger.Infow("credits checkout created", "user_id", cmd.UserID, "package", pkg.Key, "session_id", session.ID)
	return &dto.CheckoutDTO{SessionID: session.ID, CheckoutURL: session.URL}, nil
}
