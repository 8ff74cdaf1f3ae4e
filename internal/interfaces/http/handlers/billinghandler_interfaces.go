package handlers

import (
	"context"

	"github.com/orris-inc/tollgate/internal/application/billing/dto"
	"github.com/orris-inc/tollgate/internal/application/billing/usecases"
)

// Use case interfaces for BillingHandler

type getBillingOverviewUseCase interface {
	Execute(ctx context.Context, userID uint) (*dto.BillingOverviewDTO, error)
}

type subscribeUseCase interface {
	Execute(ctx context.Context, cmd usecases.SubscribeCommand) (*dto.CheckoutDTO, error)
}

type cancelSubscriptionUseCase interface {
	Execute(ctx context.Context, userID uint) (bool, error)
}

type purchaseCreditsUseCase interface {
	Execute(ctx context.Context, cmd usecases.PurchaseCreditsCommand) (*dto.CheckoutDTO, error)
}

type consumeCreditsUseCase interface {
	Execute(ctx context.Context, cmd usecases.ConsumeCreditsCommand) (*dto.ConsumeCreditsDTO, error)
}

type listInvoicesUseCase interface {
	Execute(ctx context.Context, userID uint, page, pageSize int) (*dto.ListResult[dto.InvoiceDTO], error)
}

type listCreditActionsUseCase interface {
	Execute(ctx context.Context, userID uint, page, pageSize int) (*dto.ListResult[dto.CreditActionDTO], error)
}
