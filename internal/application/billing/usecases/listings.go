package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/tollgate/internal/application/billing/dto"
	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

type ListInvoicesUseCase struct {
	invoices billing.InvoiceRepository
	logger   logger.Interface
}

func NewListInvoicesUseCase(invoices billing.InvoiceRepository, logger logger.Interface) *ListInvoicesUseCase {
	return &ListInvoicesUseCase{invoices: invoices, logger: logger}
}

// Execute lists the user's invoices newest first.
func (uc *ListInvoicesUseCase) Execute(ctx context.Context, userID uint, page, pageSize int) (*dto.ListResult[dto.InvoiceDTO], error) {
	rows, total, err := uc.invoices.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		uc.logger.Errorw("failed to list invoices", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return &dto.ListResult[dto.InvoiceDTO]{
		Items:    dto.ToInvoiceDTOs(rows),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

type ListCreditActionsUseCase struct {
	ledger billing.CreditLedger
	logger logger.Interface
}

func NewListCreditActionsUseCase(ledger billing.CreditLedger, logger logger.Interface) *ListCreditActionsUseCase {
	return &ListCreditActionsUseCase{ledger: ledger, logger: logger}
}

// Execute lists the user's credit history newest first.
func (uc *ListCreditActionsUseCase) Execute(ctx context.Context, userID uint, page, pageSize int) (*dto.ListResult[dto.CreditActionDTO], error) {
	rows, total, err := uc.ledger.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		uc.logger.Errorw("failed to list credit actions", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list credit actions: %w", err)
	}
	return &dto.ListResult[dto.CreditActionDTO]{
		Items:    dto.ToCreditActionDTOs(rows),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}
