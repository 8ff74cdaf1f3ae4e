package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/orris-inc/tollgate/internal/application/billing/dto"
	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/domain/user"
	apperrors "github.com/orris-inc/tollgate/internal/shared/errors"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

type ConsumeCreditsCommand struct {
	UserID    uint
	Amount    int64
	Action    string
	Reference string
}

type ConsumeCreditsUseCase struct {
	ledger  billing.CreditLedger
	users   user.Repository
	metrics CreditMetrics
	logger  logger.Interface
}

func NewConsumeCreditsUseCase(ledger billing.CreditLedger, users user.Repository, metrics CreditMetrics, logger logger.Interface) *ConsumeCreditsUseCase {
	if metrics == nil {
		metrics = noopCreditMetrics{}
	}
	return &ConsumeCreditsUseCase{ledger: ledger, users: users, metrics: metrics, logger: logger}
}

// Execute debits the balance when it covers the amount. Insufficient funds
// is not an error: the result has Consumed=false and the unchanged balance.
func (uc *ConsumeCreditsUseCase) Execute(ctx context.Context, cmd ConsumeCreditsCommand) (*dto.ConsumeCreditsDTO, error) {
	if cmd.Amount <= 0 {
		return nil, apperrors.NewValidationError("amount must be positive")
	}
	debit := string(billing.DirectionDebit)

	action, ok, err := uc.ledger.ConsumeCredits(ctx, cmd.UserID, cmd.Amount, cmd.Action, cmd.Reference)
	switch {
	case errors.Is(err, billing.ErrDuplicateCreditReference):
		uc.metrics.CreditMutation(debit, OutcomeDuplicate)
		return nil, apperrors.NewConflictError("request already processed", cmd.Reference)
	case errors.Is(err, billing.ErrUserNotFound):
		uc.metrics.CreditMutation(debit, OutcomeError)
		return nil, apperrors.NewNotFoundError("user not found")
	case err != nil:
		uc.metrics.CreditMutation(debit, OutcomeError)
		uc.logger.Errorw("failed to consume credits", "user_id", cmd.UserID, "amount", cmd.Amount, "error", err)
		return nil, fmt.Errorf("failed to consume credits: %w", err)
	}

	if ok {
		uc.metrics.CreditMutation(debit, OutcomeApplied)
		uc.logger.Debugw("credits consumed", "user_id", cmd.UserID, "amount", cmd.Amount, "action", cmd.Action)
		return &dto.ConsumeCreditsDTO{Consumed: true, Balance: action.CreditsAfter()}, nil
	}

	uc.metrics.CreditMutation(debit, OutcomeInsufficient)
	u, err := uc.users.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		return nil, apperrors.NewNotFoundError("user not found")
	}
	return &dto.ConsumeCreditsDTO{Consumed: false, Balance: u.CreditsBalance()}, nil
}
