package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/orris-inc/tollgate/internal/domain/billing"
	apperrors "github.com/orris-inc/tollgate/internal/shared/errors"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

type AddCreditsCommand struct {
	UserID uint
	Amount int64
	Reason string
	// Reference is an optional idempotency key, e.g. the provider event ID.
	Reference string
}

type AddCreditsUseCase struct {
	ledger  billing.CreditLedger
	metrics CreditMetrics
	logger  logger.Interface
}

func NewAddCreditsUseCase(ledger billing.CreditLedger, metrics CreditMetrics, logger logger.Interface) *AddCreditsUseCase {
	if metrics == nil {
		metrics = noopCreditMetrics{}
	}
	return &AddCreditsUseCase{ledger: ledger, metrics: metrics, logger: logger}
}

// Execute returns billing.ErrDuplicateCreditReference unchanged when the
// reference was already applied so callers can skip follow-up work.
func (uc *AddCreditsUseCase) Execute(ctx context.Context, cmd AddCreditsCommand) (*billing.CreditAction, error) {
	if cmd.Amount <= 0 {
		return nil, apperrors.NewValidationError("amount must be positive")
	}

	action, err := uc.ledger.AddCredits(ctx, cmd.UserID, cmd.Amount, cmd.Reason, cmd.Reference)
	switch {
	case errors.Is(err, billing.ErrDuplicateCreditReference):
		uc.metrics.CreditMutation(string(billing.DirectionCredit), OutcomeDuplicate)
		uc.logger.Infow("credit reference already applied", "user_id", cmd.UserID, "reference", cmd.Reference)
		return nil, err
	case errors.Is(err, billing.ErrUserNotFound):
		uc.metrics.CreditMutation(string(billing.DirectionCredit), OutcomeError)
		return nil, apperrors.NewNotFoundError("user not found")
	case err != nil:
		uc.metrics.CreditMutation(string(billing.DirectionCredit), OutcomeError)
		uc.logger.Errorw("failed to add credits", "user_id", cmd.UserID, "amount", cmd.Amount, "error", err)
		return nil, fmt.Errorf("failed to add credits: %w", err)
	}

	uc.metrics.CreditMutation(string(billing.DirectionCredit), OutcomeApplied)
	uc.logger.Infow("credits added",
		"user_id", cmd.UserID,
		"amount", cmd.Amount,
		"credits_after", action.CreditsAfter(),
		"reference", cmd.Reference,
	)
	return action, nil
}
