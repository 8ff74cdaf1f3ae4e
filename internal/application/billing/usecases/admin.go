package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/orris-inc/tollgate/internal/application/billing/dto"
	"github.com/orris-inc/tollgate/internal/domain/billing"
	apperrors "github.com/orris-inc/tollgate/internal/shared/errors"
	"github.com/orris-inc/tollgate/internal/shared/id"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

type GrantCreditsCommand struct {
	UserID  uint
	AdminID uint
	Amount  int64
	Reason  string
}

// GrantCreditsUseCase lets an administrator add credits outside of a
// purchase. Each grant gets its own reference.
type GrantCreditsUseCase struct {
	addCredits *AddCreditsUseCase
	logger     logger.Interface
}

func NewGrantCreditsUseCase(addCredits *AddCreditsUseCase, logger logger.Interface) *GrantCreditsUseCase {
	return &GrantCreditsUseCase{addCredits: addCredits, logger: logger}
}

func (uc *GrantCreditsUseCase) Execute(ctx context.Context, cmd GrantCreditsCommand) (*dto.CreditActionDTO, error) {
	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		reason = "Granted by administrator"
	}
	ref, err := id.NewGrantReference()
	if err != nil {
		return nil, fmt.Errorf("failed to generate grant reference: %w", err)
	}

	action, err := uc.addCredits.Execute(ctx, AddCreditsCommand{
		UserID:    cmd.UserID,
		Amount:    cmd.Amount,
		Reason:    reason,
		Reference: ref,
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("credits granted", "user_id", cmd.UserID, "admin_id", cmd.AdminID, "amount", cmd.Amount, "reference", ref)
	out := dto.ToCreditActionDTO(action)
	return &out, nil
}

// ResetSubscriptionUseCase moves a user back to the default plan without
// touching the provider. It is the only way out of a lifetime plan.
type ResetSubscriptionUseCase struct {
	subs   billing.SubscriptionRepository
	logger logger.Interface
}

func NewResetSubscriptionUseCase(subs billing.SubscriptionRepository, logger logger.Interface) *ResetSubscriptionUseCase {
	return &ResetSubscriptionUseCase{subs: subs, logger: logger}
}

func (uc *ResetSubscriptionUseCase) Execute(ctx context.Context, userID, adminID uint) error {
	sub, err := uc.subs.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return apperrors.NewNotFoundError("subscription not found")
	}

	previous := sub.SubscriptionKey()
	sub.ResetToDefault()
	if err := uc.subs.Update(ctx, sub); err != nil {
		uc.logger.Errorw("failed to reset subscription", "user_id", userID, "error", err)
		return fmt.Errorf("failed to reset subscription: %w", err)
	}

	uc.logger.Infow("subscription reset to default", "user_id", userID, "admin_id", adminID, "previous_key", previous)
	return nil
}
