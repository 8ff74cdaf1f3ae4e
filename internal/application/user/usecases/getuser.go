package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/tollgate/internal/application/user/dto"
	"github.com/orris-inc/tollgate/internal/domain/billing"
	domainUser "github.com/orris-inc/tollgate/internal/domain/user"
	"github.com/orris-inc/tollgate/internal/shared/biztime"
	"github.com/orris-inc/tollgate/internal/shared/errors"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

// GetUserUseCase handles the business logic for retrieving a user
type GetUserUseCase struct {
	userRepo domainUser.Repository
	subs     billing.SubscriptionRepository
	logger   logger.Interface
}

// NewGetUserUseCase creates a new get user use case
func NewGetUserUseCase(userRepo domainUser.Repository, subs billing.SubscriptionRepository, logger logger.Interface) *GetUserUseCase {
	return &GetUserUseCase{
		userRepo: userRepo,
		subs:     subs,
		logger:   logger,
	}
}

// Execute retrieves a user by internal ID together with its subscription
func (uc *GetUserUseCase) Execute(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	if userID == 0 {
		return nil, errors.NewValidationError("user ID cannot be zero")
	}

	userEntity, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		uc.logger.Errorw("failed to get user", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if userEntity == nil {
		uc.logger.Warnw("user not found", "user_id", userID)
		return nil, errors.NewNotFoundError("user not found")
	}

	sub, err := uc.subs.GetByUserID(ctx, userID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return dto.ToUserResponse(userEntity, sub, biztime.NowUnix()), nil
}
