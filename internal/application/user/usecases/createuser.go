package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/orris-inc/tollgate/internal/application/user/dto"
	"github.com/orris-inc/tollgate/internal/domain/billing"
	domainUser "github.com/orris-inc/tollgate/internal/domain/user"
	"github.com/orris-inc/tollgate/internal/shared/biztime"
	"github.com/orris-inc/tollgate/internal/shared/db"
	apperrors "github.com/orris-inc/tollgate/internal/shared/errors"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

// SubscriptionSeeder creates the default subscription for a new user.
type SubscriptionSeeder interface {
	Execute(ctx context.Context, userID uint) (*billing.Subscription, error)
}

// CustomerProvisioner links a user to a payment provider customer.
type CustomerProvisioner interface {
	Execute(ctx context.Context, userID uint) (string, error)
}

// CreateUserUseCase handles the business logic for creating a user
type CreateUserUseCase struct {
	userRepo  domainUser.Repository
	seeder    SubscriptionSeeder
	customers CustomerProvisioner // Optional, can be nil
	txRunner  db.TxRunner
	logger    logger.Interface
}

// NewCreateUserUseCase creates a new create user use case
func NewCreateUserUseCase(
	userRepo domainUser.Repository,
	seeder SubscriptionSeeder,
	customers CustomerProvisioner,
	txRunner db.TxRunner,
	logger logger.Interface,
) *CreateUserUseCase {
	return &CreateUserUseCase{
		userRepo:  userRepo,
		seeder:    seeder,
		customers: customers,
		txRunner:  txRunner,
		logger:    logger,
	}
}

// Execute creates the user and its default subscription in one transaction,
// then provisions the provider customer. Provisioning failures are logged
// and do not fail the call; the customer is created again before checkout.
func (uc *CreateUserUseCase) Execute(ctx context.Context, request dto.CreateUserRequest) (*dto.UserResponse, error) {
	uc.logger.Infow("executing create user use case", "email", request.Email)

	userEntity, err := domainUser.NewUser(request.Email, request.Name)
	if err != nil {
		if errors.Is(err, domainUser.ErrInvalidEmail) {
			return nil, apperrors.NewValidationError("invalid email", request.Email)
		}
		return nil, apperrors.NewValidationError(err.Error())
	}

	// Check if user already exists
	existing, err := uc.userRepo.GetByEmail(ctx, userEntity.Email())
	if err != nil {
		uc.logger.Errorw("database error while checking for existing user", "email", userEntity.Email(), "error", err)
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		uc.logger.Warnw("user with email already exists", "email", userEntity.Email())
		return nil, apperrors.NewConflictError("user with this email already exists", userEntity.Email())
	}

	var sub *billing.Subscription
	err = uc.txRunner.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.userRepo.Create(txCtx, userEntity); err != nil {
			if errors.Is(err, domainUser.ErrEmailTaken) {
				return apperrors.NewConflictError("user with this email already exists", userEntity.Email())
			}
			return fmt.Errorf("failed to save user: %w", err)
		}
		var err error
		sub, err = uc.seeder.Execute(txCtx, userEntity.ID())
		if err != nil {
			return fmt.Errorf("failed to create default subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to persist user", "email", userEntity.Email(), "error", err)
		return nil, err
	}

	uc.logger.Infow("user created successfully", "id", userEntity.SID(), "user_id", userEntity.ID())

	// Provision the payment customer outside the transaction
	if uc.customers != nil {
		if _, err := uc.customers.Execute(ctx, userEntity.ID()); err != nil {
			uc.logger.Warnw("failed to provision stripe customer", "user_id", userEntity.ID(), "error", err)
		} else if refreshed, err := uc.userRepo.GetByID(ctx, userEntity.ID()); err == nil && refreshed != nil {
			userEntity = refreshed
		}
	}

	return dto.ToUserResponse(userEntity, sub, biztime.NowUnix()), nil
}
