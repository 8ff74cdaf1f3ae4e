package usecases

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/orris-inc/tollgate/internal/application/payment/paymentgateway"
	"github.com/orris-inc/tollgate/internal/domain/user"
	apperrors "github.com/orris-inc/tollgate/internal/shared/errors"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

// EnsureCustomerUseCase makes sure the user is linked to a live provider
// customer and returns its ID. Deleted or unknown customers are replaced.
type EnsureCustomerUseCase struct {
	users   user.Repository
	gateway paymentgateway.Gateway
	logger  logger.Interface
}

func NewEnsureCustomerUseCase(users user.Repository, gateway paymentgateway.Gateway, logger logger.Interface) *EnsureCustomerUseCase {
	return &EnsureCustomerUseCase{users: users, gateway: gateway, logger: logger}
}

func (uc *EnsureCustomerUseCase) Execute(ctx context.Context, userID uint) (string, error) {
	u, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		return "", apperrors.NewNotFoundError("user not found")
	}

	if u.HasStripeCustomer() {
		existing := *u.StripeCustomerID()
		customer, err := uc.gateway.GetCustomer(ctx, existing)
		switch {
		case err == nil && !customer.Deleted:
			return existing, nil
		case err == nil || errors.Is(err, paymentgateway.ErrCustomerNotFound):
			uc.logger.Warnw("stripe customer is gone, creating a new one", "user_id", userID, "customer_id", existing)
			if err := uc.users.UpdateStripeCustomerID(ctx, userID, ""); err != nil {
				return "", fmt.Errorf("failed to clear stripe customer: %w", err)
			}
		default:
			uc.logger.Errorw("failed to fetch stripe customer", "user_id", userID, "customer_id", existing, "error", err)
			return "", gatewayError("get customer", err)
		}
	}

	customer, err := uc.gateway.CreateCustomer(ctx, paymentgateway.CreateCustomerRequest{
		Email:       u.Email(),
		Name:        u.Name(),
		Description: "User " + u.SID(),
		Metadata: map[string]string{
			"user_id":  strconv.FormatUint(uint64(u.ID()), 10),
			"user_sid": u.SID(),
		},
	})
	if err != nil {
		uc.logger.Errorw("failed to create stripe customer", "user_id", userID, "error", err)
		return "", gatewayError("create customer", err)
	}

	if err := uc.users.UpdateStripeCustomerID(ctx, userID, customer.ID); err != nil {
		return "", fmt.Errorf("failed to save stripe customer: %w", err)
	}

	uc.logger.Infow("stripe customer created", "user_id", userID, "customer_id", customer.ID)
	return customer.ID, nil
}
