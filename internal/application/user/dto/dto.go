package dto

import (
	"time"

	billingdto "github.com/orris-inc/tollgate/internal/application/billing/dto"
	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/domain/user"
)

// CreateUserRequest is the input for creating a billing user.
type CreateUserRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required"`
}

// UserResponse is the public view of a user with its billing summary.
type UserResponse struct {
	ID               string                      `json:"id"`
	Email            string                      `json:"email"`
	Name             string                      `json:"name"`
	StripeCustomerID *string                     `json:"stripe_customer_id"`
	CreditsBalance   int64                       `json:"credits_balance"`
	Subscription     *billingdto.SubscriptionDTO `json:"subscription,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
}

// ToUserResponse maps a user and, when present, its subscription evaluated
// at now.
func ToUserResponse(u *user.User, sub *billing.Subscription, now int64) *UserResponse {
	return &UserResponse{
		ID:               u.SID(),
		Email:            u.Email(),
		Name:             u.Name(),
		StripeCustomerID: u.StripeCustomerID(),
		CreditsBalance:   u.CreditsBalance(),
		Subscription:     billingdto.ToSubscriptionDTO(sub, now),
		CreatedAt:        u.CreatedAt(),
	}
}
