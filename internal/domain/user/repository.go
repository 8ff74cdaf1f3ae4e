package user

import "context"

// Repository lookups return nil, nil when no user matches.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uint) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*User, error)
	// UpdateStripeCustomerID writes only the customer column; an empty id
	// stores NULL.
	UpdateStripeCustomerID(ctx context.Context, userID uint, customerID string) error
}
