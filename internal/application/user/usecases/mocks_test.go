package usecases

import (
	"context"

	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/domain/user"
)

type mockUserRepository struct {
	CreateFunc                 func(ctx context.Context, u *user.User) error
	GetByIDFunc                func(ctx context.Context, id uint) (*user.User, error)
	GetByEmailFunc             func(ctx context.Context, email string) (*user.User, error)
	GetByStripeCustomerIDFunc  func(ctx context.Context, customerID string) (*user.User, error)
	UpdateStripeCustomerIDFunc func(ctx context.Context, userID uint, customerID string) error
}

func (m *mockUserRepository) Create(ctx context.Context, u *user.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, u)
	}
	u.SetID(1)
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uint) (*user.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*user.User, error) {
	if m.GetByStripeCustomerIDFunc != nil {
		return m.GetByStripeCustomerIDFunc(ctx, customerID)
	}
	return nil, nil
}

func (m *mockUserRepository) UpdateStripeCustomerID(ctx context.Context, userID uint, customerID string) error {
	if m.UpdateStripeCustomerIDFunc != nil {
		return m.UpdateStripeCustomerIDFunc(ctx, userID, customerID)
	}
	return nil
}

type mockSubscriptionRepository struct {
	GetByUserIDFunc func(ctx context.Context, userID uint) (*billing.Subscription, error)
}

func (m *mockSubscriptionRepository) GetByUserID(ctx context.Context, userID uint) (*billing.Subscription, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockSubscriptionRepository) EnsureExists(ctx context.Context, userID uint) (*billing.Subscription, error) {
	return billing.NewDefaultSubscription(userID)
}

func (m *mockSubscriptionRepository) Update(ctx context.Context, sub *billing.Subscription) error {
	return nil
}

type seederFunc func(ctx context.Context, userID uint) (*billing.Subscription, error)

func (f seederFunc) Execute(ctx context.Context, userID uint) (*billing.Subscription, error) {
	return f(ctx, userID)
}

type provisionerFunc func(ctx context.Context, userID uint) (string, error)

func (f provisionerFunc) Execute(ctx context.Context, userID uint) (string, error) {
	return f(ctx, userID)
}

// txRecorder runs fn directly and remembers whether it was used.
type txRecorder struct {
	calls int
}

func (t *txRecorder) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}
