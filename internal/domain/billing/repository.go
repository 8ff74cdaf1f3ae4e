package billing

import "context"

// SubscriptionRepository persists the one-per-user Subscription.
// GetByUserID returns nil, nil when the user has none.
type SubscriptionRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*Subscription, error)
	// EnsureExists inserts a default subscription unless one exists and
	// returns the stored row.
	EnsureExists(ctx context.Context, userID uint) (*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error
}

// CreditLedger applies balance mutations. Each call updates users.credits_balance
// and appends a CreditAction in one transaction.
type CreditLedger interface {
	// AddCredits returns ErrDuplicateCreditReference when reference is
	// non-empty and already recorded.
	AddCredits(ctx context.Context, userID uint, amount int64, reason, reference string) (*CreditAction, error)
	// ConsumeCredits returns false with no mutation when the balance is
	// below amount.
	ConsumeCredits(ctx context.Context, userID uint, amount int64, action, reference string) (*CreditAction, bool, error)
	ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]*CreditAction, int64, error)
}

type InvoiceRepository interface {
	// Create returns false when an invoice with the same stripe ID exists.
	Create(ctx context.Context, inv *Invoice) (bool, error)
	ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]*Invoice, int64, error)
}
