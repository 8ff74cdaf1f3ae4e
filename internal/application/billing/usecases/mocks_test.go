package usecases

import (
	"context"
	"sync"

	"github.com/orris-inc/tollgate/internal/application/notification"
	"github.com/orris-inc/tollgate/internal/application/payment/paymentgateway"
	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/domain/catalog"
	"github.com/orris-inc/tollgate/internal/domain/user"
)

type mockSubscriptionRepository struct {
	GetByUserIDFunc  func(ctx context.Context, userID uint) (*billing.Subscription, error)
	EnsureExistsFunc func(ctx context.Context, userID uint) (*billing.Subscription, error)
	UpdateFunc       func(ctx context.Context, sub *billing.Subscription) error
}

func (m *mockSubscriptionRepository) GetByUserID(ctx context.Context, userID uint) (*billing.Subscription, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockSubscriptionRepository) EnsureExists(ctx context.Context, userID uint) (*billing.Subscription, error) {
	if m.EnsureExistsFunc != nil {
		return m.EnsureExistsFunc(ctx, userID)
	}
	return billing.NewDefaultSubscription(userID)
}

func (m *mockSubscriptionRepository) Update(ctx context.Context, sub *billing.Subscription) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, sub)
	}
	return nil
}

type mockCreditLedger struct {
	AddCreditsFunc     func(ctx context.Context, userID uint, amount int64, reason, reference string) (*billing.CreditAction, error)
	ConsumeCreditsFunc func(ctx context.Context, userID uint, amount int64, action, reference string) (*billing.CreditAction, bool, error)
	ListByUserFunc     func(ctx context.Context, userID uint, page, pageSize int) ([]*billing.CreditAction, int64, error)
}

func (m *mockCreditLedger) AddCredits(ctx context.Context, userID uint, amount int64, reason, reference string) (*billing.CreditAction, error) {
	if m.AddCreditsFunc != nil {
		return m.AddCreditsFunc(ctx, userID, amount, reason, reference)
	}
	return billing.NewCreditAction(userID, billing.DirectionCredit, amount, 0, reason, reference)
}

func (m *mockCreditLedger) ConsumeCredits(ctx context.Context, userID uint, amount int64, action, reference string) (*billing.CreditAction, bool, error) {
	if m.ConsumeCreditsFunc != nil {
		return m.ConsumeCreditsFunc(ctx, userID, amount, action, reference)
	}
	return nil, false, nil
}

func (m *mockCreditLedger) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]*billing.CreditAction, int64, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, page, pageSize)
	}
	return nil, 0, nil
}

type mockInvoiceRepository struct {
	CreateFunc     func(ctx context.Context, inv *billing.Invoice) (bool, error)
	ListByUserFunc func(ctx context.Context, userID uint, page, pageSize int) ([]*billing.Invoice, int64, error)
}

func (m *mockInvoiceRepository) Create(ctx context.Context, inv *billing.Invoice) (bool, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, inv)
	}
	return true, nil
}

func (m *mockInvoiceRepository) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]*billing.Invoice, int64, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, page, pageSize)
	}
	return nil, 0, nil
}

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

type mockGateway struct {
	CreateCustomerFunc        func(ctx context.Context, req paymentgateway.CreateCustomerRequest) (*paymentgateway.Customer, error)
	GetCustomerFunc           func(ctx context.Context, customerID string) (*paymentgateway.Customer, error)
	CreateCheckoutSessionFunc func(ctx context.Context, req paymentgateway.CreateCheckoutRequest) (*paymentgateway.CheckoutSession, error)
	ListCheckoutLineItemsFunc func(ctx context.Context, sessionID string) ([]paymentgateway.LineItem, error)
	CancelAtPeriodEndFunc     func(ctx context.Context, subscriptionID string) error
	CreatePaidInvoiceFunc     func(ctx context.Context, req paymentgateway.PaidInvoiceRequest) (*paymentgateway.Invoice, error)
}

func (m *mockGateway) CreateCustomer(ctx context.Context, req paymentgateway.CreateCustomerRequest) (*paymentgateway.Customer, error) {
	if m.CreateCustomerFunc != nil {
		return m.CreateCustomerFunc(ctx, req)
	}
	return &paymentgateway.Customer{ID: "cus_new", Email: req.Email}, nil
}

func (m *mockGateway) GetCustomer(ctx context.Context, customerID string) (*paymentgateway.Customer, error) {
	if m.GetCustomerFunc != nil {
		return m.GetCustomerFunc(ctx, customerID)
	}
	return &paymentgateway.Customer{ID: customerID}, nil
}

func (m *mockGateway) CreateCheckoutSession(ctx context.Context, req paymentgateway.CreateCheckoutRequest) (*paymentgateway.CheckoutSession, error) {
	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, req)
	}
	return &paymentgateway.CheckoutSession{
		ID:         "cs_test_1",
		URL:        "https://checkout.stripe.com/c/pay/cs_test_1",
		CustomerID: req.CustomerID,
		Mode:       req.Mode,
	}, nil
}

func (m *mockGateway) ListCheckoutLineItems(ctx context.Context, sessionID string) ([]paymentgateway.LineItem, error) {
	if m.ListCheckoutLineItemsFunc != nil {
		return m.ListCheckoutLineItemsFunc(ctx, sessionID)
	}
	return nil, nil
}

func (m *mockGateway) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	if m.CancelAtPeriodEndFunc != nil {
		return m.CancelAtPeriodEndFunc(ctx, subscriptionID)
	}
	return nil
}

func (m *mockGateway) CreatePaidInvoice(ctx context.Context, req paymentgateway.PaidInvoiceRequest) (*paymentgateway.Invoice, error) {
	if m.CreatePaidInvoiceFunc != nil {
		return m.CreatePaidInvoiceFunc(ctx, req)
	}
	return &paymentgateway.Invoice{ID: "in_1", CustomerID: req.CustomerID}, nil
}

type mockEnqueuer struct {
	mu    sync.Mutex
	tasks []notification.EmailTask
	err   error
}

func (m *mockEnqueuer) Enqueue(_ context.Context, task notification.EmailTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.tasks = append(m.tasks, task)
	return nil
}

type mockCustomerEnsurer struct {
	ExecuteFunc func(ctx context.Context, userID uint) (string, error)
}

func (m *mockCustomerEnsurer) Execute(ctx context.Context, userID uint) (string, error) {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, userID)
	}
	return "cus_1", nil
}

type recordingMetrics struct {
	mu    sync.Mutex
	calls []string
}

func (m *recordingMetrics) CreditMutation(direction, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, direction+":"+outcome)
}

func testUser(id uint, balance int64, customerID *string) *user.User {
	u, err := user.ReconstructUser(user.ReconstructParams{
		ID:               id,
		SID:              "usr_test",
		Email:            "jane@example.com",
		Name:             "Jane",
		StripeCustomerID: customerID,
		CreditsBalance:   balance,
	})
	if err != nil {
		panic(err)
	}
	return u
}

func testSubscription(p billing.SubscriptionReconstructParams) *billing.Subscription {
	if p.ID == 0 {
		p.ID = 1
	}
	if p.UserID == 0 {
		p.UserID = 1
	}
	sub, err := billing.ReconstructSubscriptionWithParams(p)
	if err != nil {
		panic(err)
	}
	return sub
}

func testCatalog() *catalog.Catalog {
	return catalog.New(
		[]catalog.Plan{
			{Key: "default", Name: "Free", Show: true},
			{Key: "monthly", Name: "Monthly", StripePriceID: "price_monthly", Show: true,
				Price: catalog.Price{Value: 9.99, CurrencySymbol: "€"}},
			{Key: "lifetime", Name: "Lifetime", StripePriceID: "price_lifetime", Lifetime: true, Show: true,
				Price: catalog.Price{Value: 199, CurrencySymbol: "€"}},
			{Key: "legacy", Name: "Legacy", StripePriceID: "price_legacy"},
		},
		[]catalog.CreditPackage{
			{Key: "small", Name: "Small", StripePriceID: "price_small", Credits: 100, Show: true,
				Price: catalog.Price{Value: 4.5, CurrencySymbol: "€"}},
		},
	)
}

func strPtr(s string) *string { return &s }
