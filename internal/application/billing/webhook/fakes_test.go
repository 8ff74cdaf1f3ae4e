package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/orris-inc/tollgate/internal/application/payment/paymentgateway"
	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/domain/catalog"
	"github.com/orris-inc/tollgate/internal/domain/user"
)

// memStore is an in-memory stand-in for the users, subscriptions, invoices
// and credit ledger tables.
type memStore struct {
	mu         sync.Mutex
	users      map[uint]*user.User
	subs       map[uint]*billing.Subscription
	invoices   map[string]*billing.Invoice
	references map[string]bool
	actions    []*billing.CreditAction
	balance    map[uint]int64
	subUpdates int
}

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[uint]*user.User),
		subs:       make(map[uint]*billing.Subscription),
		invoices:   make(map[string]*billing.Invoice),
		references: make(map[string]bool),
		balance:    make(map[uint]int64),
	}
}

func (s *memStore) addUser(id uint, customerID string) *user.User {
	u, err := user.ReconstructUser(user.ReconstructParams{
		ID:               id,
		SID:              "usr_test",
		Email:            "jane@example.com",
		Name:             "Jane",
		StripeCustomerID: &customerID,
	})
	if err != nil {
		panic(err)
	}
	s.users[id] = u
	sub, err := billing.ReconstructSubscriptionWithParams(billing.SubscriptionReconstructParams{ID: id, UserID: id})
	if err != nil {
		panic(err)
	}
	s.subs[id] = sub
	return u
}

// user.Repository

func (s *memStore) Create(ctx context.Context, u *user.User) error { return nil }

func (s *memStore) GetByID(ctx context.Context, id uint) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id], nil
}

func (s *memStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return nil, nil
}

func (s *memStore) GetByStripeCustomerID(ctx context.Context, customerID string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.StripeCustomerID() != nil && *u.StripeCustomerID() == customerID {
			return u, nil
		}
	}
	return nil, nil
}

func (s *memStore) UpdateStripeCustomerID(ctx context.Context, userID uint, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.SetStripeCustomerID(customerID)
	}
	return nil
}

// subscription repository, exposed through subRepo to avoid method clashes.

type subRepo struct{ *memStore }

func (r subRepo) GetByUserID(ctx context.Context, userID uint) (*billing.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subs[userID], nil
}

func (r subRepo) EnsureExists(ctx context.Context, userID uint) (*billing.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub, ok := r.subs[userID]; ok {
		return sub, nil
	}
	sub, err := billing.NewDefaultSubscription(userID)
	if err != nil {
		return nil, err
	}
	r.subs[userID] = sub
	return sub, nil
}

func (r subRepo) Update(ctx context.Context, sub *billing.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.UserID()] = sub
	r.subUpdates++
	return nil
}

type invoiceRepo struct{ *memStore }

func (r invoiceRepo) Create(ctx context.Context, inv *billing.Invoice) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[inv.StripeID()]; ok {
		return false, nil
	}
	r.invoices[inv.StripeID()] = inv
	return true, nil
}

func (r invoiceRepo) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]*billing.Invoice, int64, error) {
	return nil, 0, nil
}

type ledger struct{ *memStore }

func (l ledger) AddCredits(ctx context.Context, userID uint, amount int64, reason, reference string) (*billing.CreditAction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if reference != "" && l.references[reference] {
		return nil, billing.ErrDuplicateCreditReference
	}
	ca, err := billing.NewCreditAction(userID, billing.DirectionCredit, amount, l.balance[userID], reason, reference)
	if err != nil {
		return nil, err
	}
	l.balance[userID] = ca.CreditsAfter()
	if reference != "" {
		l.references[reference] = true
	}
	l.actions = append(l.actions, ca)
	return ca, nil
}

func (l ledger) ConsumeCredits(ctx context.Context, userID uint, amount int64, action, reference string) (*billing.CreditAction, bool, error) {
	return nil, false, nil
}

func (l ledger) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]*billing.CreditAction, int64, error) {
	return nil, 0, nil
}

type fakeGateway struct {
	paymentgateway.Gateway

	mu          sync.Mutex
	lineItems   map[string][]paymentgateway.LineItem
	listErr     error
	// paidInvoice lists the price of every distinct receipt issued.
	paidInvoice []string
	receipts    map[string]*paymentgateway.Invoice
	paidErrs    []error
	paidCalls   int
}

func (g *fakeGateway) ListCheckoutLineItems(ctx context.Context, sessionID string) ([]paymentgateway.LineItem, error) {
	if g.listErr != nil {
		return nil, g.listErr
	}
	return g.lineItems[sessionID], nil
}

// CreatePaidInvoice fails with the queued paidErrs first, then issues one
// receipt per reference.
func (g *fakeGateway) CreatePaidInvoice(ctx context.Context, req paymentgateway.PaidInvoiceRequest) (*paymentgateway.Invoice, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paidCalls++
	if len(g.paidErrs) > 0 {
		err := g.paidErrs[0]
		g.paidErrs = g.paidErrs[1:]
		return nil, err
	}
	if inv, ok := g.receipts[req.Reference]; ok {
		return inv, nil
	}
	if g.receipts == nil {
		g.receipts = make(map[string]*paymentgateway.Invoice)
	}
	inv := &paymentgateway.Invoice{ID: "in_" + req.Reference, CustomerID: req.CustomerID}
	g.receipts[req.Reference] = inv
	g.paidInvoice = append(g.paidInvoice, req.PriceID)
	return inv, nil
}

type memEventLog struct {
	mu     sync.Mutex
	events map[string]*billing.ProcessedEvent
	getErr error
}

func newMemEventLog() *memEventLog {
	return &memEventLog{events: make(map[string]*billing.ProcessedEvent)}
}

func (l *memEventLog) Get(ctx context.Context, eventID string) (*billing.ProcessedEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.getErr != nil {
		return nil, l.getErr
	}
	if e, ok := l.events[eventID]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (l *memEventLog) RecordReceived(ctx context.Context, eventID, eventType string, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.events[eventID]
	if !ok {
		e = &billing.ProcessedEvent{EventID: eventID, Type: eventType, Payload: payload, CreatedAt: time.Now()}
		l.events[eventID] = e
	}
	e.Status = billing.EventStatusReceived
	e.Attempts++
	return nil
}

func (l *memEventLog) MarkProcessed(ctx context.Context, eventID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	e := l.events[eventID]
	e.Status = billing.EventStatusProcessed
	e.LastError = ""
	e.ProcessedAt = &now
	return nil
}

func (l *memEventLog) MarkFailed(ctx context.Context, eventID, lastError string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.events[eventID]
	e.Status = billing.EventStatusFailed
	e.LastError = lastError
	return nil
}

func (l *memEventLog) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeVerifier struct {
	event *paymentgateway.Event
	err   error
}

func (v *fakeVerifier) ParseWebhook(payload []byte, signature string) (*paymentgateway.Event, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.event, nil
}

type countingMetrics struct {
	mu       sync.Mutex
	events   map[string]int
	handlers map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{events: make(map[string]int), handlers: make(map[string]int)}
}

func (m *countingMetrics) EventProcessed(eventType, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[eventType+":"+outcome]++
}

func (m *countingMetrics) HandlerRun(handler, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[handler+":"+outcome]++
}

func testCatalog() *catalog.Catalog {
	return catalog.New(
		[]catalog.Plan{
			{Key: "default", Name: "Free", Show: true},
			{Key: "monthly", Name: "Monthly", StripePriceID: "price_monthly", Show: true},
			{Key: "yearly", Name: "Yearly", StripePriceID: "price_yearly", Show: true},
			{Key: "lifetime", Name: "Lifetime", StripePriceID: "price_lifetime", Lifetime: true, Show: true},
		},
		[]catalog.CreditPackage{
			{Key: "pack25", Name: "25 credits", StripePriceID: "price_pack25", Credits: 25,
				Price: catalog.Price{Value: 22.5, CurrencySymbol: "€"}},
		},
	)
}
