// Package paymentgateway is the port between billing use cases and the
// payment provider. Types here are provider neutral; the Stripe adapter maps
// SDK objects into them.
package paymentgateway

import (
	"context"
	"errors"
)

var (
	// ErrCustomerNotFound is returned for customers that are missing or
	// deleted at the provider.
	ErrCustomerNotFound = errors.New("payment customer not found")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
	// ErrCircuitOpen means recent provider calls failed and requests are
	// being short-circuited.
	ErrCircuitOpen = errors.New("payment provider unavailable")
)

type CheckoutMode string

const (
	CheckoutModePayment      CheckoutMode = "payment"
	CheckoutModeSubscription CheckoutMode = "subscription"
)

// Gateway is implemented by the Stripe adapter. Every method is a synchronous
// provider call bounded by ctx.
type Gateway interface {
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*Customer, error)
	GetCustomer(ctx context.Context, customerID string) (*Customer, error)
	CreateCheckoutSession(ctx context.Context, req CreateCheckoutRequest) (*CheckoutSession, error)
	ListCheckoutLineItems(ctx context.Context, sessionID string) ([]LineItem, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error
	// CreatePaidInvoice issues an invoice for a one-time purchase and marks
	// it paid out of band so the customer receives a receipt. Calls with the
	// same Reference yield one invoice, finishing any earlier partial attempt.
	CreatePaidInvoice(ctx context.Context, req PaidInvoiceRequest) (*Invoice, error)
}

// PaidInvoiceRequest identifies a receipt. Reference is the checkout
// session the receipt belongs to.
type PaidInvoiceRequest struct {
	CustomerID string
	PriceID    string
	Reference  string
}

// WebhookVerifier turns a signed webhook delivery into an Event.
type WebhookVerifier interface {
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

type CreateCustomerRequest struct {
	Email       string
	Name        string
	Description string
	Metadata    map[string]string
}

type CreateCheckoutRequest struct {
	CustomerID string
	PriceID    string
	Quantity   int64
	Mode       CheckoutMode
	SuccessURL string
	CancelURL  string
}

type Customer struct {
	ID      string
	Email   string
	Deleted bool
}

type CheckoutSession struct {
	ID         string
	URL        string
	CustomerID string
	Mode       CheckoutMode
	Created    int64
}

type LineItem struct {
	PriceID  string
	Quantity int64
}

type Subscription struct {
	ID                 string
	CustomerID         string
	Status             string
	PriceID            string
	StartDate          int64
	CurrentPeriodStart int64
	CurrentPeriodEnd   int64
	CancelAtPeriodEnd  bool
}

type Invoice struct {
	ID         string
	CustomerID string
	Number     string
	HostedURL  string
	Created    int64
	// PeriodStart and PeriodEnd come from the first line. HasLines is false
	// when there is no first line or it carries no period.
	PeriodStart int64
	PeriodEnd   int64
	HasLines    bool
}

// Event is a verified webhook event. Exactly one object field is populated,
// matching the event's data.object type; unknown object types leave all nil.
type Event struct {
	ID      string
	Type    string
	Created int64
	Payload []byte

	Customer        *Customer
	Subscription    *Subscription
	Invoice         *Invoice
	CheckoutSession *CheckoutSession
}

// CustomerID returns the customer the event's object belongs to.
func (e *Event) CustomerID() string {
	switch {
	case e.Customer != nil:
		return e.Customer.ID
	case e.Subscription != nil:
		return e.Subscription.CustomerID
	case e.Invoice != nil:
		return e.Invoice.CustomerID
	case e.CheckoutSession != nil:
		return e.CheckoutSession.CustomerID
	}
	return ""
}
