// Package stripegateway adapts stripe-go to the provider neutral
// paymentgateway ports. Every outbound call runs through one circuit
// breaker so a Stripe outage fails fast instead of tying up request
// goroutines.
package stripegateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/orris-inc/tollgate/internal/application/payment/paymentgateway"
	"github.com/orris-inc/tollgate/internal/shared/config"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

const requestTimeout = 20 * time.Second

type Gateway struct {
	api     *client.API
	breaker *gobreaker.CircuitBreaker[any]
	logger  logger.Interface
}

type Option func(*stripe.BackendConfig)

// WithBackendURL points the SDK at another API host, e.g. stripe-mock or an
// httptest server.
func WithBackendURL(url string) Option {
	return func(c *stripe.BackendConfig) {
		c.URL = stripe.String(url)
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *stripe.BackendConfig) {
		c.HTTPClient = hc
	}
}

func NewGateway(cfg config.StripeConfig, log logger.Interface, opts ...Option) *Gateway {
	log = log.With("component", "stripe")

	backendConfig := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: requestTimeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &leveledLogger{logger: log},
	}
	for _, opt := range opts {
		opt(backendConfig)
	}

	return &Gateway{
		api:     client.New(cfg.SecretKey, stripe.NewBackendsWithConfig(backendConfig)),
		breaker: newBreaker(cfg.Breaker, log),
		logger:  log,
	}
}

func newBreaker(cfg config.BreakerConfig, log logger.Interface) *gobreaker.CircuitBreaker[any] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Client errors say nothing about provider health.
		IsSuccessful: func(err error) bool {
			var stripeErr *stripe.Error
			if errors.As(err, &stripeErr) {
				return stripeErr.HTTPStatusCode > 0 && stripeErr.HTTPStatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnw("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	})
}

// call runs fn through the breaker and translates an open breaker into
// paymentgateway.ErrCircuitOpen.
func call[T any](g *Gateway, op string, fn func() (T, error)) (T, error) {
	res, err := g.breaker.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, paymentgateway.ErrCircuitOpen
		}
		return zero, fmt.Errorf("stripe %s: %w", op, err)
	}
	return res.(T), nil
}

func isResourceMissing(err error) bool {
	var stripeErr *stripe.Error
	return errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing
}

func (g *Gateway) CreateCustomer(ctx context.Context, req paymentgateway.CreateCustomerRequest) (*paymentgateway.Customer, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(req.Email),
		Name:  stripe.String(req.Name),
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	c, err := call(g, "create customer", func() (*stripe.Customer, error) {
		return g.api.Customers.New(params)
	})
	if err != nil {
		return nil, err
	}

	g.logger.Infow("stripe customer created", "customer_id", c.ID)
	return toCustomer(c), nil
}

func (g *Gateway) GetCustomer(ctx context.Context, customerID string) (*paymentgateway.Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	c, err := call(g, "get customer", func() (*stripe.Customer, error) {
		return g.api.Customers.Get(customerID, params)
	})
	if err != nil {
		if isResourceMissing(err) {
			return nil, paymentgateway.ErrCustomerNotFound
		}
		return nil, err
	}
	if c.Deleted {
		return nil, paymentgateway.ErrCustomerNotFound
	}
	return toCustomer(c), nil
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req paymentgateway.CreateCheckoutRequest) (*paymentgateway.CheckoutSession, error) {
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(req.CustomerID),
		Mode:     stripe.String(string(req.Mode)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(req.PriceID),
			Quantity: stripe.Int64(quantity),
		}},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx

	s, err := call(g, "create checkout session", func() (*stripe.CheckoutSession, error) {
		return g.api.CheckoutSessions.New(params)
	})
	if err != nil {
		return nil, err
	}
	return toCheckoutSession(s), nil
}

func (g *Gateway) ListCheckoutLineItems(ctx context.Context, sessionID string) ([]paymentgateway.LineItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx

	return call(g, "list checkout line items", func() ([]paymentgateway.LineItem, error) {
		var items []paymentgateway.LineItem
		iter := g.api.CheckoutSessions.ListLineItems(params)
		for iter.Next() {
			li := iter.LineItem()
			item := paymentgateway.LineItem{Quantity: li.Quantity}
			if li.Price != nil {
				item.PriceID = li.Price.ID
			}
			items = append(items, item)
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
		return items, nil
	})
}

func (g *Gateway) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	params.Context = ctx

	_, err := call(g, "cancel subscription", func() (*stripe.Subscription, error) {
		return g.api.Subscriptions.Update(subscriptionID, params)
	})
	return err
}

// receiptMetadataKey tags receipt invoices with their checkout reference.
const receiptMetadataKey = "tollgate_receipt"

// CreatePaidInvoice finalizes and marks paid an invoice for req.PriceID. An
// invoice already tagged with req.Reference is resumed from its current
// status instead of creating a second one.
func (g *Gateway) CreatePaidInvoice(ctx context.Context, req paymentgateway.PaidInvoiceRequest) (*paymentgateway.Invoice, error) {
	return call(g, "create paid invoice", func() (*paymentgateway.Invoice, error) {
		inv, err := g.findReceipt(ctx, req.CustomerID, req.Reference)
		if err != nil {
			return nil, err
		}
		if inv == nil {
			invParams := &stripe.InvoiceParams{Customer: stripe.String(req.CustomerID)}
			invParams.AddMetadata(receiptMetadataKey, req.Reference)
			invParams.Context = ctx
			if inv, err = g.api.Invoices.New(invParams); err != nil {
				return nil, err
			}
		} else {
			g.logger.Infow("resuming receipt invoice", "invoice_id", inv.ID, "status", inv.Status, "reference", req.Reference)
		}

		if inv.Status == stripe.InvoiceStatusDraft && (inv.Lines == nil || len(inv.Lines.Data) == 0) {
			itemParams := &stripe.InvoiceItemParams{
				Customer: stripe.String(req.CustomerID),
				Price:    stripe.String(req.PriceID),
				Invoice:  stripe.String(inv.ID),
			}
			itemParams.Context = ctx
			if _, err := g.api.InvoiceItems.New(itemParams); err != nil {
				return nil, err
			}
		}

		if inv.Status == stripe.InvoiceStatusDraft {
			finalizeParams := &stripe.InvoiceFinalizeInvoiceParams{}
			finalizeParams.Context = ctx
			if inv, err = g.api.Invoices.FinalizeInvoice(inv.ID, finalizeParams); err != nil {
				return nil, err
			}
		}

		if inv.Status != stripe.InvoiceStatusPaid {
			payParams := &stripe.InvoicePayParams{PaidOutOfBand: stripe.Bool(true)}
			payParams.Context = ctx
			if inv, err = g.api.Invoices.Pay(inv.ID, payParams); err != nil {
				return nil, err
			}
		}
		return toInvoice(inv), nil
	})
}

// findReceipt looks through the customer's recent invoices for one tagged
// with reference. Void invoices do not count.
func (g *Gateway) findReceipt(ctx context.Context, customerID, reference string) (*stripe.Invoice, error) {
	params := &stripe.InvoiceListParams{Customer: stripe.String(customerID)}
	params.Context = ctx
	params.Limit = stripe.Int64(100)
	params.Single = true

	iter := g.api.Invoices.List(params)
	for iter.Next() {
		inv := iter.Invoice()
		if inv.Metadata[receiptMetadataKey] == reference && inv.Status != stripe.InvoiceStatusVoid {
			return inv, nil
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}
