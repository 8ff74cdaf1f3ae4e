package webhook

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/orris-inc/tollgate/internal/application/billing/usecases"
	"github.com/orris-inc/tollgate/internal/application/notification"
	"github.com/orris-inc/tollgate/internal/application/payment/paymentgateway"
	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/domain/catalog"
	"github.com/orris-inc/tollgate/internal/domain/user"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

const (
	EventCustomerDeleted          = "customer.deleted"
	EventInvoicePaid              = "invoice.paid"
	EventInvoiceFinalized         = "invoice.finalized"
	EventSubscriptionCreated      = "customer.subscription.created"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
	EventCheckoutSessionCompleted = "checkout.session.completed"
)

type creditAdder interface {
	Execute(ctx context.Context, cmd usecases.AddCreditsCommand) (*billing.CreditAction, error)
}

// Reconciler holds the handlers that apply provider events to users,
// subscriptions, invoices and credit balances. Events for customers that
// are not linked to a user are ignored.
type Reconciler struct {
	users      user.Repository
	subs       billing.SubscriptionRepository
	invoices   billing.InvoiceRepository
	catalog    *catalog.Catalog
	gateway    paymentgateway.Gateway
	addCredits creditAdder
	notifier   *notification.Notifier
	logger     logger.Interface
}

func NewReconciler(
	users user.Repository,
	subs billing.SubscriptionRepository,
	invoices billing.InvoiceRepository,
	cat *catalog.Catalog,
	gateway paymentgateway.Gateway,
	addCredits creditAdder,
	notifier *notification.Notifier,
	logger logger.Interface,
) *Reconciler {
	return &Reconciler{
		users:      users,
		subs:       subs,
		invoices:   invoices,
		catalog:    cat,
		gateway:    gateway,
		addCredits: addCredits,
		notifier:   notifier,
		logger:     logger,
	}
}

// Registrations returns the handler table for the router. The two checkout
// handlers each act only on their own kind of purchase.
func (r *Reconciler) Registrations() []Registration {
	return []Registration{
		{EventType: EventCustomerDeleted, Name: "customer_deleted", Handle: r.HandleCustomerDeleted},
		{EventType: EventInvoicePaid, Name: "invoice_paid", Handle: r.HandleInvoicePaid},
		{EventType: EventSubscriptionCreated, Name: "subscription_created", Handle: r.HandleSubscriptionChanged},
		{EventType: EventSubscriptionUpdated, Name: "subscription_updated", Handle: r.HandleSubscriptionChanged},
		{EventType: EventSubscriptionDeleted, Name: "subscription_deleted", Handle: r.HandleSubscriptionDeleted},
		{EventType: EventInvoiceFinalized, Name: "invoice_finalized", Handle: r.HandleInvoiceFinalized},
		{EventType: EventCheckoutSessionCompleted, Name: "checkout_lifetime", Handle: r.HandleLifetimeCheckout},
		{EventType: EventCheckoutSessionCompleted, Name: "checkout_credits", Handle: r.HandleCreditsCheckout},
	}
}

func (r *Reconciler) userFor(ctx context.Context, event *paymentgateway.Event) (*user.User, error) {
	customerID := event.CustomerID()
	if customerID == "" {
		return nil, nil
	}
	u, err := r.users.GetByStripeCustomerID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by customer: %w", err)
	}
	if u == nil {
		r.logger.Debugw("event for unknown customer", "event_id", event.ID, "customer_id", customerID)
	}
	return u, nil
}

func (r *Reconciler) HandleCustomerDeleted(ctx context.Context, event *paymentgateway.Event) error {
	if event.Customer == nil {
		return nil
	}
	u, err := r.userFor(ctx, event)
	if err != nil || u == nil {
		return err
	}
	if err := r.users.UpdateStripeCustomerID(ctx, u.ID(), ""); err != nil {
		return fmt.Errorf("failed to clear stripe customer: %w", err)
	}
	r.logger.Infow("stripe customer unlinked", "user_id", u.ID(), "customer_id", event.Customer.ID)
	return nil
}

// HandleInvoicePaid moves the billing period forward for recurring plans.
func (r *Reconciler) HandleInvoicePaid(ctx context.Context, event *paymentgateway.Event) error {
	inv := event.Invoice
	if inv == nil || !inv.HasLines {
		return nil
	}
	u, err := r.userFor(ctx, event)
	if err != nil || u == nil {
		return err
	}

	sub, err := r.subs.GetByUserID(ctx, u.ID())
	if err != nil {
		return fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil || !sub.UpdatePeriod(inv.PeriodStart, inv.PeriodEnd) {
		return nil
	}
	if err := r.subs.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to update subscription period: %w", err)
	}
	r.logger.Infow("subscription period updated",
		"user_id", u.ID(),
		"invoice_id", inv.ID,
		"period_start", inv.PeriodStart,
		"period_end", inv.PeriodEnd,
	)
	return nil
}

// HandleSubscriptionChanged overwrites the stored subscription with the
// provider's state. Prices that are not in the catalog are ignored.
func (r *Reconciler) HandleSubscriptionChanged(ctx context.Context, event *paymentgateway.Event) error {
	ps := event.Subscription
	if ps == nil {
		return nil
	}
	plan, ok := r.catalog.PlanByPriceID(ps.PriceID)
	if !ok {
		r.logger.Warnw("subscription price not in catalog", "event_id", event.ID, "price_id", ps.PriceID)
		return nil
	}
	u, err := r.userFor(ctx, event)
	if err != nil || u == nil {
		return err
	}

	sub, err := r.subs.EnsureExists(ctx, u.ID())
	if err != nil {
		return fmt.Errorf("failed to get subscription: %w", err)
	}
	if err := sub.ApplyRecurring(billing.RecurringState{
		ExternalSubscriptionID: ps.ID,
		ExternalStatus:         ps.Status,
		SubscriptionKey:        plan.Key,
		Starts:                 ps.StartDate,
		CurrentPeriodStart:     ps.CurrentPeriodStart,
		CurrentPeriodEnd:       ps.CurrentPeriodEnd,
		CancelAtPeriodEnd:      ps.CancelAtPeriodEnd,
	}); err != nil {
		return fmt.Errorf("failed to apply subscription state: %w", err)
	}
	if err := r.subs.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	r.logger.Infow("subscription reconciled",
		"user_id", u.ID(),
		"subscription_id", ps.ID,
		"plan", plan.Key,
		"status", ps.Status,
		"cancel_at_period_end", ps.CancelAtPeriodEnd,
	)
	return nil
}

// HandleSubscriptionDeleted returns the user to the default plan. Deletions
// of a subscription that is no longer the stored one, and of anything while
// the user holds a lifetime plan, are ignored.
func (r *Reconciler) HandleSubscriptionDeleted(ctx context.Context, event *paymentgateway.Event) error {
	ps := event.Subscription
	if ps == nil {
		return nil
	}
	u, err := r.userFor(ctx, event)
	if err != nil || u == nil {
		return err
	}

	sub, err := r.subs.GetByUserID(ctx, u.ID())
	if err != nil {
		return fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil || sub.Lifetime() {
		return nil
	}
	if ext := sub.ExternalSubscriptionID(); ext != nil && *ext != ps.ID {
		r.logger.Infow("ignoring deletion of superseded subscription",
			"user_id", u.ID(), "subscription_id", ps.ID, "current", *ext)
		return nil
	}

	previous := sub.SubscriptionKey()
	sub.ResetToDefault()
	if err := r.subs.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to reset subscription: %w", err)
	}
	r.logger.Infow("subscription ended", "user_id", u.ID(), "subscription_id", ps.ID, "previous_plan", previous)

	if previous != billing.DefaultPlanKey {
		r.notifier.Notify(ctx, u.Email(), u.Name(), notification.TemplateSubscriptionEnded, map[string]string{
			"plan": previous,
		})
	}
	return nil
}

func (r *Reconciler) HandleInvoiceFinalized(ctx context.Context, event *paymentgateway.Event) error {
	pi := event.Invoice
	if pi == nil {
		return nil
	}
	u, err := r.userFor(ctx, event)
	if err != nil || u == nil {
		return err
	}

	inv, err := billing.NewInvoice(u.ID(), pi.ID, pi.Number, pi.HostedURL, pi.Created)
	if err != nil {
		return fmt.Errorf("failed to build invoice: %w", err)
	}
	created, err := r.invoices.Create(ctx, inv)
	if err != nil {
		return fmt.Errorf("failed to save invoice: %w", err)
	}
	if created {
		r.logger.Infow("invoice recorded", "user_id", u.ID(), "invoice_id", pi.ID, "number", pi.Number)
	}
	return nil
}

// firstPrice returns the price of the session's first line item.
func (r *Reconciler) firstPrice(ctx context.Context, session *paymentgateway.CheckoutSession) (string, error) {
	items, err := r.gateway.ListCheckoutLineItems(ctx, session.ID)
	if err != nil {
		return "", fmt.Errorf("failed to list checkout line items: %w", err)
	}
	if len(items) == 0 {
		return "", nil
	}
	return items[0].PriceID, nil
}

// HandleLifetimeCheckout activates a one-time plan and issues its receipt.
// A redelivery for a purchase that is already applied only makes sure the
// receipt exists.
func (r *Reconciler) HandleLifetimeCheckout(ctx context.Context, event *paymentgateway.Event) error {
	session := event.CheckoutSession
	if session == nil {
		return nil
	}
	u, err := r.userFor(ctx, event)
	if err != nil || u == nil {
		return err
	}

	priceID, err := r.firstPrice(ctx, session)
	if err != nil {
		return err
	}
	entry, kind := r.catalog.ResolvePriceID(priceID)
	if kind != catalog.KindSubscription || !entry.Plan.Lifetime {
		return nil
	}
	plan := entry.Plan

	sub, err := r.subs.EnsureExists(ctx, u.ID())
	if err != nil {
		return fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub.Lifetime() && sub.SubscriptionKey() == plan.Key && sub.Starts() == session.Created {
		r.logger.Infow("lifetime purchase already applied", "user_id", u.ID(), "session_id", session.ID)
		return r.issueReceipt(ctx, u, session, priceID)
	}
	if err := sub.ApplyLifetime(plan.Key, session.Created); err != nil {
		return fmt.Errorf("failed to apply lifetime plan: %w", err)
	}
	if err := r.subs.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	r.logger.Infow("lifetime plan activated", "user_id", u.ID(), "plan", plan.Key, "session_id", session.ID)

	return r.issueReceipt(ctx, u, session, priceID)
}

// HandleCreditsCheckout credits a purchased package once per event and
// issues its receipt. A redelivery of an already credited event only makes
// sure the receipt exists.
func (r *Reconciler) HandleCreditsCheckout(ctx context.Context, event *paymentgateway.Event) error {
	session := event.CheckoutSession
	if session == nil {
		return nil
	}
	u, err := r.userFor(ctx, event)
	if err != nil || u == nil {
		return err
	}

	priceID, err := r.firstPrice(ctx, session)
	if err != nil {
		return err
	}
	entry, kind := r.catalog.ResolvePriceID(priceID)
	if kind != catalog.KindCreditPackage {
		return nil
	}
	pkg := entry.CreditPackage

	action, err := r.addCredits.Execute(ctx, usecases.AddCreditsCommand{
		UserID:    u.ID(),
		Amount:    pkg.Credits,
		Reason:    CreditsPurchaseReason(pkg),
		Reference: event.ID,
	})
	if errors.Is(err, billing.ErrDuplicateCreditReference) {
		r.logger.Infow("credits already granted for event", "user_id", u.ID(), "event_id", event.ID)
		return r.issueReceipt(ctx, u, session, priceID)
	}
	if err != nil {
		return err
	}

	// Sent once per event; redeliveries take the duplicate branch above.
	r.notifier.Notify(ctx, u.Email(), u.Name(), notification.TemplateCreditsPurchased, map[string]string{
		"credits": strconv.FormatInt(pkg.Credits, 10),
		"amount":  pkg.Price.String(),
		"balance": strconv.FormatInt(action.CreditsAfter(), 10),
	})

	return r.issueReceipt(ctx, u, session, priceID)
}

// CreditsPurchaseReason is the ledger text recorded for a package purchase.
func CreditsPurchaseReason(pkg *catalog.CreditPackage) string {
	return fmt.Sprintf("Bought %d credits for %s", pkg.Credits, pkg.Price.String())
}

// issueReceipt is safe to repeat: the session id ties every attempt to
// one provider invoice.
func (r *Reconciler) issueReceipt(ctx context.Context, u *user.User, session *paymentgateway.CheckoutSession, priceID string) error {
	inv, err := r.gateway.CreatePaidInvoice(ctx, paymentgateway.PaidInvoiceRequest{
		CustomerID: session.CustomerID,
		PriceID:    priceID,
		Reference:  session.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to issue paid invoice: %w", err)
	}
	r.logger.Infow("paid invoice issued", "user_id", u.ID(), "invoice_id", inv.ID, "price_id", priceID)
	return nil
}
