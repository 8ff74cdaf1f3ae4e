package stripegateway

import (
	"github.com/stripe/stripe-go/v76"

	"github.com/orris-inc/tollgate/internal/application/payment/paymentgateway"
)

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func toCustomer(c *stripe.Customer) *paymentgateway.Customer {
	return &paymentgateway.Customer{
		ID:      c.ID,
		Email:   c.Email,
		Deleted: c.Deleted,
	}
}

func toCheckoutSession(s *stripe.CheckoutSession) *paymentgateway.CheckoutSession {
	return &paymentgateway.CheckoutSession{
		ID:         s.ID,
		URL:        s.URL,
		CustomerID: customerID(s.Customer),
		Mode:       paymentgateway.CheckoutMode(s.Mode),
		Created:    s.Created,
	}
}

func toSubscription(s *stripe.Subscription) *paymentgateway.Subscription {
	sub := &paymentgateway.Subscription{
		ID:                 s.ID,
		CustomerID:         customerID(s.Customer),
		Status:             string(s.Status),
		StartDate:          s.StartDate,
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
	}
	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
		sub.PriceID = s.Items.Data[0].Price.ID
	}
	return sub
}

func toInvoice(inv *stripe.Invoice) *paymentgateway.Invoice {
	out := &paymentgateway.Invoice{
		ID:         inv.ID,
		CustomerID: customerID(inv.Customer),
		Number:     inv.Number,
		HostedURL:  inv.HostedInvoiceURL,
		Created:    inv.Created,
	}
	if inv.Lines != nil && len(inv.Lines.Data) > 0 {
		if p := inv.Lines.Data[0].Period; p != nil {
			out.HasLines = true
			out.PeriodStart = p.Start
			out.PeriodEnd = p.End
		}
	}
	return out
}
