package dto

import (
	"time"

	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/domain/catalog"
)

type SubscriptionDTO struct {
	SubscriptionKey        string  `json:"subscription_key"`
	ExternalSubscriptionID *string `json:"external_subscription_id"`
	ExternalStatus         *string `json:"external_status"`
	Starts                 int64   `json:"starts"`
	CurrentPeriodStart     int64   `json:"current_period_start"`
	CurrentPeriodEnd       int64   `json:"current_period_end"`
	CancelAtPeriodEnd      bool    `json:"cancel_at_period_end"`
	Lifetime               bool    `json:"lifetime"`
	Active                 bool    `json:"active"`
	MarkedForCancellation  bool    `json:"marked_for_cancellation"`
	CanBeCancelled         bool    `json:"can_be_cancelled"`
	CancelsAt              *int64  `json:"cancels_at,omitempty"`
	RenewsAt               *int64  `json:"renews_at,omitempty"`
}

// ToSubscriptionDTO evaluates the time-dependent helpers at now.
func ToSubscriptionDTO(sub *billing.Subscription, now int64) *SubscriptionDTO {
	if sub == nil {
		return nil
	}
	out := &SubscriptionDTO{
		SubscriptionKey:        sub.SubscriptionKey(),
		ExternalSubscriptionID: sub.ExternalSubscriptionID(),
		ExternalStatus:         sub.ExternalStatus(),
		Starts:                 sub.Starts(),
		CurrentPeriodStart:     sub.CurrentPeriodStart(),
		CurrentPeriodEnd:       sub.CurrentPeriodEnd(),
		CancelAtPeriodEnd:      sub.CancelAtPeriodEnd(),
		Lifetime:               sub.Lifetime(),
		Active:                 sub.IsActive(now),
		MarkedForCancellation:  sub.MarkedForCancellation(),
		CanBeCancelled:         sub.CanBeCancelled(),
	}
	if at, ok := sub.CancelsAt(); ok {
		out.CancelsAt = &at
	}
	if at, ok := sub.RenewsAt(); ok && !sub.Lifetime() {
		out.RenewsAt = &at
	}
	return out
}

type BillingOverviewDTO struct {
	BillingModel   catalog.BillingModel    `json:"billing_model"`
	Subscription   *SubscriptionDTO        `json:"subscription"`
	EffectivePlan  catalog.Plan            `json:"effective_plan"`
	CreditsBalance int64                   `json:"credits_balance"`
	Plans          []catalog.Plan          `json:"plans"`
	CreditPackages []catalog.CreditPackage `json:"credit_packages"`
}

type InvoiceDTO struct {
	StripeID  string `json:"stripe_id"`
	Number    string `json:"number"`
	HostedURL string `json:"hosted_url"`
	Created   int64  `json:"created"`
}

func ToInvoiceDTOs(invoices []*billing.Invoice) []InvoiceDTO {
	out := make([]InvoiceDTO, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, InvoiceDTO{
			StripeID:  inv.StripeID(),
			Number:    inv.Number(),
			HostedURL: inv.HostedURL(),
			Created:   inv.Created(),
		})
	}
	return out
}

type CreditActionDTO struct {
	Amount        int64     `json:"amount"`
	Direction     string    `json:"direction"`
	Action        string    `json:"action"`
	CreditsBefore int64     `json:"credits_before"`
	CreditsAfter  int64     `json:"credits_after"`
	Reference     *string   `json:"reference,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func ToCreditActionDTO(ca *billing.CreditAction) CreditActionDTO {
	return CreditActionDTO{
		Amount:        ca.Amount(),
		Direction:     string(ca.Direction()),
		Action:        ca.Action(),
		CreditsBefore: ca.CreditsBefore(),
		CreditsAfter:  ca.CreditsAfter(),
		Reference:     ca.Reference(),
		CreatedAt:     ca.CreatedAt(),
	}
}

func ToCreditActionDTOs(actions []*billing.CreditAction) []CreditActionDTO {
	out := make([]CreditActionDTO, 0, len(actions))
	for _, ca := range actions {
		out = append(out, ToCreditActionDTO(ca))
	}
	return out
}

type CheckoutDTO struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

type ConsumeCreditsDTO struct {
	Consumed bool  `json:"consumed"`
	Balance  int64 `json:"balance"`
}

// ListResult is a page of rows.
type ListResult[T any] struct {
	Items    []T
	Total    int64
	Page     int
	PageSize int
}
