package billing

import (
	"fmt"
	"time"
)

// Invoice is a finalized provider invoice recorded for the user's history.
type Invoice struct {
	id        uint
	userID    uint
	stripeID  string
	number    string
	hostedURL string
	created   int64
	createdAt time.Time
}

// NewInvoice builds an invoice row. created is the provider's unix timestamp.
func NewInvoice(userID uint, stripeID, number, hostedURL string, created int64) (*Invoice, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if stripeID == "" {
		return nil, fmt.Errorf("stripe invoice ID is required")
	}
	return &Invoice{
		userID:    userID,
		stripeID:  stripeID,
		number:    number,
		hostedURL: hostedURL,
		created:   created,
		createdAt: time.Now().UTC(),
	}, nil
}

type InvoiceReconstructParams struct {
	ID        uint
	UserID    uint
	StripeID  string
	Number    string
	HostedURL string
	Created   int64
	CreatedAt time.Time
}

func ReconstructInvoice(p InvoiceReconstructParams) *Invoice {
	return &Invoice{
		id:        p.ID,
		userID:    p.UserID,
		stripeID:  p.StripeID,
		number:    p.Number,
		hostedURL: p.HostedURL,
		created:   p.Created,
		createdAt: p.CreatedAt,
	}
}

func (i *Invoice) ID() uint             { return i.id }
func (i *Invoice) UserID() uint         { return i.userID }
func (i *Invoice) StripeID() string     { return i.stripeID }
func (i *Invoice) Number() string       { return i.number }
func (i *Invoice) HostedURL() string    { return i.hostedURL }
func (i *Invoice) Created() int64       { return i.created }
func (i *Invoice) CreatedAt() time.Time { return i.createdAt }

func (i *Invoice) SetID(id uint) {
	i.id = id
}
