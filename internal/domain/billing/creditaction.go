package billing

import (
	"fmt"
	"time"
)

type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

func (d Direction) IsValid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

// CreditAction is one immutable row of a user's credit history. Amount is
// always positive; Direction says which way the balance moved.
type CreditAction struct {
	id            uint
	userID        uint
	amount        int64
	direction     Direction
	action        string
	creditsBefore int64
	creditsAfter  int64
	reference     *string
	createdAt     time.Time
}

// NewCreditAction checks that before/after agree with amount and direction.
func NewCreditAction(userID uint, direction Direction, amount, before int64, action, reference string) (*CreditAction, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !direction.IsValid() {
		return nil, fmt.Errorf("invalid credit direction: %s", direction)
	}

	after := before + amount
	if direction == DirectionDebit {
		after = before - amount
		if after < 0 {
			return nil, ErrInsufficientCredits
		}
	}

	ca := &CreditAction{
		userID:        userID,
		amount:        amount,
		direction:     direction,
		action:        action,
		creditsBefore: before,
		creditsAfter:  after,
		createdAt:     time.Now().UTC(),
	}
	if reference != "" {
		ca.reference = &reference
	}
	return ca, nil
}

type CreditActionReconstructParams struct {
	ID            uint
	UserID        uint
	Amount        int64
	Direction     Direction
	Action        string
	CreditsBefore int64
	CreditsAfter  int64
	Reference     *string
	CreatedAt     time.Time
}

func ReconstructCreditAction(p CreditActionReconstructParams) *CreditAction {
	return &CreditAction{
		id:            p.ID,
		userID:        p.UserID,
		amount:        p.Amount,
		direction:     p.Direction,
		action:        p.Action,
		creditsBefore: p.CreditsBefore,
		creditsAfter:  p.CreditsAfter,
		reference:     p.Reference,
		createdAt:     p.CreatedAt,
	}
}

func (c *CreditAction) ID() uint             { return c.id }
func (c *CreditAction) UserID() uint         { return c.userID }
func (c *CreditAction) Amount() int64        { return c.amount }
func (c *CreditAction) Direction() Direction { return c.direction }
func (c *CreditAction) Action() string       { return c.action }
func (c *CreditAction) CreditsBefore() int64 { return c.creditsBefore }
func (c *CreditAction) CreditsAfter() int64  { return c.creditsAfter }
func (c *CreditAction) Reference() *string   { return c.reference }
func (c *CreditAction) CreatedAt() time.Time { return c.createdAt }

func (c *CreditAction) SetID(id uint) {
	c.id = id
}
