package user

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/orris-inc/tollgate/internal/shared/id"
)

// User is the billing identity. Authentication is handled elsewhere; this
// module only needs contact details, the provider customer and the credit
// balance.
type User struct {
	id               uint
	sid              string
	email            string
	name             string
	stripeCustomerID *string
	creditsBalance   int64
	createdAt        time.Time
	updatedAt        time.Time
}

func NewUser(email, name string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	sid, err := id.NewUserSID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user SID: %w", err)
	}

	now := time.Now().UTC()
	return &User{
		sid:       sid,
		email:     email,
		name:      name,
		createdAt: now,
		updatedAt: now,
	}, nil
}

type ReconstructParams struct {
	ID               uint
	SID              string
	Email            string
	Name             string
	StripeCustomerID *string
	CreditsBalance   int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func ReconstructUser(p ReconstructParams) (*User, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("user ID cannot be zero")
	}
	if p.Email == "" {
		return nil, fmt.Errorf("email is required")
	}
	u := &User{
		id:             p.ID,
		sid:            p.SID,
		email:          p.Email,
		name:           p.Name,
		creditsBalance: p.CreditsBalance,
		createdAt:      p.CreatedAt,
		updatedAt:      p.UpdatedAt,
	}
	if p.StripeCustomerID != nil && *p.StripeCustomerID != "" {
		u.stripeCustomerID = p.StripeCustomerID
	}
	return u, nil
}

func (u *User) ID() uint                  { return u.id }
func (u *User) SID() string               { return u.sid }
func (u *User) Email() string             { return u.email }
func (u *User) Name() string              { return u.name }
func (u *User) StripeCustomerID() *string { return u.stripeCustomerID }
func (u *User) CreditsBalance() int64     { return u.creditsBalance }
func (u *User) CreatedAt() time.Time      { return u.createdAt }
func (u *User) UpdatedAt() time.Time      { return u.updatedAt }

func (u *User) SetID(id uint) {
	u.id = id
}

func (u *User) HasStripeCustomer() bool {
	return u.stripeCustomerID != nil
}

// SetStripeCustomerID links the user to a provider customer. An empty id
// clears the link.
func (u *User) SetStripeCustomerID(customerID string) {
	if customerID == "" {
		u.stripeCustomerID = nil
	} else {
		u.stripeCustomerID = &customerID
	}
	u.updatedAt = time.Now().UTC()
}
