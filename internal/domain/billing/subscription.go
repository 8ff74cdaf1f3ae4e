package billing

import (
	"fmt"
	"time"
)

const (
	// DefaultPlanKey is the always-present free plan every user starts on.
	DefaultPlanKey = "default"

	// LifetimePeriodEnd is the period end stored for one-time plans
	// (2099-12-31T23:00:00Z).
	LifetimePeriodEnd int64 = 4102441200

	StatusActive = "active"
)

// Subscription is a user's billing state. There is exactly one per user; it
// mirrors the provider subscription when the user is on a recurring plan.
type Subscription struct {
	id                     uint
	userID                 uint
	subscriptionKey        string
	externalSubscriptionID *string
	externalStatus         *string
	starts                 int64
	currentPeriodStart     int64
	currentPeriodEnd       int64
	cancelAtPeriodEnd      bool
	lifetime               bool
	createdAt              time.Time
	updatedAt              time.Time
}

// NewDefaultSubscription returns the zeroed default-plan subscription that is
// created together with the user.
func NewDefaultSubscription(userID uint) (*Subscription, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	now := time.Now().UTC()
	return &Subscription{
		userID:          userID,
		subscriptionKey: DefaultPlanKey,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

type SubscriptionReconstructParams struct {
	ID                     uint
	UserID                 uint
	SubscriptionKey        string
	ExternalSubscriptionID *string
	ExternalStatus         *string
	Starts                 int64
	CurrentPeriodStart     int64
	CurrentPeriodEnd       int64
	CancelAtPeriodEnd      bool
	Lifetime               bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func ReconstructSubscriptionWithParams(p SubscriptionReconstructParams) (*Subscription, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("subscription ID cannot be zero")
	}
	if p.UserID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	key := p.SubscriptionKey
	if key == "" {
		key = DefaultPlanKey
	}
	return &Subscription{
		id:                     p.ID,
		userID:                 p.UserID,
		subscriptionKey:        key,
		externalSubscriptionID: nonEmpty(p.ExternalSubscriptionID),
		externalStatus:         nonEmpty(p.ExternalStatus),
		starts:                 p.Starts,
		currentPeriodStart:     p.CurrentPeriodStart,
		currentPeriodEnd:       p.CurrentPeriodEnd,
		cancelAtPeriodEnd:      p.CancelAtPeriodEnd,
		lifetime:               p.Lifetime,
		createdAt:              p.CreatedAt,
		updatedAt:              p.UpdatedAt,
	}, nil
}

func (s *Subscription) ID() uint                        { return s.id }
func (s *Subscription) UserID() uint                    { return s.userID }
func (s *Subscription) SubscriptionKey() string         { return s.subscriptionKey }
func (s *Subscription) ExternalSubscriptionID() *string { return s.externalSubscriptionID }
func (s *Subscription) ExternalStatus() *string         { return s.externalStatus }
func (s *Subscription) Starts() int64                   { return s.starts }
func (s *Subscription) CurrentPeriodStart() int64       { return s.currentPeriodStart }
func (s *Subscription) CurrentPeriodEnd() int64         { return s.currentPeriodEnd }
func (s *Subscription) CancelAtPeriodEnd() bool         { return s.cancelAtPeriodEnd }
func (s *Subscription) Lifetime() bool                  { return s.lifetime }
func (s *Subscription) CreatedAt() time.Time            { return s.createdAt }
func (s *Subscription) UpdatedAt() time.Time            { return s.updatedAt }

// SetID is used by the repository after insert.
func (s *Subscription) SetID(id uint) {
	s.id = id
}

func (s *Subscription) IsDefault() bool {
	return s.subscriptionKey == DefaultPlanKey
}

// IsActive reports whether the paid period is still running and the provider
// considers the subscription active.
func (s *Subscription) IsActive(now int64) bool {
	return s.currentPeriodEnd > now &&
		s.externalStatus != nil && *s.externalStatus == StatusActive
}

// EffectiveKey is the plan key that entitlement checks should use: the stored
// key while active, the default plan otherwise.
func (s *Subscription) EffectiveKey(now int64) string {
	if s.IsActive(now) {
		return s.subscriptionKey
	}
	return DefaultPlanKey
}

func (s *Subscription) MarkedForCancellation() bool {
	return s.cancelAtPeriodEnd && !s.lifetime && !s.IsDefault()
}

func (s *Subscription) CanBeCancelled() bool {
	return s.externalSubscriptionID != nil &&
		!s.IsDefault() &&
		!s.lifetime &&
		!s.cancelAtPeriodEnd
}

// CancelsAt returns the period end when the subscription will not renew.
func (s *Subscription) CancelsAt() (int64, bool) {
	if !s.MarkedForCancellation() {
		return 0, false
	}
	return s.currentPeriodEnd, true
}

func (s *Subscription) RenewsAt() (int64, bool) {
	if s.currentPeriodEnd == 0 {
		return 0, false
	}
	return s.currentPeriodEnd, true
}

// ResetToDefault drops every provider-derived field and moves the user back
// to the default plan.
func (s *Subscription) ResetToDefault() {
	s.subscriptionKey = DefaultPlanKey
	s.externalSubscriptionID = nil
	s.externalStatus = nil
	s.starts = 0
	s.currentPeriodStart = 0
	s.currentPeriodEnd = 0
	s.cancelAtPeriodEnd = false
	s.lifetime = false
	s.touch()
}

// RecurringState is the absolute provider state of a recurring subscription.
type RecurringState struct {
	ExternalSubscriptionID string
	ExternalStatus         string
	SubscriptionKey        string
	Starts                 int64
	CurrentPeriodStart     int64
	CurrentPeriodEnd       int64
	CancelAtPeriodEnd      bool
}

// ApplyRecurring overwrites the subscription with provider state. Applying
// the same state twice leaves the same fields.
func (s *Subscription) ApplyRecurring(st RecurringState) error {
	if st.SubscriptionKey == "" {
		return fmt.Errorf("subscription key is required")
	}
	if st.ExternalSubscriptionID == "" {
		return fmt.Errorf("external subscription ID is required")
	}
	s.subscriptionKey = st.SubscriptionKey
	s.externalSubscriptionID = strPtr(st.ExternalSubscriptionID)
	s.externalStatus = strPtr(st.ExternalStatus)
	s.starts = st.Starts
	s.currentPeriodStart = st.CurrentPeriodStart
	s.currentPeriodEnd = st.CurrentPeriodEnd
	s.cancelAtPeriodEnd = st.CancelAtPeriodEnd
	s.lifetime = false
	s.touch()
	return nil
}

// ApplyLifetime switches to a one-time plan bought at startedAt.
func (s *Subscription) ApplyLifetime(key string, startedAt int64) error {
	if key == "" {
		return fmt.Errorf("subscription key is required")
	}
	s.subscriptionKey = key
	s.externalSubscriptionID = nil
	s.externalStatus = strPtr(StatusActive)
	s.starts = startedAt
	s.currentPeriodStart = startedAt
	s.currentPeriodEnd = LifetimePeriodEnd
	s.cancelAtPeriodEnd = false
	s.lifetime = true
	s.touch()
	return nil
}

// UpdatePeriod records a renewed billing period. Lifetime subscriptions keep
// their sentinel period and false is returned.
func (s *Subscription) UpdatePeriod(start, end int64) bool {
	if s.lifetime {
		return false
	}
	s.currentPeriodStart = start
	s.currentPeriodEnd = end
	s.touch()
	return true
}

func (s *Subscription) touch() {
	s.updatedAt = time.Now().UTC()
}

func strPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func nonEmpty(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}
