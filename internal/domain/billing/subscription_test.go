package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const now int64 = 1717200000 // 2024-06-01

func recurring(t *testing.T, st RecurringState) *Subscription {
	t.Helper()
	sub, err := NewDefaultSubscription(7)
	require.NoError(t, err)
	require.NoError(t, sub.ApplyRecurring(st))
	return sub
}

func monthlyState() RecurringState {
	return RecurringState{
		ExternalSubscriptionID: "sub_123",
		ExternalStatus:         StatusActive,
		SubscriptionKey:        "monthly",
		Starts:                 now - 86400,
		CurrentPeriodStart:     now - 86400,
		CurrentPeriodEnd:       now + 29*86400,
	}
}

func TestNewDefaultSubscription(t *testing.T) {
	sub, err := NewDefaultSubscription(7)
	require.NoError(t, err)

	assert.True(t, sub.IsDefault())
	assert.Nil(t, sub.ExternalSubscriptionID())
	assert.Zero(t, sub.CurrentPeriodEnd())
	assert.False(t, sub.IsActive(now))
	assert.Equal(t, DefaultPlanKey, sub.EffectiveKey(now))

	_, err = NewDefaultSubscription(0)
	assert.Error(t, err)
}

func TestIsActive(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RecurringState)
		want   bool
	}{
		{"active and in period", func(*RecurringState) {}, true},
		{"period ended", func(s *RecurringState) { s.CurrentPeriodEnd = now - 1 }, false},
		{"period ends now", func(s *RecurringState) { s.CurrentPeriodEnd = now }, false},
		{"past due", func(s *RecurringState) { s.ExternalStatus = "past_due" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := monthlyState()
			tt.mutate(&st)
			assert.Equal(t, tt.want, recurring(t, st).IsActive(now))
		})
	}
}

func TestEffectiveKeyFallsBackToDefault(t *testing.T) {
	st := monthlyState()
	assert.Equal(t, "monthly", recurring(t, st).EffectiveKey(now))

	st.CurrentPeriodEnd = now - 10
	assert.Equal(t, DefaultPlanKey, recurring(t, st).EffectiveKey(now))
}

func TestApplyRecurringIsIdempotent(t *testing.T) {
	st := monthlyState()
	st.CancelAtPeriodEnd = true

	once := recurring(t, st)
	twice := recurring(t, st)
	require.NoError(t, twice.ApplyRecurring(st))

	assert.Equal(t, once.SubscriptionKey(), twice.SubscriptionKey())
	assert.Equal(t, *once.ExternalSubscriptionID(), *twice.ExternalSubscriptionID())
	assert.Equal(t, *once.ExternalStatus(), *twice.ExternalStatus())
	assert.Equal(t, once.Starts(), twice.Starts())
	assert.Equal(t, once.CurrentPeriodStart(), twice.CurrentPeriodStart())
	assert.Equal(t, once.CurrentPeriodEnd(), twice.CurrentPeriodEnd())
	assert.Equal(t, once.CancelAtPeriodEnd(), twice.CancelAtPeriodEnd())
	assert.False(t, twice.Lifetime())
}

func TestApplyRecurringClearsLifetime(t *testing.T) {
	sub, err := NewDefaultSubscription(7)
	require.NoError(t, err)
	require.NoError(t, sub.ApplyLifetime("lifetime", now))
	require.NoError(t, sub.ApplyRecurring(monthlyState()))

	assert.False(t, sub.Lifetime())
	assert.Equal(t, "monthly", sub.SubscriptionKey())
}

func TestApplyRecurringValidates(t *testing.T) {
	sub, err := NewDefaultSubscription(7)
	require.NoError(t, err)

	st := monthlyState()
	st.SubscriptionKey = ""
	assert.Error(t, sub.ApplyRecurring(st))

	st = monthlyState()
	st.ExternalSubscriptionID = ""
	assert.Error(t, sub.ApplyRecurring(st))
	assert.True(t, sub.IsDefault())
}

func TestApplyLifetime(t *testing.T) {
	sub, err := NewDefaultSubscription(7)
	require.NoError(t, err)
	require.NoError(t, sub.ApplyLifetime("lifetime", now))

	assert.True(t, sub.Lifetime())
	assert.Nil(t, sub.ExternalSubscriptionID())
	assert.Equal(t, StatusActive, *sub.ExternalStatus())
	assert.Equal(t, now, sub.Starts())
	assert.Equal(t, now, sub.CurrentPeriodStart())
	assert.Equal(t, LifetimePeriodEnd, sub.CurrentPeriodEnd())
	assert.True(t, sub.IsActive(now))
	assert.False(t, sub.CanBeCancelled())
	assert.False(t, sub.MarkedForCancellation())
}

func TestUpdatePeriodSkipsLifetime(t *testing.T) {
	life, err := NewDefaultSubscription(7)
	require.NoError(t, err)
	require.NoError(t, life.ApplyLifetime("lifetime", now))

	assert.False(t, life.UpdatePeriod(now, now+100))
	assert.Equal(t, LifetimePeriodEnd, life.CurrentPeriodEnd())

	monthly := recurring(t, monthlyState())
	assert.True(t, monthly.UpdatePeriod(now+100, now+200))
	assert.Equal(t, now+100, monthly.CurrentPeriodStart())
	assert.Equal(t, now+200, monthly.CurrentPeriodEnd())
}

func TestCancellationHelpers(t *testing.T) {
	sub := recurring(t, monthlyState())
	assert.True(t, sub.CanBeCancelled())
	assert.False(t, sub.MarkedForCancellation())
	_, ok := sub.CancelsAt()
	assert.False(t, ok)

	renews, ok := sub.RenewsAt()
	assert.True(t, ok)
	assert.Equal(t, now+29*86400, renews)

	st := monthlyState()
	st.CancelAtPeriodEnd = true
	marked := recurring(t, st)
	assert.False(t, marked.CanBeCancelled())
	assert.True(t, marked.MarkedForCancellation())
	at, ok := marked.CancelsAt()
	assert.True(t, ok)
	assert.Equal(t, st.CurrentPeriodEnd, at)
}

func TestMarkedForCancellationIgnoresDefault(t *testing.T) {
	sub, err := ReconstructSubscriptionWithParams(SubscriptionReconstructParams{
		ID:                1,
		UserID:            7,
		SubscriptionKey:   DefaultPlanKey,
		CancelAtPeriodEnd: true,
	})
	require.NoError(t, err)

	assert.False(t, sub.MarkedForCancellation())
	assert.False(t, sub.CanBeCancelled())
}

func TestResetToDefault(t *testing.T) {
	st := monthlyState()
	st.CancelAtPeriodEnd = true
	sub := recurring(t, st)

	sub.ResetToDefault()

	assert.True(t, sub.IsDefault())
	assert.Nil(t, sub.ExternalSubscriptionID())
	assert.Nil(t, sub.ExternalStatus())
	assert.Zero(t, sub.Starts())
	assert.Zero(t, sub.CurrentPeriodStart())
	assert.Zero(t, sub.CurrentPeriodEnd())
	assert.False(t, sub.CancelAtPeriodEnd())
	assert.False(t, sub.Lifetime())
	_, ok := sub.RenewsAt()
	assert.False(t, ok)
}

func TestReconstructSubscription(t *testing.T) {
	empty := ""
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sub, err := ReconstructSubscriptionWithParams(SubscriptionReconstructParams{
		ID:                     3,
		UserID:                 7,
		ExternalSubscriptionID: &empty,
		CreatedAt:              created,
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultPlanKey, sub.SubscriptionKey())
	assert.Nil(t, sub.ExternalSubscriptionID())
	assert.Equal(t, created, sub.CreatedAt())

	_, err = ReconstructSubscriptionWithParams(SubscriptionReconstructParams{UserID: 7})
	assert.Error(t, err)
}
