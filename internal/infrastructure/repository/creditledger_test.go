package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/infrastructure/persistence/models"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

func balanceOf(t *testing.T, repo *UserRepository, userID uint) int64 {
	u, err := repo.GetByID(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u.CreditsBalance()
}

func TestCreditLedger_ConsumeCredits(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewCreditLedger(db)
	users := NewUserRepository(db, logger.NewNopLogger())
	ctx := context.Background()

	u := createTestUser(t, db, "consume@example.com", 10)

	t.Run("within balance", func(t *testing.T) {
		action, ok, err := ledger.ConsumeCredits(ctx, u.ID(), 5, "image_generation", "")
		require.NoError(t, err)
		assert.True(t, ok)
		require.NotNil(t, action)
		assert.NotZero(t, action.ID())
		assert.Equal(t, billing.DirectionDebit, action.Direction())
		assert.Equal(t, int64(5), action.Amount())
		assert.Equal(t, int64(10), action.CreditsBefore())
		assert.Equal(t, int64(5), action.CreditsAfter())
		assert.Equal(t, int64(5), balanceOf(t, users, u.ID()))
	})

	t.Run("above balance leaves everything untouched", func(t *testing.T) {
		action, ok, err := ledger.ConsumeCredits(ctx, u.ID(), 6, "image_generation", "")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, action)
		assert.Equal(t, int64(5), balanceOf(t, users, u.ID()))

		_, total, err := ledger.ListByUser(ctx, u.ID(), 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("exact balance", func(t *testing.T) {
		_, ok, err := ledger.ConsumeCredits(ctx, u.ID(), 5, "image_generation", "")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Zero(t, balanceOf(t, users, u.ID()))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := ledger.ConsumeCredits(ctx, 9999, 1, "x", "")
		assert.ErrorIs(t, err, billing.ErrUserNotFound)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		_, _, err := ledger.ConsumeCredits(ctx, u.ID(), 0, "x", "")
		assert.ErrorIs(t, err, billing.ErrInvalidAmount)
	})
}

func TestCreditLedger_AddCredits(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewCreditLedger(db)
	users := NewUserRepository(db, logger.NewNopLogger())
	ctx := context.Background()

	u := createTestUser(t, db, "add@example.com", 3)

	action, err := ledger.AddCredits(ctx, u.ID(), 25, "Bought 25 credits for € 22.50", "evt_1")
	require.NoError(t, err)
	assert.Equal(t, billing.DirectionCredit, action.Direction())
	assert.Equal(t, int64(3), action.CreditsBefore())
	assert.Equal(t, int64(28), action.CreditsAfter())
	require.NotNil(t, action.Reference())
	assert.Equal(t, "evt_1", *action.Reference())
	assert.Equal(t, int64(28), balanceOf(t, users, u.ID()))

	t.Run("duplicate reference is rejected without mutation", func(t *testing.T) {
		_, err := ledger.AddCredits(ctx, u.ID(), 25, "again", "evt_1")
		assert.ErrorIs(t, err, billing.ErrDuplicateCreditReference)
		assert.Equal(t, int64(28), balanceOf(t, users, u.ID()))
	})

	t.Run("empty references never collide", func(t *testing.T) {
		_, err := ledger.AddCredits(ctx, u.ID(), 1, "a", "")
		require.NoError(t, err)
		_, err = ledger.AddCredits(ctx, u.ID(), 1, "b", "")
		require.NoError(t, err)
		assert.Equal(t, int64(30), balanceOf(t, users, u.ID()))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := ledger.AddCredits(ctx, 9999, 1, "x", "")
		assert.ErrorIs(t, err, billing.ErrUserNotFound)
	})
}

func TestCreditLedger_ListByUser(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewCreditLedger(db)
	ctx := context.Background()

	u := createTestUser(t, db, "list@example.com", 0)
	other := createTestUser(t, db, "other@example.com", 0)

	for i := 0; i < 3; i++ {
		_, err := ledger.AddCredits(ctx, u.ID(), int64(i+1), "grant", "")
		require.NoError(t, err)
	}
	_, err := ledger.AddCredits(ctx, other.ID(), 7, "grant", "")
	require.NoError(t, err)

	actions, total, err := ledger.ListByUser(ctx, u.ID(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, actions, 2)
	assert.Equal(t, int64(3), actions[0].Amount())

	page2, _, err := ledger.ListByUser(ctx, u.ID(), 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, int64(1), page2[0].Amount())
}

func countActions(t *testing.T, db *gorm.DB, userID uint, direction billing.Direction) int64 {
	var n int64
	require.NoError(t, db.Model(&models.CreditActionModel{}).
		Where("user_id = ? AND direction = ?", userID, string(direction)).
		Count(&n).Error)
	return n
}

func TestCreditLedger_ConcurrentConsumeNeverOverdraws(t *testing.T) {
	db := setupFileDB(t)
	ledger := NewCreditLedger(db)
	users := NewUserRepository(db, logger.NewNopLogger())
	u := createTestUser(t, db, "race@example.com", 10)

	const workers = 20
	var consumed, failed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := ledger.ConsumeCredits(context.Background(), u.ID(), 3, "race", "")
			if err != nil {
				failed.Add(1)
				return
			}
			if ok {
				consumed.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Zero(t, failed.Load())
	assert.Equal(t, int64(3), consumed.Load())
	balance := balanceOf(t, users, u.ID())
	assert.Equal(t, 10-3*consumed.Load(), balance)
	assert.GreaterOrEqual(t, balance, int64(0))
	assert.Equal(t, consumed.Load(), countActions(t, db, u.ID(), billing.DirectionDebit))
}

func TestCreditLedger_ConcurrentAddAndConsumeLoseNothing(t *testing.T) {
	db := setupFileDB(t)
	ledger := NewCreditLedger(db)
	users := NewUserRepository(db, logger.NewNopLogger())
	u := createTestUser(t, db, "mixed@example.com", 10)

	const adders, consumers = 10, 20
	var consumed, failed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < adders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := ledger.AddCredits(context.Background(), u.ID(), 2, "top up", fmt.Sprintf("evt_%d", i)); err != nil {
				failed.Add(1)
			}
		}(i)
	}
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := ledger.ConsumeCredits(context.Background(), u.ID(), 3, "race", "")
			switch {
			case err != nil:
				failed.Add(1)
			case ok:
				consumed.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Zero(t, failed.Load())
	balance := balanceOf(t, users, u.ID())
	assert.Equal(t, 10+2*int64(adders)-3*consumed.Load(), balance)
	assert.GreaterOrEqual(t, balance, int64(0))
	assert.Equal(t, int64(adders), countActions(t, db, u.ID(), billing.DirectionCredit))
	assert.Equal(t, consumed.Load(), countActions(t, db, u.ID(), billing.DirectionDebit))
}

func TestCreditLedger_ConcurrentSameReferenceCreditsOnce(t *testing.T) {
	db := setupFileDB(t)
	ledger := NewCreditLedger(db)
	users := NewUserRepository(db, logger.NewNopLogger())
	u := createTestUser(t, db, "dup@example.com", 0)

	const deliveries = 8
	var granted, duplicates atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.AddCredits(context.Background(), u.ID(), 25, "Bought 25 credits", "evt_same")
			switch {
			case err == nil:
				granted.Add(1)
			case errors.Is(err, billing.ErrDuplicateCreditReference):
				duplicates.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), granted.Load())
	assert.Equal(t, int64(deliveries-1), duplicates.Load())
	assert.Equal(t, int64(25), balanceOf(t, users, u.ID()))
}
