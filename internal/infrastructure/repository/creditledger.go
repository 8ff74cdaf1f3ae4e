package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/tollgate/internal/infrastructure/persistence/models"
	"github.com/orris-inc/tollgate/internal/shared/db"
	apperrors "github.com/orris-inc/tollgate/internal/shared/errors"
)

// CreditLedger mutates users.credits_balance with single-row UPDATEs and
// records each mutation in credit_actions within the same transaction.
type CreditLedger struct {
	db *gorm.DB
}

func NewCreditLedger(db *gorm.DB) *CreditLedger {
	return &CreditLedger{db: db}
}

func (l *CreditLedger) AddCredits(ctx context.Context, userID uint, amount int64, reason, reference string) (*billing.CreditAction, error) {
	if amount <= 0 {
		return nil, billing.ErrInvalidAmount
	}

	var action *billing.CreditAction
	err := db.GetTxFromContext(ctx, l.db).Transaction(func(tx *gorm.DB) error {
		if err := checkReference(tx, reference); err != nil {
			return err
		}

		result := tx.Model(&models.UserModel{}).
			Where("id = ?", userID).
			Update("credits_balance", gorm.Expr("credits_balance + ?", amount))
		if result.Error != nil {
			return fmt.Errorf("failed to increment balance: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return billing.ErrUserNotFound
		}

		after, err := readBalance(tx, userID)
		if err != nil {
			return err
		}
		action, err = billing.NewCreditAction(userID, billing.DirectionCredit, amount, after-amount, reason, reference)
		if err != nil {
			return err
		}
		return insertAction(tx, action)
	})
	if err != nil {
		return nil, err
	}
	return action, nil
}

// ConsumeCredits only decrements when the balance covers amount; the check
// is part of the UPDATE predicate.
func (l *CreditLedger) ConsumeCredits(ctx context.Context, userID uint, amount int64, actionName, reference string) (*billing.CreditAction, bool, error) {
	if amount <= 0 {
		return nil, false, billing.ErrInvalidAmount
	}

	var (
		action   *billing.CreditAction
		consumed bool
	)
	err := db.GetTxFromContext(ctx, l.db).Transaction(func(tx *gorm.DB) error {
		if err := checkReference(tx, reference); err != nil {
			return err
		}

		result := tx.Model(&models.UserModel{}).
			Where("id = ? AND credits_balance >= ?", userID, amount).
			Update("credits_balance", gorm.Expr("credits_balance - ?", amount))
		if result.Error != nil {
			return fmt.Errorf("failed to decrement balance: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.UserModel{}).Where("id = ?", userID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check user: %w", err)
			}
			if count == 0 {
				return billing.ErrUserNotFound
			}
			return nil
		}

		after, err := readBalance(tx, userID)
		if err != nil {
			return err
		}
		action, err = billing.NewCreditAction(userID, billing.DirectionDebit, amount, after+amount, actionName, reference)
		if err != nil {
			return err
		}
		if err := insertAction(tx, action); err != nil {
			return err
		}
		consumed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return action, consumed, nil
}

func (l *CreditLedger) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]*billing.CreditAction, int64, error) {
	query := db.GetTxFromContext(ctx, l.db).Model(&models.CreditActionModel{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count credit actions: %w", err)
	}

	var rows []models.CreditActionModel
	if err := query.Scopes(db.NewestFirst(), db.Paginate(page, pageSize)).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list credit actions: %w", err)
	}

	actions := make([]*billing.CreditAction, len(rows))
	for i := range rows {
		actions[i] = mappers.CreditActionToDomain(&rows[i])
	}
	return actions, total, nil
}

func checkReference(tx *gorm.DB, reference string) error {
	if reference == "" {
		return nil
	}
	var count int64
	if err := tx.Model(&models.CreditActionModel{}).Where("reference = ?", reference).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check credit reference: %w", err)
	}
	if count > 0 {
		return billing.ErrDuplicateCreditReference
	}
	return nil
}

func readBalance(tx *gorm.DB, userID uint) (int64, error) {
	var model models.UserModel
	if err := tx.Select("credits_balance").Where("id = ?", userID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, billing.ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return model.CreditsBalance, nil
}

// insertAction maps a unique violation on reference, which a concurrent
// delivery can hit after checkReference passed, to the duplicate sentinel.
func insertAction(tx *gorm.DB, action *billing.CreditAction) error {
	model := mappers.CreditActionToModel(action)
	if err := tx.Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return billing.ErrDuplicateCreditReference
		}
		return fmt.Errorf("failed to record credit action: %w", err)
	}
	action.SetID(model.ID)
	return nil
}
