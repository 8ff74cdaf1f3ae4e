package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/tollgate/internal/infrastructure/persistence/models"
	"github.com/orris-inc/tollgate/internal/shared/db"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *billing.Invoice) (bool, error) {
	model := mappers.InvoiceToModel(inv)

	result := db.GetTxFromContext(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "stripe_id"}}, DoNothing: true}).
		Create(model)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create invoice: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	inv.SetID(model.ID)
	return true, nil
}

func (r *InvoiceRepository) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]*billing.Invoice, int64, error) {
	query := db.GetTxFromContext(ctx, r.db).Model(&models.InvoiceModel{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	var rows []models.InvoiceModel
	if err := query.Order("created DESC").Order("id DESC").Scopes(db.Paginate(page, pageSize)).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}

	invoices := make([]*billing.Invoice, len(rows))
	for i := range rows {
		invoices[i] = mappers.InvoiceToDomain(&rows[i])
	}
	return invoices, total, nil
}
