package mappers

import (
	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/infrastructure/persistence/models"
)

func CreditActionToModel(ca *billing.CreditAction) *models.CreditActionModel {
	return &models.CreditActionModel{
		ID:            ca.ID(),
		UserID:        ca.UserID(),
		Amount:        ca.Amount(),
		Direction:     string(ca.Direction()),
		Action:        ca.Action(),
		CreditsBefore: ca.CreditsBefore(),
		CreditsAfter:  ca.CreditsAfter(),
		Reference:     ca.Reference(),
		CreatedAt:     ca.CreatedAt(),
	}
}

func CreditActionToDomain(m *models.CreditActionModel) *billing.CreditAction {
	return billing.ReconstructCreditAction(billing.CreditActionReconstructParams{
		ID:            m.ID,
		UserID:        m.UserID,
		Amount:        m.Amount,
		Direction:     billing.Direction(m.Direction),
		Action:        m.Action,
		CreditsBefore: m.CreditsBefore,
		CreditsAfter:  m.CreditsAfter,
		Reference:     m.Reference,
		CreatedAt:     m.CreatedAt,
	})
}

func InvoiceToModel(inv *billing.Invoice) *models.InvoiceModel {
	return &models.InvoiceModel{
		ID:        inv.ID(),
		UserID:    inv.UserID(),
		StripeID:  inv.StripeID(),
		Number:    inv.Number(),
		HostedURL: inv.HostedURL(),
		Created:   inv.Created(),
		CreatedAt: inv.CreatedAt(),
	}
}

func InvoiceToDomain(m *models.InvoiceModel) *billing.Invoice {
	return billing.ReconstructInvoice(billing.InvoiceReconstructParams{
		ID:        m.ID,
		UserID:    m.UserID,
		StripeID:  m.StripeID,
		Number:    m.Number,
		HostedURL: m.HostedURL,
		Created:   m.Created,
		CreatedAt: m.CreatedAt,
	})
}

func WebhookEventToDomain(m *models.WebhookEventModel) *billing.ProcessedEvent {
	return &billing.ProcessedEvent{
		EventID:     m.EventID,
		Type:        m.Type,
		Payload:     []byte(m.Payload),
		Status:      billing.EventStatus(m.Status),
		LastError:   m.LastError,
		Attempts:    m.Attempts,
		ProcessedAt: m.ProcessedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
