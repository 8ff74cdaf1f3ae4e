// Package models contains the gorm row types. Domain packages never see
// them; repositories convert through the mappers package.
package models

// All returns every model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&UserModel{},
		&SubscriptionModel{},
		&CreditActionModel{},
		&InvoiceModel{},
		&WebhookEventModel{},
	}
}
