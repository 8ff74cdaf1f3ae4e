package models

import "time"

type InvoiceModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	StripeID  string `gorm:"uniqueIndex;size:128;not null"`
	Number    string `gorm:"size:64"`
	HostedURL string `gorm:"type:text"`
	Created   int64  `gorm:"not null"`
	CreatedAt time.Time
}

func (InvoiceModel) TableName() string {
	return "stripe_invoices"
}
