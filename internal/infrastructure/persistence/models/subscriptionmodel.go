package models

import "time"

// SubscriptionModel holds one row per user. Timestamps from the payment
// provider are unix seconds.
type SubscriptionModel struct {
	ID                     uint    `gorm:"primaryKey"`
	UserID                 uint    `gorm:"uniqueIndex;not null"`
	SubscriptionKey        string  `gorm:"size:64;not null;default:'default'"`
	ExternalSubscriptionID *string `gorm:"index;size:128"`
	ExternalStatus         *string `gorm:"size:32"`
	Starts                 int64   `gorm:"not null;default:0"`
	CurrentPeriodStart     int64   `gorm:"not null;default:0"`
	CurrentPeriodEnd       int64   `gorm:"not null;default:0"`
	CancelAtPeriodEnd      bool    `gorm:"not null;default:false"`
	Lifetime               bool    `gorm:"not null;default:false"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (SubscriptionModel) TableName() string {
	return "subscriptions"
}
