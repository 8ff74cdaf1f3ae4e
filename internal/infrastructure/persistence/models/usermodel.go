package models

import "time"

type UserModel struct {
	ID               uint    `gorm:"primaryKey"`
	SID              string  `gorm:"uniqueIndex;size:32;not null"`
	Email            string  `gorm:"uniqueIndex;size:255;not null"`
	Name             string  `gorm:"size:255;not null"`
	StripeCustomerID *string `gorm:"uniqueIndex;size:64"`
	CreditsBalance   int64   `gorm:"not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (UserModel) TableName() string {
	return "users"
}
