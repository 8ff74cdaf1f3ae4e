package models

import "time"

type CreditActionModel struct {
	ID            uint    `gorm:"primaryKey"`
	UserID        uint    `gorm:"index;not null"`
	Amount        int64   `gorm:"not null"`
	Direction     string  `gorm:"size:10;not null"`
	Action        string  `gorm:"size:255;not null"`
	CreditsBefore int64   `gorm:"not null"`
	CreditsAfter  int64   `gorm:"not null"`
	Reference     *string `gorm:"uniqueIndex;size:128"`
	CreatedAt     time.Time
}

func (CreditActionModel) TableName() string {
	return "credit_actions"
}
