package db

import "gorm.io/gorm"

// Paginate limits a query to one page. page is 1-based.
func Paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if page < 1 {
			page = 1
		}
		if pageSize < 1 {
			return tx
		}
		return tx.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

// NewestFirst orders by created_at then id, both descending.
func NewestFirst() func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Order("created_at DESC").Order("id DESC")
	}
}
