package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds a shopper's withdrawable and reserved balances.
type Wallet struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ShopperID        uuid.UUID       `gorm:"column:shopper_id;type:uuid;not null;uniqueIndex"`
	AvailableBalance decimal.Decimal `gorm:"column:available_balance;type:numeric(12,2);not null"`
	ReservedBalance  decimal.Decimal `gorm:"column:reserved_balance;type:numeric(12,2);not null"`
	LastUpdated      time.Time       `gorm:"column:last_updated;not null"`
}

func (Wallet) TableName() string { return "wallets" }
