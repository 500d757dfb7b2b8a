package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plasa/shopper-settlement/pkg/enums"
)

// WalletTransaction is an append-only audit row for a wallet balance movement.
// Exactly one of the related order columns is set.
type WalletTransaction struct {
	ID                       uuid.UUID                     `gorm:"column:id;type:uuid;primaryKey"`
	WalletID                 uuid.UUID                     `gorm:"column:wallet_id;type:uuid;not null;index"`
	Amount                   decimal.Decimal               `gorm:"column:amount;type:numeric(12,2);not null"`
	Type                     enums.WalletTransactionType   `gorm:"column:type;type:text;not null"`
	Status                   enums.WalletTransactionStatus `gorm:"column:status;type:text;not null"`
	RelatedOrderID           *uuid.UUID                    `gorm:"column:related_order_id;type:uuid"`
	RelatedReelOrderID       *uuid.UUID                    `gorm:"column:related_reel_order_id;type:uuid"`
	RelatedRestaurantOrderID *uuid.UUID                    `gorm:"column:related_restaurant_order_id;type:uuid"`
	Description              string                        `gorm:"column:description;not null"`
	CreatedAt                time.Time                     `gorm:"column:created_at;autoCreateTime"`
}

func (WalletTransaction) TableName() string { return "wallet_transactions" }

// RelateTo sets the order foreign key matching the order kind.
func (t *WalletTransaction) RelateTo(kind enums.OrderKind, orderID uuid.UUID) {
	id := orderID
	switch kind {
	case enums.OrderKindReel:
		t.RelatedReelOrderID = &id
	case enums.OrderKindRestaurant:
		t.RelatedRestaurantOrderID = &id
	default:
		t.RelatedOrderID = &id
	}
}
