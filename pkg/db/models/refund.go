package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plasa/shopper-settlement/pkg/enums"
)

// Refund is a customer refund raised when a shopper cancels an order. Payout
// happens downstream.
type Refund struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	OrderKind enums.OrderKind    `gorm:"column:order_kind;type:text;not null"`
	Amount    decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	Status    enums.RefundStatus `gorm:"column:status;type:text;not null"`
	Reason    string             `gorm:"column:reason;not null"`
	UserID    uuid.UUID          `gorm:"column:user_id;type:uuid;not null"`
	Paid      bool               `gorm:"column:paid;not null;default:false"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (Refund) TableName() string { return "refunds" }
