package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plasa/shopper-settlement/pkg/enums"
)

// Revenue is a platform revenue record. At most one row exists per
// (SourceOrderID, Type); the unique index ux_revenue_source_order_type backs it.
type Revenue struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Type                 enums.RevenueType   `gorm:"column:type;type:text;not null"`
	ShopID               *uuid.UUID          `gorm:"column:shop_id;type:uuid"`
	ShopperID            *uuid.UUID          `gorm:"column:shopper_id;type:uuid"`
	OrderID              *uuid.UUID          `gorm:"column:order_id;type:uuid"`
	SourceOrderID        uuid.UUID           `gorm:"column:source_order_id;type:uuid;not null"`
	OrderKind            enums.OrderKind     `gorm:"column:order_kind;type:text;not null"`
	Amount               decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Products             json.RawMessage     `gorm:"column:products;type:jsonb"`
	CommissionPercentage decimal.NullDecimal `gorm:"column:commission_percentage;type:numeric(5,2)"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (Revenue) TableName() string { return "revenue" }
