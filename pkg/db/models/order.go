package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plasa/shopper-settlement/pkg/enums"
)

// Order is a regular (grocery) order picked in-store by a shopper.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	ShopID          uuid.UUID         `gorm:"column:shop_id;type:uuid;not null"`
	ShopperID       *uuid.UUID        `gorm:"column:shopper_id;type:uuid"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	ServiceFee      decimal.Decimal   `gorm:"column:service_fee;type:numeric(12,2);not null"`
	DeliveryFee     decimal.Decimal   `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null"`
	CombinedOrderID *uuid.UUID        `gorm:"column:combined_order_id;type:uuid;index"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;references:ID"`
}

func (Order) TableName() string { return "orders" }

// OrderItem is a line item on a regular order. Price is what the order was
// charged per unit; ProductPrice and ProductFinalPrice are the shop-facing and
// customer-facing catalog prices captured at checkout.
type OrderItem struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID           uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID         uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName       string          `gorm:"column:product_name;not null"`
	Price             decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity          int             `gorm:"column:quantity;not null"`
	ProductPrice      decimal.Decimal `gorm:"column:product_price;type:numeric(12,2);not null"`
	ProductFinalPrice decimal.Decimal `gorm:"column:product_final_price;type:numeric(12,2);not null"`
}

func (OrderItem) TableName() string { return "order_items" }

// ReelOrder is an order placed from a creator reel; it has no shop-floor
// picking phase.
type ReelOrder struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	ReelID          uuid.UUID         `gorm:"column:reel_id;type:uuid;not null"`
	ShopperID       *uuid.UUID        `gorm:"column:shopper_id;type:uuid"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	ServiceFee      decimal.Decimal   `gorm:"column:service_fee;type:numeric(12,2);not null"`
	DeliveryFee     decimal.Decimal   `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null"`
	CombinedOrderID *uuid.UUID        `gorm:"column:combined_order_id;type:uuid;index"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at"`
}

func (ReelOrder) TableName() string { return "reel_orders" }

// RestaurantOrder is a delivery-only order; it carries no service fee.
type RestaurantOrder struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	RestaurantID    uuid.UUID         `gorm:"column:restaurant_id;type:uuid;not null"`
	ShopperID       *uuid.UUID        `gorm:"column:shopper_id;type:uuid"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	DeliveryFee     decimal.Decimal   `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null"`
	CombinedOrderID *uuid.UUID        `gorm:"column:combined_order_id;type:uuid;index"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at"`
}

func (RestaurantOrder) TableName() string { return "restaurant_orders" }
