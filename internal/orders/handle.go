package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plasa/shopper-settlement/pkg/db/models"
	"github.com/plasa/shopper-settlement/pkg/enums"
)

// Handle is the settlement view of an order, tagged with the table it lives
// in. ShopID carries the restaurant id for restaurant orders and is nil for
// reel orders; ReelID is only set for reel orders.
type Handle struct {
	Kind            enums.OrderKind
	ID              uuid.UUID
	CustomerID      uuid.UUID
	ShopID          *uuid.UUID
	ReelID          *uuid.UUID
	ShopperID       *uuid.UUID
	Total           decimal.Decimal
	ServiceFee      decimal.Decimal
	DeliveryFee     decimal.Decimal
	Status          enums.OrderStatus
	CombinedOrderID *uuid.UUID
	UpdatedAt       time.Time
}

// IsRegular reports whether the order is a grocery order with line items.
func (h Handle) IsRegular() bool {
	return h.Kind == enums.OrderKindRegular
}

// IsRestaurant reports whether the order is delivery-only.
func (h Handle) IsRestaurant() bool {
	return h.Kind == enums.OrderKindRestaurant
}

// Batched reports whether the order belongs to a combined checkout.
func (h Handle) Batched() bool {
	return h.CombinedOrderID != nil && *h.CombinedOrderID != uuid.Nil
}

// TotalFees is what the customer paid for the delivery service. Restaurant
// orders carry no service fee.
func (h Handle) TotalFees() decimal.Decimal {
	if h.IsRestaurant() {
		return h.DeliveryFee
	}
	return h.ServiceFee.Add(h.DeliveryFee)
}

// FromRegular projects a regular order row.
func FromRegular(o models.Order) Handle {
	shopID := o.ShopID
	return Handle{
		Kind:            enums.OrderKindRegular,
		ID:              o.ID,
		CustomerID:      o.UserID,
		ShopID:          &shopID,
		ShopperID:       o.ShopperID,
		Total:           o.Total,
		ServiceFee:      o.ServiceFee,
		DeliveryFee:     o.DeliveryFee,
		Status:          o.Status,
		CombinedOrderID: o.CombinedOrderID,
		UpdatedAt:       o.UpdatedAt,
	}
}

// FromReel projects a reel order row.
func FromReel(o models.ReelOrder) Handle {
	reelID := o.ReelID
	return Handle{
		Kind:            enums.OrderKindReel,
		ID:              o.ID,
		CustomerID:      o.UserID,
		ReelID:          &reelID,
		ShopperID:       o.ShopperID,
		Total:           o.Total,
		ServiceFee:      o.ServiceFee,
		DeliveryFee:     o.DeliveryFee,
		Status:          o.Status,
		CombinedOrderID: o.CombinedOrderID,
		UpdatedAt:       o.UpdatedAt,
	}
}

// FromRestaurant projects a restaurant order row.
func FromRestaurant(o models.RestaurantOrder) Handle {
	restaurantID := o.RestaurantID
	return Handle{
		Kind:            enums.OrderKindRestaurant,
		ID:              o.ID,
		CustomerID:      o.UserID,
		ShopID:          &restaurantID,
		ShopperID:       o.ShopperID,
		Total:           o.Total,
		ServiceFee:      decimal.Zero,
		DeliveryFee:     o.DeliveryFee,
		Status:          o.Status,
		CombinedOrderID: o.CombinedOrderID,
		UpdatedAt:       o.UpdatedAt,
	}
}
