package orderstatus

import (
	"time"

	"github.com/google/uuid"

	"github.com/plasa/shopper-settlement/pkg/enums"
)

// UpdateStatusInput is a shopper's request to move an order forward.
type UpdateStatusInput struct {
	OrderID       uuid.UUID
	Status        string
	ShopperUserID uuid.UUID
	ActorRole     enums.ActorRole
}

// OrderStatusDTO echoes the requested order after the write.
type OrderStatusDTO struct {
	ID        uuid.UUID         `json:"id"`
	Status    enums.OrderStatus `json:"status"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// UpdateStatusResult is the response body of a status update.
type UpdateStatusResult struct {
	Order     OrderStatusDTO  `json:"order"`
	OrderType enums.OrderKind `json:"orderType"`
}
