package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plasa/shopper-settlement/pkg/enums"
)

// OrderStatusChangedEvent is emitted for every status write, including
// siblings of a combined order updated by the broadcast.
type OrderStatusChangedEvent struct {
	OrderID         uuid.UUID         `json:"orderId"`
	OrderKind       enums.OrderKind   `json:"orderKind"`
	ShopperID       uuid.UUID         `json:"shopperId"`
	PreviousStatus  enums.OrderStatus `json:"previousStatus"`
	Status          enums.OrderStatus `json:"status"`
	CombinedOrderID *uuid.UUID        `json:"combinedOrderId,omitempty"`
	ChangedAt       time.Time         `json:"changedAt"`
}

// WalletReservedEvent records funds moved into reserve when shopping starts.
type WalletReservedEvent struct {
	WalletID        uuid.UUID       `json:"walletId"`
	ShopperID       uuid.UUID       `json:"shopperId"`
	OrderID         uuid.UUID       `json:"orderId"`
	OrderKind       enums.OrderKind `json:"orderKind"`
	Amount          decimal.Decimal `json:"amount"`
	ReservedBalance decimal.Decimal `json:"reservedBalance"`
}

// WalletPaidOutEvent summarizes the delivery payout.
type WalletPaidOutEvent struct {
	WalletID         uuid.UUID       `json:"walletId"`
	ShopperID        uuid.UUID       `json:"shopperId"`
	OrderID          uuid.UUID       `json:"orderId"`
	OrderKind        enums.OrderKind `json:"orderKind"`
	Earnings         decimal.Decimal `json:"earnings"`
	PlatformFee      decimal.Decimal `json:"platformFee"`
	ReservedReleased decimal.Decimal `json:"reservedReleased"`
	RefundAmount     decimal.Decimal `json:"refundAmount"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	ReservedBalance  decimal.Decimal `json:"reservedBalance"`
}

// WalletRefundedEvent records a shopper cancellation refund. Only regular
// orders touch the wallet, so WalletID and ReservedBalance are empty for the
// other kinds.
type WalletRefundedEvent struct {
	WalletID        *uuid.UUID       `json:"walletId,omitempty"`
	ShopperID       uuid.UUID        `json:"shopperId"`
	CustomerID      uuid.UUID        `json:"customerId"`
	OrderID         uuid.UUID        `json:"orderId"`
	OrderKind       enums.OrderKind  `json:"orderKind"`
	RefundID        uuid.UUID        `json:"refundId"`
	Amount          decimal.Decimal  `json:"amount"`
	ReservedBalance *decimal.Decimal `json:"reservedBalance,omitempty"`
}

// RevenueRecognizedEvent is emitted once per revenue row.
type RevenueRecognizedEvent struct {
	RevenueID            uuid.UUID         `json:"revenueId"`
	OrderID              uuid.UUID         `json:"orderId"`
	OrderKind            enums.OrderKind   `json:"orderKind"`
	Type                 enums.RevenueType `json:"type"`
	Amount               decimal.Decimal   `json:"amount"`
	ShopID               *uuid.UUID        `json:"shopId,omitempty"`
	ShopperID            *uuid.UUID        `json:"shopperId,omitempty"`
	CommissionPercentage *decimal.Decimal  `json:"commissionPercentage,omitempty"`
}
