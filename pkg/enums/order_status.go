package enums

import "fmt"

// OrderStatus tracks the delivery lifecycle shared by every order kind.
type OrderStatus string

const (
	OrderStatusAccepted   OrderStatus = "accepted"
	OrderStatusShopping   OrderStatus = "shopping"
	OrderStatusPicked     OrderStatus = "picked"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusOnTheWay   OrderStatus = "on_the_way"
	OrderStatusAtCustomer OrderStatus = "at_customer"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusAccepted,
	OrderStatusShopping,
	OrderStatusPicked,
	OrderStatusInProgress,
	OrderStatusOnTheWay,
	OrderStatusAtCustomer,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Cancellable reports whether an order in this status may still be cancelled.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusAccepted || s == OrderStatusShopping
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
