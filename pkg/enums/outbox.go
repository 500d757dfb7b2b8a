package enums

import "fmt"

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregateWallet  OutboxAggregateType = "wallet"
	AggregateRevenue OutboxAggregateType = "revenue"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateWallet,
	AggregateRevenue,
}

// IsValid reports whether the value is a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names a domain event written to the outbox.
type OutboxEventType string

const (
	EventOrderStatusChanged OutboxEventType = "order_status_changed"
	EventWalletReserved     OutboxEventType = "wallet_reserved"
	EventWalletPaidOut      OutboxEventType = "wallet_paid_out"
	EventWalletRefunded     OutboxEventType = "wallet_refunded"
	EventRevenueRecognized  OutboxEventType = "revenue_recognized"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderStatusChanged,
	EventWalletReserved,
	EventWalletPaidOut,
	EventWalletRefunded,
	EventRevenueRecognized,
}

// IsValid reports whether the value is a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
