package enums

import "fmt"

// OrderKind identifies which order table a record lives in.
type OrderKind string

const (
	OrderKindRegular    OrderKind = "regular"
	OrderKindReel       OrderKind = "reel"
	OrderKindRestaurant OrderKind = "restaurant"
)

var validOrderKinds = []OrderKind{
	OrderKindRegular,
	OrderKindReel,
	OrderKindRestaurant,
}

// String implements fmt.Stringer.
func (k OrderKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known OrderKind.
func (k OrderKind) IsValid() bool {
	for _, candidate := range validOrderKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseOrderKind converts raw input into an OrderKind.
func ParseOrderKind(value string) (OrderKind, error) {
	for _, candidate := range validOrderKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order kind %q", value)
}
