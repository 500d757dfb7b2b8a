package enums

import "fmt"

// RevenueType distinguishes the platform revenue streams recorded per order.
type RevenueType string

const (
	RevenueTypeCommission RevenueType = "commission"
	RevenueTypePlasaFee   RevenueType = "plasa_fee"
)

var validRevenueTypes = []RevenueType{
	RevenueTypeCommission,
	RevenueTypePlasaFee,
}

// String implements fmt.Stringer.
func (r RevenueType) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RevenueType.
func (r RevenueType) IsValid() bool {
	for _, candidate := range validRevenueTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRevenueType converts raw input into a RevenueType.
func ParseRevenueType(value string) (RevenueType, error) {
	for _, candidate := range validRevenueTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid revenue type %q", value)
}
