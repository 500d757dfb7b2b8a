package enums

import "fmt"

// WalletTransactionType classifies a wallet balance movement.
type WalletTransactionType string

const (
	WalletTransactionReserve  WalletTransactionType = "reserve"
	WalletTransactionExpense  WalletTransactionType = "expense"
	WalletTransactionEarnings WalletTransactionType = "earnings"
	WalletTransactionRefund   WalletTransactionType = "refund"
)

var validWalletTransactionTypes = []WalletTransactionType{
	WalletTransactionReserve,
	WalletTransactionExpense,
	WalletTransactionEarnings,
	WalletTransactionRefund,
}

// String implements fmt.Stringer.
func (t WalletTransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known WalletTransactionType.
func (t WalletTransactionType) IsValid() bool {
	for _, candidate := range validWalletTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseWalletTransactionType converts raw input into a WalletTransactionType.
func ParseWalletTransactionType(value string) (WalletTransactionType, error) {
	for _, candidate := range validWalletTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction type %q", value)
}

// WalletTransactionStatus is the settlement state of a wallet transaction.
type WalletTransactionStatus string

const (
	WalletTransactionStatusCompleted WalletTransactionStatus = "completed"
)
