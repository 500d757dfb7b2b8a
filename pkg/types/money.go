package types

import "github.com/shopspring/decimal"

const moneyScale = 2

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds half away from zero to cents.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(moneyScale)
}

// FormatMoney renders an amount with exactly two decimals, e.g. "0.00".
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(moneyScale)
}

// Percentage returns pct percent of amount, unrounded.
func Percentage(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}

// MinMoney returns the smaller of a and b.
func MinMoney(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// ClampZero replaces negative amounts with zero.
func ClampZero(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}
