package core

import "github.com/shopspring/decimal"

// FormatMoney renders a price or amount with exactly two decimal places.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Amount is the cash value of n shares at price.
func Amount(price decimal.Decimal, n Size) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(n)))
}
