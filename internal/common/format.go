package common

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatMoney renders a decimal amount with the currency's canonical symbol
// and fraction digits, e.g. "$1,234.50" for USD.
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.New(0, currency).Currency()
	return cur.Formatter().Format(amount.Shift(int32(cur.Fraction)).Round(0).IntPart())
}

// FormatSignedMoney is FormatMoney with an explicit plus sign on gains.
func FormatSignedMoney(amount decimal.Decimal, currency string) string {
	if amount.IsPositive() {
		return "+" + FormatMoney(amount, currency)
	}
	return FormatMoney(amount, currency)
}

// FormatSignedPct renders a fractional percentage (0.034 for 3.4%) as a
// signed two-decimal percent string.
func FormatSignedPct(fraction decimal.Decimal) string {
	s := fraction.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
	if fraction.IsPositive() {
		return "+" + s
	}
	return s
}
