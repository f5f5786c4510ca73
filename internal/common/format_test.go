package common

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatMoney(decimal.RequireFromString("1234.50"), "USD"))
	assert.Equal(t, "-$12.60", FormatMoney(decimal.RequireFromString("-12.60"), "USD"))
}

func TestFormatSignedMoney(t *testing.T) {
	assert.Equal(t, "+$23.05", FormatSignedMoney(decimal.RequireFromString("23.05"), "USD"))
	assert.Equal(t, "-$15.80", FormatSignedMoney(decimal.RequireFromString("-15.80"), "USD"))
}

func TestFormatSignedPct(t *testing.T) {
	assert.Equal(t, "+3.40%", FormatSignedPct(decimal.RequireFromString("0.034")))
	assert.Equal(t, "-4.41%", FormatSignedPct(decimal.RequireFromString("-0.0441")))
	assert.Equal(t, "0.00%", FormatSignedPct(decimal.Zero))
}
