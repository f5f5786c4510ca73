package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestExchangeRatesRate(t *testing.T) {
	day := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	rates := ExchangeRates{
		"USDCHF": {"2023-06-01": decimal.RequireFromString("0.91")},
	}

	assert.True(t, rates.Rate("USD", "CHF", day).Equal(decimal.RequireFromString("0.91")))

	// Same currency, unknown pair, and unknown date all degrade to 1.
	one := decimal.NewFromInt(1)
	assert.True(t, rates.Rate("CHF", "CHF", day).Equal(one))
	assert.True(t, rates.Rate("EUR", "CHF", day).Equal(one))
	assert.True(t, rates.Rate("USD", "CHF", day.AddDate(0, 0, 1)).Equal(one))
}

func TestDateQueryDiscrete(t *testing.T) {
	assert.False(t, DateQuery{From: time.Now(), To: time.Now()}.Discrete())
	assert.True(t, DateQuery{Dates: []time.Time{time.Now()}}.Discrete())
}
