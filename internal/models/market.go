package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateQuery selects the dates a market data lookup covers: either a discrete
// set of dates, or the half-open range [From, To) when Dates is empty.
type DateQuery struct {
	Dates []time.Time `json:"dates,omitempty"`
	From  time.Time   `json:"from,omitempty"`
	To    time.Time   `json:"to,omitempty"`
}

// Discrete reports whether the query names individual dates.
func (q DateQuery) Discrete() bool {
	return len(q.Dates) > 0
}

// MarketValue is one resolved price: at most one per (symbol, date).
type MarketValue struct {
	DataSource  string          `json:"dataSource"`
	Symbol      string          `json:"symbol"`
	Date        time.Time       `json:"date"`
	MarketPrice decimal.Decimal `json:"marketPrice"`
}

// Asset returns the value's asset reference.
func (v MarketValue) Asset() AssetRef {
	return AssetRef{DataSource: v.DataSource, Symbol: v.Symbol}
}

// DataProviderInfo describes the upstream source of resolved prices.
type DataProviderInfo struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// MarketValuesResponse is the result of a batched price resolution. Symbols
// that could not be resolved at all are listed in Errors.
type MarketValuesResponse struct {
	Values            []MarketValue      `json:"values"`
	DataProviderInfos []DataProviderInfo `json:"dataProviderInfos,omitempty"`
	Errors            []AssetRef         `json:"errors,omitempty"`
}

// ExchangeRates maps "<currency><target>" pairs (e.g. "USDCHF") to per-date
// rates keyed by canonical date string.
type ExchangeRates map[string]map[string]decimal.Decimal

// Rate returns the rate converting currency into target on the given date.
// A missing pair or date yields 1, so unresolvable rates degrade to no
// conversion instead of failing the computation.
func (r ExchangeRates) Rate(currency, target string, date time.Time) decimal.Decimal {
	if currency == target || currency == "" {
		return decimal.NewFromInt(1)
	}
	byDate, ok := r[currency+target]
	if !ok {
		return decimal.NewFromInt(1)
	}
	rate, ok := byDate[DateKey(date)]
	if !ok || rate.IsZero() {
		return decimal.NewFromInt(1)
	}
	return rate
}
