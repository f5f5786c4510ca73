package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionPointSymbol is the accumulated position state of one symbol as
// of a transaction point's date. Values are never mutated after the point is
// sealed; each ledger entry produces a fresh value.
type TransactionPointSymbol struct {
	Symbol           string          `json:"symbol"`
	DataSource       string          `json:"dataSource"`
	Currency         string          `json:"currency"`
	Quantity         decimal.Decimal `json:"quantity"`
	Investment       decimal.Decimal `json:"investment"` // cost basis, fees excluded
	AveragePrice     decimal.Decimal `json:"averagePrice"`
	Fee              decimal.Decimal `json:"fee"`
	Dividend         decimal.Decimal `json:"dividend"`
	FirstBuyDate     time.Time       `json:"firstBuyDate"`
	TransactionCount int             `json:"transactionCount"`
}

// Asset returns the entry's asset reference.
func (s TransactionPointSymbol) Asset() AssetRef {
	return AssetRef{DataSource: s.DataSource, Symbol: s.Symbol}
}

// TransactionPoint is a dated snapshot holding one entry per symbol ever
// held as of that date. Points are ordered ascending by date and there is at
// most one point per distinct date.
type TransactionPoint struct {
	Date  time.Time                `json:"date"`
	Items []TransactionPointSymbol `json:"items"` // sorted by symbol
}
