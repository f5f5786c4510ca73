// Package models defines data structures for Folio
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateFormat is the canonical day-resolution date layout used throughout.
const DateFormat = "2006-01-02"

// DateKey formats a time as the canonical day key used in price and rate maps.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateFormat)
}

// ParseDate parses a canonical "YYYY-MM-DD" date string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t.UTC(), nil
}

// OrderType classifies a ledger entry.
type OrderType string

const (
	OrderTypeBuy      OrderType = "BUY"
	OrderTypeSell     OrderType = "SELL"
	OrderTypeDividend OrderType = "DIVIDEND"
)

// ParseOrderType validates and normalizes an order type string.
func ParseOrderType(s string) (OrderType, error) {
	switch OrderType(strings.ToUpper(strings.TrimSpace(s))) {
	case OrderTypeBuy:
		return OrderTypeBuy, nil
	case OrderTypeSell:
		return OrderTypeSell, nil
	case OrderTypeDividend:
		return OrderTypeDividend, nil
	default:
		return "", fmt.Errorf("unknown order type %q", s)
	}
}

// AssetRef identifies a symbol at a data source.
type AssetRef struct {
	DataSource string `json:"dataSource"`
	Symbol     string `json:"symbol"`
}

func (r AssetRef) String() string {
	return r.DataSource + ":" + r.Symbol
}

// Order is one immutable entry of the investor's ledger.
// Quantities and monetary amounts are arbitrary-precision decimals.
type Order struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	DataSource string          `json:"dataSource"`
	Date       time.Time       `json:"date"`
	Type       OrderType       `json:"type"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Fee        decimal.Decimal `json:"fee"`
	Currency   string          `json:"currency"`
	Name       string          `json:"name,omitempty"`
	Tags       []string        `json:"tags,omitempty"`
}

// Asset returns the order's asset reference.
func (o Order) Asset() AssetRef {
	return AssetRef{DataSource: o.DataSource, Symbol: o.Symbol}
}

// orderJSON is the wire representation. Dates are day-resolution strings and
// decimals are strings, so values survive round-trips without float rounding.
type orderJSON struct {
	ID         string          `json:"id,omitempty"`
	Symbol     string          `json:"symbol"`
	DataSource string          `json:"dataSource"`
	Date       string          `json:"date"`
	Type       string          `json:"type"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Fee        decimal.Decimal `json:"fee"`
	Currency   string          `json:"currency"`
	Name       string          `json:"name,omitempty"`
	Tags       []string        `json:"tags,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (o Order) MarshalJSON() ([]byte, error) {
	return json.Marshal(orderJSON{
		ID:         o.ID,
		Symbol:     o.Symbol,
		DataSource: o.DataSource,
		Date:       DateKey(o.Date),
		Type:       string(o.Type),
		Quantity:   o.Quantity,
		UnitPrice:  o.UnitPrice,
		Fee:        o.Fee,
		Currency:   o.Currency,
		Name:       o.Name,
		Tags:       o.Tags,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Structurally invalid records
// (bad dates, unknown types, missing symbol) fail hard; there is no safe
// partial result for a malformed ledger.
func (o *Order) UnmarshalJSON(data []byte) error {
	var raw orderJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if strings.TrimSpace(raw.Symbol) == "" {
		return fmt.Errorf("order is missing a symbol")
	}

	date, err := ParseDate(raw.Date)
	if err != nil {
		return fmt.Errorf("order %s: %w", raw.Symbol, err)
	}

	orderType, err := ParseOrderType(raw.Type)
	if err != nil {
		return fmt.Errorf("order %s: %w", raw.Symbol, err)
	}

	id := raw.ID
	if id == "" {
		id = uuid.NewString()
	}

	*o = Order{
		ID:         id,
		Symbol:     strings.TrimSpace(raw.Symbol),
		DataSource: strings.TrimSpace(raw.DataSource),
		Date:       date,
		Type:       orderType,
		Quantity:   raw.Quantity,
		UnitPrice:  raw.UnitPrice,
		Fee:        raw.Fee,
		Currency:   strings.ToUpper(strings.TrimSpace(raw.Currency)),
		Name:       raw.Name,
		Tags:       raw.Tags,
	}
	return nil
}

// DecodeOrders parses a JSON array of orders with strict validation.
func DecodeOrders(data []byte) ([]Order, error) {
	var orders []Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}
