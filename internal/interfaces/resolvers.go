// Package interfaces defines service contracts for Folio
package interfaces

import (
	"context"
	"time"

	"github.com/foliolab/folio/internal/models"
)

// MarketDataResolver resolves market prices for symbols. Lookups are batched:
// one call covers every symbol and date a computation needs.
type MarketDataResolver interface {
	// GetValues resolves at most one price per (symbol, date) covered by the
	// date query. Unresolvable symbols are reported in the response's Errors,
	// not as a returned error.
	GetValues(ctx context.Context, items []models.AssetRef, dateQuery models.DateQuery) (*models.MarketValuesResponse, error)
}

// ExchangeRateResolver resolves currency conversion rates.
type ExchangeRateResolver interface {
	// GetExchangeRatesByCurrency returns per-date rates for each currency
	// against the target currency over [startDate, endDate], keyed as
	// "<currency><target>" then by date.
	GetExchangeRatesByCurrency(ctx context.Context, currencies []string, startDate, endDate time.Time, targetCurrency string) (models.ExchangeRates, error)
}
