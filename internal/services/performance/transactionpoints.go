// Package performance computes portfolio performance from an order ledger.
package performance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliolab/folio/internal/models"
)

// buildTransactionPoints folds an unordered order list into chronological
// portfolio snapshots. The caller's slice is never mutated; ordering lives in
// a private sorted copy. Orders sharing a date merge into one point, with the
// later order replacing the same-symbol entry of an earlier same-day order.
func buildTransactionPoints(orders []models.Order) []models.TransactionPoint {
	if len(orders) == 0 {
		return nil
	}

	sorted := make([]models.Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	running := make(map[string]models.TransactionPointSymbol)
	var points []models.TransactionPoint

	for _, order := range sorted {
		running[order.Symbol] = applyOrder(running[order.Symbol], order)

		date := order.Date.UTC().Truncate(24 * time.Hour)
		if len(points) > 0 && points[len(points)-1].Date.Equal(date) {
			points[len(points)-1].Items = snapshotItems(running)
			continue
		}
		points = append(points, models.TransactionPoint{
			Date:  date,
			Items: snapshotItems(running),
		})
	}

	return points
}

// applyOrder derives the next accumulated state from one ledger entry.
// The previous state value is left untouched; every update is a fresh value.
func applyOrder(prev models.TransactionPointSymbol, order models.Order) models.TransactionPointSymbol {
	next := prev
	if next.Symbol == "" {
		next.Symbol = order.Symbol
		next.DataSource = order.DataSource
		next.Currency = order.Currency
	}

	switch order.Type {
	case models.OrderTypeBuy:
		next.Quantity = prev.Quantity.Add(order.Quantity)
		next.Investment = prev.Investment.Add(order.Quantity.Mul(order.UnitPrice))
		if next.FirstBuyDate.IsZero() {
			next.FirstBuyDate = order.Date
		}
	case models.OrderTypeSell:
		// Cost-basis removal at the current average price. A sell that fully
		// closes the position drives investment and average price to exactly
		// zero.
		next.Quantity = prev.Quantity.Sub(order.Quantity)
		if next.Quantity.IsZero() {
			next.Investment = decimal.Zero
		} else {
			next.Investment = prev.Investment.Sub(order.Quantity.Mul(prev.AveragePrice))
		}
	case models.OrderTypeDividend:
		next.Dividend = prev.Dividend.Add(order.Quantity.Mul(order.UnitPrice))
	}

	// A zero-quantity order still updates fees.
	next.Fee = prev.Fee.Add(order.Fee)
	next.TransactionCount = prev.TransactionCount + 1

	if next.Quantity.IsPositive() {
		next.AveragePrice = next.Investment.Div(next.Quantity)
	} else {
		next.AveragePrice = decimal.Zero
	}

	return next
}

// snapshotItems copies the running per-symbol states into a stable,
// symbol-sorted slice owned exclusively by the transaction point.
func snapshotItems(running map[string]models.TransactionPointSymbol) []models.TransactionPointSymbol {
	items := make([]models.TransactionPointSymbol, 0, len(running))
	for _, item := range running {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Symbol < items[j].Symbol
	})
	return items
}
