// Package interfaces defines service contracts for Folio
package interfaces

import (
	"context"
	"time"

	"github.com/foliolab/folio/internal/models"
)

// PerformanceService converts an order ledger plus resolved market prices and
// FX rates into per-symbol and portfolio-level performance metrics.
type PerformanceService interface {
	// ComputeTransactionPoints folds the orders into chronological portfolio
	// snapshots, replacing any previously computed state.
	ComputeTransactionPoints(orders []models.Order)

	// TransactionPoints returns the computed snapshots, ordered by date.
	TransactionPoints() []models.TransactionPoint

	// CurrentPositions computes per-symbol and aggregate performance for the
	// window [start, end]. A zero end defaults to today.
	CurrentPositions(ctx context.Context, start, end time.Time) (*models.PortfolioPerformanceResult, error)

	// ChartData produces a continuous historical value/performance series.
	ChartData(ctx context.Context, opts ChartDataOptions) ([]models.HistoricalDataItem, error)

	// CalculateTimeline produces one snapshot per period described by the
	// specs, applied in sequence until endDate.
	CalculateTimeline(ctx context.Context, specs []models.TimelineSpec, endDate time.Time) (*models.TimelineResult, error)

	// Investments returns the cumulative investment at each transaction point.
	Investments() []models.InvestmentItem

	// InvestmentsByGroup returns investment deltas bucketed by month or year.
	InvestmentsByGroup(groupBy models.GroupBy) []models.InvestmentItem
}

// ChartDataOptions configures the historical series computation.
type ChartDataOptions struct {
	Start time.Time
	End   time.Time // zero means today
	Step  int       // days between points, minimum 1
}
