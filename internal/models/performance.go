package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimelinePosition is the per-symbol output of a performance computation.
// Performance fields are nil when the symbol's prices could not be resolved;
// quantity and investment stay populated so callers can still render the
// position.
type TimelinePosition struct {
	Symbol     string `json:"symbol"`
	DataSource string `json:"dataSource"`
	Currency   string `json:"currency"`

	Quantity     decimal.Decimal `json:"quantity"`
	Investment   decimal.Decimal `json:"investment"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
	MarketPrice  decimal.Decimal `json:"marketPrice"` // in the symbol's currency
	MarketValue  decimal.Decimal `json:"marketValue"` // in the base currency

	GrossPerformance                             *decimal.Decimal `json:"grossPerformance"`
	GrossPerformancePercentage                   *decimal.Decimal `json:"grossPerformancePercentage"`
	GrossPerformanceWithCurrencyEffect           *decimal.Decimal `json:"grossPerformanceWithCurrencyEffect"`
	GrossPerformancePercentageWithCurrencyEffect *decimal.Decimal `json:"grossPerformancePercentageWithCurrencyEffect"`
	NetPerformance                               *decimal.Decimal `json:"netPerformance"`
	NetPerformancePercentage                     *decimal.Decimal `json:"netPerformancePercentage"`
	NetPerformanceWithCurrencyEffect             *decimal.Decimal `json:"netPerformanceWithCurrencyEffect"`
	NetPerformancePercentageWithCurrencyEffect   *decimal.Decimal `json:"netPerformancePercentageWithCurrencyEffect"`

	TimeWeightedInvestment                   decimal.Decimal `json:"timeWeightedInvestment"`
	TimeWeightedInvestmentWithCurrencyEffect decimal.Decimal `json:"timeWeightedInvestmentWithCurrencyEffect"`

	Dividend         decimal.Decimal `json:"dividend"`
	Fee              decimal.Decimal `json:"fee"`
	FirstBuyDate     time.Time       `json:"firstBuyDate"`
	TransactionCount int             `json:"transactionCount"`
}

// PortfolioPerformanceResult is the portfolio-level aggregate.
type PortfolioPerformanceResult struct {
	CurrentValue    decimal.Decimal `json:"currentValue"`
	TotalInvestment decimal.Decimal `json:"totalInvestment"`

	GrossPerformance                             decimal.Decimal `json:"grossPerformance"`
	GrossPerformancePercentage                   decimal.Decimal `json:"grossPerformancePercentage"`
	GrossPerformanceWithCurrencyEffect           decimal.Decimal `json:"grossPerformanceWithCurrencyEffect"`
	GrossPerformancePercentageWithCurrencyEffect decimal.Decimal `json:"grossPerformancePercentageWithCurrencyEffect"`
	NetPerformance                               decimal.Decimal `json:"netPerformance"`
	NetPerformancePercentage                     decimal.Decimal `json:"netPerformancePercentage"`
	NetPerformanceWithCurrencyEffect             decimal.Decimal `json:"netPerformanceWithCurrencyEffect"`
	NetPerformancePercentageWithCurrencyEffect   decimal.Decimal `json:"netPerformancePercentageWithCurrencyEffect"`

	NetAnnualizedPerformance decimal.Decimal `json:"netAnnualizedPerformance"`

	HasErrors bool               `json:"hasErrors"`
	Errors    []AssetRef         `json:"errors,omitempty"`
	Positions []TimelinePosition `json:"positions"`
}

// HistoricalDataItem is one point of a continuous value/performance series.
type HistoricalDataItem struct {
	Date                       string          `json:"date"`
	Value                      decimal.Decimal `json:"value"`
	NetPerformance             decimal.Decimal `json:"netPerformance"`
	NetPerformanceInPercentage decimal.Decimal `json:"netPerformanceInPercentage"`
	TotalInvestment            decimal.Decimal `json:"totalInvestment"`
}

// InvestmentItem is one point of the cumulative investment series.
type InvestmentItem struct {
	Date       string          `json:"date"`
	Investment decimal.Decimal `json:"investment"`
}

// GroupBy selects the bucket size for grouped investment series.
type GroupBy string

const (
	GroupByMonth GroupBy = "month"
	GroupByYear  GroupBy = "year"
)

// TimelineAccuracy selects the snapshot density of a timeline segment.
type TimelineAccuracy string

const (
	AccuracyDay   TimelineAccuracy = "day"
	AccuracyMonth TimelineAccuracy = "month"
	AccuracyYear  TimelineAccuracy = "year"
)

// TimelineSpec starts a timeline segment of a given accuracy. Specs are
// applied in sequence; each one runs until the next spec's start date.
type TimelineSpec struct {
	Start    time.Time        `json:"start"`
	Accuracy TimelineAccuracy `json:"accuracy"`
}

// TimelinePeriod is one snapshot of the timeline series.
type TimelinePeriod struct {
	Date             string          `json:"date"`
	Value            decimal.Decimal `json:"value"`
	GrossPerformance decimal.Decimal `json:"grossPerformance"`
	NetPerformance   decimal.Decimal `json:"netPerformance"`
	Investment       decimal.Decimal `json:"investment"`
}

// TimelineResult is the full timeline series plus the net performance range
// observed across it, for chart-axis scaling.
type TimelineResult struct {
	TimelinePeriods   []TimelinePeriod `json:"timelinePeriods"`
	MinNetPerformance decimal.Decimal  `json:"minNetPerformance"`
	MaxNetPerformance decimal.Decimal  `json:"maxNetPerformance"`
}
