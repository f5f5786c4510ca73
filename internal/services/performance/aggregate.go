package performance

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliolab/folio/internal/models"
)

// aggregatePositions combines per-symbol results into portfolio totals.
// Absolute values are commutative decimal sums in stable holding order, so
// totals are reproducible regardless of which worker finished first.
//
// Percentages are contribution-weighted: each symbol's percentage weighted by
// its time-weighted (falling back to initial) invested value, summed, then
// divided by the sum of weights. Never an arithmetic mean.
func aggregatePositions(results []positionResult, end time.Time) *models.PortfolioPerformanceResult {
	result := emptyResult()

	var (
		weightSum   decimal.Decimal
		weightSumFx decimal.Decimal

		grossPctWeighted      decimal.Decimal
		netPctWeighted        decimal.Decimal
		grossPctWeightedFx    decimal.Decimal
		netPctWeightedFx      decimal.Decimal
		annualizedPctWeighted decimal.Decimal
	)

	for _, r := range results {
		position := r.position
		result.Positions = append(result.Positions, position)

		// A symbol without a resolvable market value still contributes its
		// investment to the total even though its value is excluded. The
		// asymmetry is deliberate.
		result.TotalInvestment = result.TotalInvestment.Add(position.Investment)

		if r.metrics.hasErrors {
			result.Errors = append(result.Errors, models.AssetRef{
				DataSource: position.DataSource,
				Symbol:     position.Symbol,
			})
			if !position.Quantity.IsZero() {
				result.HasErrors = true
			}
			continue
		}

		result.CurrentValue = result.CurrentValue.Add(position.MarketValue)
		result.GrossPerformance = result.GrossPerformance.Add(*position.GrossPerformance)
		result.NetPerformance = result.NetPerformance.Add(*position.NetPerformance)
		result.GrossPerformanceWithCurrencyEffect = result.GrossPerformanceWithCurrencyEffect.Add(*position.GrossPerformanceWithCurrencyEffect)
		result.NetPerformanceWithCurrencyEffect = result.NetPerformanceWithCurrencyEffect.Add(*position.NetPerformanceWithCurrencyEffect)

		weight := position.TimeWeightedInvestment
		if !weight.IsPositive() {
			weight = position.Investment
		}
		weightFx := position.TimeWeightedInvestmentWithCurrencyEffect
		if !weightFx.IsPositive() {
			weightFx = position.Investment
		}

		if weight.IsPositive() {
			weightSum = weightSum.Add(weight)
			grossPctWeighted = grossPctWeighted.Add(position.GrossPerformancePercentage.Mul(weight))
			netPctWeighted = netPctWeighted.Add(position.NetPerformancePercentage.Mul(weight))

			daysInMarket := int64(0)
			if !position.FirstBuyDate.IsZero() {
				daysInMarket = daysBetween(position.FirstBuyDate, end)
			}
			annualized := annualizedPercent(*position.NetPerformancePercentage, daysInMarket)
			annualizedPctWeighted = annualizedPctWeighted.Add(annualized.Mul(weight))
		}
		if weightFx.IsPositive() {
			weightSumFx = weightSumFx.Add(weightFx)
			grossPctWeightedFx = grossPctWeightedFx.Add(position.GrossPerformancePercentageWithCurrencyEffect.Mul(weightFx))
			netPctWeightedFx = netPctWeightedFx.Add(position.NetPerformancePercentageWithCurrencyEffect.Mul(weightFx))
		}
	}

	if weightSum.IsPositive() {
		result.GrossPerformancePercentage = grossPctWeighted.Div(weightSum)
		result.NetPerformancePercentage = netPctWeighted.Div(weightSum)
		result.NetAnnualizedPerformance = annualizedPctWeighted.Div(weightSum)
	}
	if weightSumFx.IsPositive() {
		result.GrossPerformancePercentageWithCurrencyEffect = grossPctWeightedFx.Div(weightSumFx)
		result.NetPerformancePercentageWithCurrencyEffect = netPctWeightedFx.Div(weightSumFx)
	}

	return result
}

// annualizedPercent compounds a fractional net return to a yearly rate via
// (1 + netPercent)^(365 / daysInMarket) - 1. Non-positive holding periods and
// non-finite results yield zero, never a NaN or an error.
func annualizedPercent(netPercent decimal.Decimal, daysInMarket int64) decimal.Decimal {
	if daysInMarket <= 0 {
		return decimal.Zero
	}

	base := decimal.NewFromInt(1).Add(netPercent).InexactFloat64()
	exponent := 365 / float64(daysInMarket)

	annualized := math.Pow(base, exponent) - 1
	if math.IsNaN(annualized) || math.IsInf(annualized, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(annualized)
}
