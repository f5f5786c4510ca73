// Package report renders portfolio performance results for humans
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/foliolab/folio/internal/common"
	"github.com/foliolab/folio/internal/models"
)

// FormatSummary generates a markdown summary of a performance result. All
// monetary figures are in the base currency except average and market prices,
// which stay in each symbol's own currency.
func FormatSummary(result *models.PortfolioPerformanceResult, baseCurrency string, asOf string) string {
	var sb strings.Builder

	sb.WriteString("# Portfolio Performance\n\n")
	sb.WriteString(fmt.Sprintf("**Date:** %s\n", asOf))
	sb.WriteString(fmt.Sprintf("**Current Value:** %s\n", common.FormatMoney(result.CurrentValue, baseCurrency)))
	sb.WriteString(fmt.Sprintf("**Total Investment:** %s\n", common.FormatMoney(result.TotalInvestment, baseCurrency)))
	sb.WriteString(fmt.Sprintf("**Net Performance:** %s (%s)\n",
		common.FormatSignedMoney(result.NetPerformanceWithCurrencyEffect, baseCurrency),
		common.FormatSignedPct(result.NetPerformancePercentageWithCurrencyEffect)))
	sb.WriteString(fmt.Sprintf("**Net Performance (excl. currency):** %s (%s)\n",
		common.FormatSignedMoney(result.NetPerformance, baseCurrency),
		common.FormatSignedPct(result.NetPerformancePercentage)))
	sb.WriteString(fmt.Sprintf("**Annualized:** %s\n\n", common.FormatSignedPct(result.NetAnnualizedPerformance)))

	positions := make([]models.TimelinePosition, len(result.Positions))
	copy(positions, result.Positions)
	sort.Slice(positions, func(i, j int) bool { return positions[i].Symbol < positions[j].Symbol })

	sb.WriteString("## Positions\n\n")
	sb.WriteString("| Symbol | Qty | Avg Buy | Price | Value | Net | Net % |\n")
	sb.WriteString("|--------|-----|---------|-------|-------|-----|-------|\n")
	for _, p := range positions {
		if p.NetPerformance == nil {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | — | — | — | — |\n",
				p.Symbol, p.Quantity.String(), common.FormatMoney(p.AveragePrice, p.Currency)))
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s |\n",
			p.Symbol, p.Quantity.String(),
			common.FormatMoney(p.AveragePrice, p.Currency),
			common.FormatMoney(p.MarketPrice, p.Currency),
			common.FormatMoney(p.MarketValue, baseCurrency),
			common.FormatSignedMoney(*p.NetPerformance, baseCurrency),
			common.FormatSignedPct(*p.NetPerformancePercentage)))
	}
	sb.WriteString("\n")

	dividends := decimal.Zero
	fees := decimal.Zero
	for _, p := range positions {
		dividends = dividends.Add(p.Dividend)
		fees = fees.Add(p.Fee)
	}
	sb.WriteString(fmt.Sprintf("**Dividends:** %s | **Fees:** %s\n",
		common.FormatMoney(dividends, baseCurrency), common.FormatMoney(fees, baseCurrency)))

	if result.HasErrors {
		sb.WriteString("\n## Warnings\n\n")
		for _, ref := range result.Errors {
			sb.WriteString(fmt.Sprintf("- no market price for %s (%s); its performance is excluded\n",
				ref.Symbol, ref.DataSource))
		}
	}

	return sb.String()
}
