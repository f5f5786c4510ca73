package performance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolab/folio/internal/interfaces"
	"github.com/foliolab/folio/internal/models"
)

func TestChartData_DailySeries(t *testing.T) {
	order := buyOrder(t, "SPA", "2023-01-02", "1", "100", "0")
	order.Currency = "USD"

	market := &fakeMarketData{resp: &models.MarketValuesResponse{
		Values: []models.MarketValue{
			marketValue(t, "SPA", "2023-01-02", "100"),
			marketValue(t, "SPA", "2023-01-03", "104"),
			marketValue(t, "SPA", "2023-01-05", "108"),
			marketValue(t, "SPA", "2023-01-06", "110"),
		},
	}}
	service := newTestService(market, &fakeFxRates{})
	service.ComputeTransactionPoints([]models.Order{order})

	items, err := service.ChartData(context.Background(), interfaces.ChartDataOptions{
		Start: d(t, "2023-01-02"),
		End:   d(t, "2023-01-06"),
		Step:  1,
	})
	require.NoError(t, err)
	require.Len(t, items, 5)

	assert.Equal(t, "2023-01-02", items[0].Date)
	assert.True(t, items[0].Value.Equal(dec("100")))
	assert.True(t, items[0].NetPerformance.IsZero())

	// The 4th has no close; the 3rd carries forward.
	assert.Equal(t, "2023-01-04", items[2].Date)
	assert.True(t, items[2].Value.Equal(dec("104")))
	assert.True(t, items[2].NetPerformance.Equal(dec("4")))

	last := items[4]
	assert.True(t, last.Value.Equal(dec("110")))
	assert.True(t, last.NetPerformance.Equal(dec("10")))
	assert.True(t, last.NetPerformanceInPercentage.Equal(dec("0.1")))
	assert.True(t, last.TotalInvestment.Equal(dec("100")))

	// One range fetch, padded a week back.
	assert.False(t, market.lastQuery.Discrete())
	assert.Equal(t, "2022-12-26", models.DateKey(market.lastQuery.From))
	assert.Equal(t, 1, market.calls)
}

func TestChartData_StepAlwaysIncludesEnd(t *testing.T) {
	keys := steppedDateKeys(d(t, "2023-01-02"), d(t, "2023-01-09"), 3)
	assert.Equal(t, []string{"2023-01-02", "2023-01-05", "2023-01-08", "2023-01-09"}, keys)
}

func TestChartData_NoHoldings(t *testing.T) {
	market := &fakeMarketData{}
	service := newTestService(market, &fakeFxRates{})

	items, err := service.ChartData(context.Background(), interfaces.ChartDataOptions{
		Start: d(t, "2023-01-02"),
		End:   d(t, "2023-01-06"),
	})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 0, market.calls)
}

func TestMergeSnapshots_CarriesSymbolsIndependently(t *testing.T) {
	a := positionResult{metrics: symbolMetrics{snapshots: []symbolSnapshot{
		{date: "2023-01-02", value: dec("100"), netPerformance: dec("0"), investment: dec("100")},
		{date: "2023-01-04", value: dec("104"), netPerformance: dec("4"), investment: dec("100")},
	}}}
	b := positionResult{metrics: symbolMetrics{snapshots: []symbolSnapshot{
		{date: "2023-01-03", value: dec("50"), netPerformance: dec("2"), investment: dec("48")},
	}}}
	failed := positionResult{metrics: symbolMetrics{hasErrors: true}}

	merged := mergeSnapshots([]positionResult{a, b, failed}, []string{"2023-01-02", "2023-01-03", "2023-01-04"})

	assert.True(t, merged["2023-01-02"].value.Equal(dec("100")), "b has no observation yet")
	assert.True(t, merged["2023-01-03"].value.Equal(dec("150")), "a carries 100 forward, b contributes 50")
	assert.True(t, merged["2023-01-04"].value.Equal(dec("154")))
	assert.True(t, merged["2023-01-04"].netPerformance.Equal(dec("6")))
	assert.True(t, merged["2023-01-04"].investment.Equal(dec("148")))
}
