package performance

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolab/folio/internal/interfaces"
	"github.com/foliolab/folio/internal/models"
)

type fakeMarketData struct {
	resp      *models.MarketValuesResponse
	err       error
	calls     int
	lastQuery models.DateQuery
}

func (f *fakeMarketData) GetValues(_ context.Context, _ []models.AssetRef, dateQuery models.DateQuery) (*models.MarketValuesResponse, error) {
	f.calls++
	f.lastQuery = dateQuery
	if f.err != nil {
		return nil, f.err
	}
	if f.resp == nil {
		return &models.MarketValuesResponse{}, nil
	}
	return f.resp, nil
}

type fakeFxRates struct {
	rates models.ExchangeRates
	calls int
}

func (f *fakeFxRates) GetExchangeRatesByCurrency(_ context.Context, _ []string, _, _ time.Time, _ string) (models.ExchangeRates, error) {
	f.calls++
	if f.rates == nil {
		return models.ExchangeRates{}, nil
	}
	return f.rates, nil
}

var (
	_ interfaces.MarketDataResolver   = (*fakeMarketData)(nil)
	_ interfaces.ExchangeRateResolver = (*fakeFxRates)(nil)
)

func marketValue(t *testing.T, symbol, date, price string) models.MarketValue {
	t.Helper()
	return models.MarketValue{
		DataSource:  "YAHOO",
		Symbol:      symbol,
		Date:        d(t, date),
		MarketPrice: dec(price),
	}
}

func newTestService(market *fakeMarketData, fx *fakeFxRates) *Service {
	return NewService(market, fx, "USD", nil)
}

func TestCurrentPositions_EmptyOrders(t *testing.T) {
	market := &fakeMarketData{}
	service := newTestService(market, &fakeFxRates{})

	result, err := service.CurrentPositions(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)

	assert.True(t, result.CurrentValue.IsZero())
	assert.True(t, result.TotalInvestment.IsZero())
	assert.False(t, result.HasErrors)
	assert.Empty(t, result.Positions)
	assert.Equal(t, 0, market.calls, "no resolver call without holdings")
}

func TestCurrentPositions_Blend(t *testing.T) {
	spa := buyOrder(t, "SPA", "2023-01-02", "200", "1", "0")
	spa.Currency = "USD"
	spb := buyOrder(t, "SPB", "2023-01-02", "300", "1", "0")
	spb.Currency = "USD"

	market := &fakeMarketData{resp: &models.MarketValuesResponse{
		Values: []models.MarketValue{
			marketValue(t, "SPA", "2023-01-02", "1"),
			marketValue(t, "SPA", "2023-07-01", "1.025"),
			marketValue(t, "SPB", "2023-01-02", "1"),
			marketValue(t, "SPB", "2023-07-01", "1.04"),
		},
	}}
	fx := &fakeFxRates{}
	service := newTestService(market, fx)

	service.ComputeTransactionPoints([]models.Order{spa, spb})

	result, err := service.CurrentPositions(context.Background(), d(t, "2023-01-02"), d(t, "2023-07-01"))
	require.NoError(t, err)

	assert.True(t, result.CurrentValue.Equal(dec("517")))
	assert.True(t, result.TotalInvestment.Equal(dec("500")))
	assert.True(t, result.GrossPerformance.Equal(dec("17")))
	assert.True(t, result.GrossPerformancePercentage.Equal(dec("0.034")),
		"contribution-weighted, not the naive average of 2.5%% and 4%%")
	assert.False(t, result.HasErrors)
	require.Len(t, result.Positions, 2)

	assert.Equal(t, 1, market.calls, "one batched price call per operation")
	assert.Equal(t, 0, fx.calls, "no FX call when every holding is in the base currency")
}

func TestCurrentPositions_MissingPrice(t *testing.T) {
	held := buyOrder(t, "GHOST", "2023-01-02", "3", "50", "0")
	held.Currency = "USD"
	fine := buyOrder(t, "SPA", "2023-01-02", "200", "1", "0")
	fine.Currency = "USD"

	market := &fakeMarketData{resp: &models.MarketValuesResponse{
		Values: []models.MarketValue{
			marketValue(t, "SPA", "2023-01-02", "1"),
			marketValue(t, "SPA", "2023-07-01", "1.025"),
		},
		Errors: []models.AssetRef{{DataSource: "YAHOO", Symbol: "GHOST"}},
	}}
	service := newTestService(market, &fakeFxRates{})

	service.ComputeTransactionPoints([]models.Order{held, fine})

	result, err := service.CurrentPositions(context.Background(), d(t, "2023-01-02"), d(t, "2023-07-01"))
	require.NoError(t, err)

	assert.True(t, result.HasErrors)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "GHOST", result.Errors[0].Symbol)

	var ghost models.TimelinePosition
	for _, p := range result.Positions {
		if p.Symbol == "GHOST" {
			ghost = p
		}
	}
	require.Equal(t, "GHOST", ghost.Symbol)
	assert.Nil(t, ghost.NetPerformance, "performance degrades to null")
	assert.True(t, ghost.Quantity.Equal(dec("3")), "quantity stays populated")
	assert.True(t, ghost.Investment.Equal(dec("150")))

	// The asymmetry: unknown value excluded, investment still summed.
	assert.True(t, result.TotalInvestment.Equal(dec("350")))
	assert.True(t, result.CurrentValue.Equal(dec("205")))
}

func TestCurrentPositions_Deterministic(t *testing.T) {
	spa := buyOrder(t, "SPA", "2023-01-02", "200", "1", "0.35")
	spa.Currency = "USD"
	spb := buyOrder(t, "SPB", "2023-02-06", "300", "1", "0.45")
	spb.Currency = "USD"

	market := &fakeMarketData{resp: &models.MarketValuesResponse{
		Values: []models.MarketValue{
			marketValue(t, "SPA", "2023-01-02", "1"),
			marketValue(t, "SPA", "2023-07-01", "1.025"),
			marketValue(t, "SPB", "2023-02-06", "1"),
			marketValue(t, "SPB", "2023-07-01", "1.04"),
		},
	}}
	service := newTestService(market, &fakeFxRates{})
	service.ComputeTransactionPoints([]models.Order{spa, spb})

	first, err := service.CurrentPositions(context.Background(), d(t, "2023-01-02"), d(t, "2023-07-01"))
	require.NoError(t, err)
	second, err := service.CurrentPositions(context.Background(), d(t, "2023-01-02"), d(t, "2023-07-01"))
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b), "identical inputs produce bit-identical output")
}

func TestTransactionPointsAccessorCopies(t *testing.T) {
	service := newTestService(&fakeMarketData{}, &fakeFxRates{})
	service.ComputeTransactionPoints([]models.Order{
		buyOrder(t, "SPA", "2023-01-02", "1", "10", "0"),
	})

	points := service.TransactionPoints()
	require.Len(t, points, 1)
	points[0].Date = time.Time{}

	again := service.TransactionPoints()
	assert.Equal(t, "2023-01-02", models.DateKey(again[0].Date), "callers mutate a copy")
}

func TestHoldingsAsOf(t *testing.T) {
	points := buildTransactionPoints([]models.Order{
		buyOrder(t, "SPA", "2023-01-02", "1", "10", "0"),
		buyOrder(t, "SPB", "2023-03-01", "1", "20", "0"),
	})

	assert.Empty(t, holdingsAsOf(points, d(t, "2022-12-31")))
	assert.Len(t, holdingsAsOf(points, d(t, "2023-01-15")), 1)
	assert.Len(t, holdingsAsOf(points, d(t, "2023-04-01")), 2)
}

func TestForeignCurrencies(t *testing.T) {
	holdings := []models.TransactionPointSymbol{
		{Symbol: "A", Currency: "USD"},
		{Symbol: "B", Currency: "CHF"},
		{Symbol: "C", Currency: "CHF"},
		{Symbol: "D", Currency: "EUR"},
	}
	assert.Equal(t, []string{"CHF", "EUR"}, foreignCurrencies(holdings, "USD"))
	assert.Empty(t, foreignCurrencies(holdings[:1], "USD"))
}
