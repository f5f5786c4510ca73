package performance

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliolab/folio/internal/common"
	"github.com/foliolab/folio/internal/interfaces"
	"github.com/foliolab/folio/internal/models"
)

// Service implements PerformanceService. Per-symbol computations share no
// mutable state and run on a bounded worker pool; resolver calls happen once
// per operation, before any computation starts.
type Service struct {
	marketData   interfaces.MarketDataResolver
	fxRates      interfaces.ExchangeRateResolver
	baseCurrency string
	logger       *common.Logger
	workers      int

	mu                sync.RWMutex
	orders            []models.Order
	transactionPoints []models.TransactionPoint
}

// NewService creates a performance service for the given base currency.
func NewService(marketData interfaces.MarketDataResolver, fxRates interfaces.ExchangeRateResolver, baseCurrency string, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		marketData:   marketData,
		fxRates:      fxRates,
		baseCurrency: baseCurrency,
		logger:       logger,
		workers:      runtime.GOMAXPROCS(0),
	}
}

// ComputeTransactionPoints folds the orders into chronological snapshots,
// replacing any previously computed state. The caller's slice is copied, not
// retained.
func (s *Service) ComputeTransactionPoints(orders []models.Order) {
	copied := make([]models.Order, len(orders))
	copy(copied, orders)

	points := buildTransactionPoints(copied)

	s.mu.Lock()
	s.orders = copied
	s.transactionPoints = points
	s.mu.Unlock()

	s.logger.Debug().Int("orders", len(copied)).Int("points", len(points)).Msg("Transaction points computed")
}

// TransactionPoints returns the computed snapshots, ordered by date.
func (s *Service) TransactionPoints() []models.TransactionPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := make([]models.TransactionPoint, len(s.transactionPoints))
	copy(points, s.transactionPoints)
	return points
}

// snapshotState returns a consistent view of orders and transaction points.
func (s *Service) snapshotState() ([]models.Order, []models.TransactionPoint) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders, s.transactionPoints
}

// emptyResult is the zero-activity outcome: everything zero, no errors.
func emptyResult() *models.PortfolioPerformanceResult {
	return &models.PortfolioPerformanceResult{
		CurrentValue:    decimal.Zero,
		TotalInvestment: decimal.Zero,
		Positions:       []models.TimelinePosition{},
	}
}

// CurrentPositions computes per-symbol and aggregate performance for the
// window [start, end].
func (s *Service) CurrentPositions(ctx context.Context, start, end time.Time) (*models.PortfolioPerformanceResult, error) {
	if end.IsZero() {
		end = today()
	}
	start = dayOf(start)
	end = dayOf(end)

	orders, points := s.snapshotState()

	holdings := holdingsAsOf(points, end)
	if len(holdings) == 0 {
		return emptyResult(), nil
	}

	env, err := s.fetchResolverData(ctx, holdings, orders, models.DateQuery{Dates: []time.Time{start, end}}, end)
	if err != nil {
		return nil, err
	}

	positions := s.computePositions(holdings, orders, start, end, env, nil)

	result := aggregatePositions(positions, end)

	s.logger.Debug().
		Int("positions", len(positions)).
		Bool("hasErrors", result.HasErrors).
		Msg("Current positions computed")

	return result, nil
}

// resolverData is the pre-fetched market environment one computation uses.
type resolverData struct {
	prices map[models.AssetRef]map[string]decimal.Decimal
	failed map[models.AssetRef]bool
	rates  models.ExchangeRates
}

// fetchResolverData performs the two batched external calls: market prices
// for the holdings over the date query, and FX rates for every order currency
// from the earliest order date through the window end.
func (s *Service) fetchResolverData(ctx context.Context, holdings []models.TransactionPointSymbol, orders []models.Order, dateQuery models.DateQuery, end time.Time) (*resolverData, error) {
	assets := make([]models.AssetRef, 0, len(holdings))
	for _, h := range holdings {
		assets = append(assets, h.Asset())
	}

	resp, err := s.marketData.GetValues(ctx, assets, dateQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve market prices: %w", err)
	}

	env := &resolverData{
		prices: make(map[models.AssetRef]map[string]decimal.Decimal, len(assets)),
		failed: make(map[models.AssetRef]bool),
		rates:  models.ExchangeRates{},
	}
	for _, value := range resp.Values {
		asset := value.Asset()
		if env.prices[asset] == nil {
			env.prices[asset] = make(map[string]decimal.Decimal)
		}
		env.prices[asset][models.DateKey(value.Date)] = value.MarketPrice
	}
	for _, ref := range resp.Errors {
		env.failed[ref] = true
	}

	currencies := foreignCurrencies(holdings, s.baseCurrency)
	if len(currencies) > 0 {
		rateStart := earliestOrderDate(orders)
		if rateStart.IsZero() || rateStart.After(end) {
			rateStart = end
		}
		rates, err := s.fxRates.GetExchangeRatesByCurrency(ctx, currencies, rateStart, end, s.baseCurrency)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve exchange rates: %w", err)
		}
		env.rates = rates
	}

	return env, nil
}

// computePositions runs the symbol metrics walk for every holding on a worker
// pool. Results land in a per-index slice so the output order is the stable
// holding order regardless of scheduling.
func (s *Service) computePositions(holdings []models.TransactionPointSymbol, orders []models.Order, start, end time.Time, env *resolverData, chartDates []string) []positionResult {
	ordersBySymbol := make(map[string][]models.Order)
	for _, order := range orders {
		ordersBySymbol[order.Symbol] = append(ordersBySymbol[order.Symbol], order)
	}

	results := make([]positionResult, len(holdings))

	workers := s.workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := range holdings {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			holding := holdings[i]
			asset := holding.Asset()

			var metrics symbolMetrics
			if env.failed[asset] {
				metrics = symbolMetrics{hasErrors: true}
			} else {
				metrics = computeSymbolMetrics(symbolQuery{
					asset:        asset,
					currency:     holding.Currency,
					orders:       ordersBySymbol[holding.Symbol],
					start:        start,
					end:          end,
					prices:       env.prices[asset],
					rates:        env.rates,
					baseCurrency: s.baseCurrency,
					chartDates:   chartDates,
				})
			}

			results[i] = positionResult{
				position: buildPosition(holding, metrics, env.rates, s.baseCurrency, end),
				metrics:  metrics,
			}
		}(i)
	}
	wg.Wait()

	return results
}

// positionResult pairs the exported position with the walk internals the
// aggregator and chart builder still need.
type positionResult struct {
	position models.TimelinePosition
	metrics  symbolMetrics
}

// buildPosition assembles the caller-facing position. On errors the
// performance fields stay nil while quantity and investment remain populated
// from the accumulated ledger state.
func buildPosition(holding models.TransactionPointSymbol, metrics symbolMetrics, rates models.ExchangeRates, baseCurrency string, end time.Time) models.TimelinePosition {
	position := models.TimelinePosition{
		Symbol:           holding.Symbol,
		DataSource:       holding.DataSource,
		Currency:         holding.Currency,
		Quantity:         holding.Quantity,
		AveragePrice:     holding.AveragePrice,
		FirstBuyDate:     holding.FirstBuyDate,
		TransactionCount: holding.TransactionCount,
	}

	if metrics.hasErrors {
		endRate := rates.Rate(holding.Currency, baseCurrency, end)
		position.Investment = holding.Investment.Mul(endRate)
		position.Fee = holding.Fee.Mul(endRate)
		position.Dividend = holding.Dividend.Mul(endRate)
		return position
	}

	position.Investment = metrics.investment
	position.MarketPrice = metrics.marketPrice
	position.MarketValue = metrics.marketValue
	position.Fee = metrics.fee
	position.Dividend = metrics.dividend
	position.GrossPerformance = metrics.gross
	position.GrossPerformancePercentage = metrics.grossPct
	position.GrossPerformanceWithCurrencyEffect = metrics.grossFx
	position.GrossPerformancePercentageWithCurrencyEffect = metrics.grossPctFx
	position.NetPerformance = metrics.net
	position.NetPerformancePercentage = metrics.netPct
	position.NetPerformanceWithCurrencyEffect = metrics.netFx
	position.NetPerformancePercentageWithCurrencyEffect = metrics.netPctFx
	position.TimeWeightedInvestment = metrics.timeWeightedInvestment
	position.TimeWeightedInvestmentWithCurrencyEffect = metrics.timeWeightedInvestmentFx

	return position
}

// holdingsAsOf returns the per-symbol entries of the last transaction point
// at or before the given date. The last point carries every symbol ever held.
func holdingsAsOf(points []models.TransactionPoint, date time.Time) []models.TransactionPointSymbol {
	var holdings []models.TransactionPointSymbol
	for _, point := range points {
		if point.Date.After(date) {
			break
		}
		holdings = point.Items
	}
	return holdings
}

// foreignCurrencies collects the distinct holding currencies other than the
// base currency, in stable holding order.
func foreignCurrencies(holdings []models.TransactionPointSymbol, baseCurrency string) []string {
	seen := make(map[string]bool)
	var currencies []string
	for _, h := range holdings {
		if h.Currency == "" || h.Currency == baseCurrency || seen[h.Currency] {
			continue
		}
		seen[h.Currency] = true
		currencies = append(currencies, h.Currency)
	}
	return currencies
}

func earliestOrderDate(orders []models.Order) time.Time {
	var earliest time.Time
	for _, order := range orders {
		if earliest.IsZero() || order.Date.Before(earliest) {
			earliest = order.Date
		}
	}
	return earliest
}

func dayOf(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

func today() time.Time {
	return dayOf(time.Now())
}

// Ensure Service implements PerformanceService
var _ interfaces.PerformanceService = (*Service)(nil)
