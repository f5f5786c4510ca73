package performance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliolab/folio/internal/models"
)

// orderRole tags how an entry participates in the metrics walk. The role is
// carried beside the order payload; virtual entries never leave this package.
type orderRole int

const (
	roleReal orderRole = iota
	roleBoundaryStart // zero-quantity entry pinning market value at the window start
	roleBoundaryEnd   // zero-quantity entry pinning market value at the window end, terminal
	roleValuation     // chart-mode daily marker carrying the last known price forward
)

// walkOrder is one entry of the augmented sequence the walk consumes.
type walkOrder struct {
	order models.Order
	role  orderRole
}

// symbolQuery describes one symbol metrics computation.
type symbolQuery struct {
	asset    models.AssetRef
	currency string
	orders   []models.Order // the symbol's real orders, unsorted is fine
	start    time.Time
	end      time.Time
	// prices holds resolved market prices in the symbol's currency, keyed by
	// canonical date string. The walk needs prices only at the boundaries and,
	// in chart mode, across the range.
	prices       map[string]decimal.Decimal
	rates        models.ExchangeRates
	baseCurrency string
	// chartDates enables chart mode: one snapshot per listed day key,
	// ascending. Days without a real order get a valuation marker.
	chartDates []string
}

// symbolSnapshot is one chart-mode observation, valued under the own-date FX
// regime (the value an investor actually saw on that day).
type symbolSnapshot struct {
	date             string
	value            decimal.Decimal
	grossPerformance decimal.Decimal
	netPerformance   decimal.Decimal
	investment       decimal.Decimal
}

// symbolMetrics is the outcome of one walk. Monetary fields are in the base
// currency; marketPrice stays in the symbol's currency. Performance pointers
// are nil when hasErrors is set.
type symbolMetrics struct {
	hasErrors bool

	marketPrice decimal.Decimal
	marketValue decimal.Decimal
	investment  decimal.Decimal
	fee         decimal.Decimal
	dividend    decimal.Decimal

	gross      *decimal.Decimal
	net        *decimal.Decimal
	grossFx    *decimal.Decimal
	netFx      *decimal.Decimal
	grossPct   *decimal.Decimal
	netPct     *decimal.Decimal
	grossPctFx *decimal.Decimal
	netPctFx   *decimal.Decimal

	timeWeightedInvestment   decimal.Decimal
	timeWeightedInvestmentFx decimal.Decimal

	snapshots []symbolSnapshot
}

// computeSymbolMetrics walks one symbol's augmented order sequence exactly
// once: pre-window history first, then the start boundary, the in-window
// orders and valuation markers, terminating on the end boundary.
//
// Two FX regimes run through the same loop: the fixed regime converts every
// amount at the window-end rate (isolating performance from currency
// movement), the own-date regime converts at each entry's own rate. Their
// difference is the currency effect.
func computeSymbolMetrics(q symbolQuery) symbolMetrics {
	endPrice, haveEndPrice := priceAsOf(q.prices, q.end)
	if !haveEndPrice {
		return symbolMetrics{hasErrors: true}
	}

	hasPreStartHistory := false
	for _, order := range q.orders {
		if order.Date.Before(q.start) {
			hasPreStartHistory = true
			break
		}
	}

	startPrice, haveStartPrice := priceAsOf(q.prices, q.start)
	if !haveStartPrice {
		if hasPreStartHistory {
			// The opening value cannot be established.
			return symbolMetrics{hasErrors: true}
		}
		startPrice = decimal.Zero
	}

	sequence := buildWalkSequence(q, startPrice, endPrice)

	endRate := q.rates.Rate(q.currency, q.baseCurrency, q.end)

	var (
		totalUnits decimal.Decimal

		totalInvestment   decimal.Decimal
		totalInvestmentFx decimal.Decimal
		averagePrice      decimal.Decimal // base currency, fixed regime, buy legs only
		averagePriceFx    decimal.Decimal
		realized          decimal.Decimal
		realizedFx        decimal.Decimal
		fees              decimal.Decimal
		feesFx            decimal.Decimal
		dividend          decimal.Decimal
		dividendFx        decimal.Decimal

		windowOpen          bool
		investmentAtStart   decimal.Decimal
		investmentAtStartFx decimal.Decimal
		valueAtStart        decimal.Decimal
		valueAtStartFx      decimal.Decimal
		grossAtStart        decimal.Decimal
		grossAtStartFx      decimal.Decimal
		feesAtStart         decimal.Decimal
		feesAtStartFx       decimal.Decimal

		sumTimeWeighted   decimal.Decimal
		sumTimeWeightedFx decimal.Decimal
		daysInMarket      int64

		prevDate time.Time

		snapshotOrder []string
		snapshotByDay map[string]symbolSnapshot
	)

	if len(q.chartDates) > 0 {
		snapshotByDay = make(map[string]symbolSnapshot, len(q.chartDates))
	}

	for _, entry := range sequence {
		order := entry.order
		rate := q.rates.Rate(q.currency, q.baseCurrency, order.Date)
		priceBase := order.UnitPrice.Mul(endRate)
		priceBaseFx := order.UnitPrice.Mul(rate)

		valueBefore := totalUnits.Mul(priceBase)
		valueBeforeFx := totalUnits.Mul(priceBaseFx)

		// Day-weight the capital at risk for each interval between entries
		// inside the window while the position is invested.
		if windowOpen && valueBefore.IsPositive() {
			days := daysBetween(prevDate, order.Date)
			if days > 0 {
				weight := valueAtStart.Sub(investmentAtStart).Add(totalInvestment)
				weightFx := valueAtStartFx.Sub(investmentAtStartFx).Add(totalInvestmentFx)
				d := decimal.NewFromInt(days)
				sumTimeWeighted = sumTimeWeighted.Add(weight.Mul(d))
				sumTimeWeightedFx = sumTimeWeightedFx.Add(weightFx.Mul(d))
				daysInMarket += days
			}
		}

		if entry.role == roleBoundaryStart {
			windowOpen = true
			investmentAtStart = totalInvestment
			investmentAtStartFx = totalInvestmentFx
			valueAtStart = valueBefore
			valueAtStartFx = valueBeforeFx
			grossAtStart = valueBefore.Sub(totalInvestment).Add(realized)
			grossAtStartFx = valueBeforeFx.Sub(totalInvestmentFx).Add(realizedFx)
			feesAtStart = fees
			feesAtStartFx = feesFx
		}

		switch order.Type {
		case models.OrderTypeBuy:
			if order.Quantity.IsPositive() {
				totalInvestment = totalInvestment.Add(order.Quantity.Mul(priceBase))
				totalInvestmentFx = totalInvestmentFx.Add(order.Quantity.Mul(priceBaseFx))
				totalUnits = totalUnits.Add(order.Quantity)
				averagePrice = totalInvestment.Div(totalUnits)
				averagePriceFx = totalInvestmentFx.Div(totalUnits)
			}
		case models.OrderTypeSell:
			if order.Quantity.IsPositive() {
				realized = realized.Add(priceBase.Sub(averagePrice).Mul(order.Quantity))
				realizedFx = realizedFx.Add(priceBaseFx.Sub(averagePriceFx).Mul(order.Quantity))
				totalUnits = totalUnits.Sub(order.Quantity)
				if totalUnits.IsZero() {
					totalInvestment = decimal.Zero
					totalInvestmentFx = decimal.Zero
				} else {
					totalInvestment = totalInvestment.Sub(order.Quantity.Mul(averagePrice))
					totalInvestmentFx = totalInvestmentFx.Sub(order.Quantity.Mul(averagePriceFx))
				}
			}
		case models.OrderTypeDividend:
			dividend = dividend.Add(order.Quantity.Mul(priceBase))
			dividendFx = dividendFx.Add(order.Quantity.Mul(priceBaseFx))
		}

		fees = fees.Add(order.Fee.Mul(endRate))
		feesFx = feesFx.Add(order.Fee.Mul(rate))

		if snapshotByDay != nil && windowOpen {
			valueNowFx := totalUnits.Mul(priceBaseFx)
			grossNowFx := valueNowFx.Sub(totalInvestmentFx).Add(realizedFx).Sub(grossAtStartFx)
			netNowFx := grossNowFx.Sub(feesFx.Sub(feesAtStartFx))

			key := models.DateKey(order.Date)
			if _, seen := snapshotByDay[key]; !seen {
				snapshotOrder = append(snapshotOrder, key)
			}
			snapshotByDay[key] = symbolSnapshot{
				date:             key,
				value:            valueNowFx,
				grossPerformance: grossNowFx,
				netPerformance:   netNowFx,
				investment:       totalInvestmentFx,
			}
		}

		prevDate = order.Date

		if entry.role == roleBoundaryEnd {
			break
		}
	}

	endValue := totalUnits.Mul(endPrice).Mul(endRate)

	gross := endValue.Sub(totalInvestment).Add(realized).Sub(grossAtStart)
	grossFx := endValue.Sub(totalInvestmentFx).Add(realizedFx).Sub(grossAtStartFx)
	net := gross.Sub(fees.Sub(feesAtStart))
	netFx := grossFx.Sub(feesFx.Sub(feesAtStartFx))

	var timeWeighted, timeWeightedFx decimal.Decimal
	if daysInMarket > 0 {
		d := decimal.NewFromInt(daysInMarket)
		timeWeighted = sumTimeWeighted.Div(d)
		timeWeightedFx = sumTimeWeightedFx.Div(d)
	}

	grossPct := percentageOf(gross, timeWeighted)
	netPct := percentageOf(net, timeWeighted)
	grossPctFx := percentageOf(grossFx, timeWeightedFx)
	netPctFx := percentageOf(netFx, timeWeightedFx)

	metrics := symbolMetrics{
		marketPrice:              endPrice,
		marketValue:              endValue,
		investment:               totalInvestment,
		fee:                      feesFx,
		dividend:                 dividendFx,
		gross:                    &gross,
		net:                      &net,
		grossFx:                  &grossFx,
		netFx:                    &netFx,
		grossPct:                 &grossPct,
		netPct:                   &netPct,
		grossPctFx:               &grossPctFx,
		netPctFx:                 &netPctFx,
		timeWeightedInvestment:   timeWeighted,
		timeWeightedInvestmentFx: timeWeightedFx,
	}

	for _, key := range snapshotOrder {
		metrics.snapshots = append(metrics.snapshots, snapshotByDay[key])
	}
	sort.Slice(metrics.snapshots, func(i, j int) bool {
		return metrics.snapshots[i].date < metrics.snapshots[j].date
	})

	return metrics
}

// buildWalkSequence assembles the augmented order sequence: the symbol's real
// orders up to the window end, the two boundary entries, and (in chart mode)
// one valuation marker per day lacking a real order. The result is sorted by
// date with boundaries breaking ties just before/after same-day real orders.
func buildWalkSequence(q symbolQuery, startPrice, endPrice decimal.Decimal) []walkOrder {
	sequence := make([]walkOrder, 0, len(q.orders)+2+len(q.chartDates))

	realDays := make(map[string]bool, len(q.orders))
	for _, order := range q.orders {
		if order.Date.After(q.end) {
			continue
		}
		sequence = append(sequence, walkOrder{order: order, role: roleReal})
		realDays[models.DateKey(order.Date)] = true
	}

	sequence = append(sequence, walkOrder{
		order: syntheticOrder(q, q.start, startPrice),
		role:  roleBoundaryStart,
	})
	sequence = append(sequence, walkOrder{
		order: syntheticOrder(q, q.end, endPrice),
		role:  roleBoundaryEnd,
	})

	if len(q.chartDates) > 0 {
		endKey := models.DateKey(q.end)
		startKey := models.DateKey(q.start)
		chartDays := make(map[string]bool, len(q.chartDates))
		for _, key := range q.chartDates {
			chartDays[key] = true
		}

		// Walk every calendar day so weekends and holidays carry the last
		// known close forward, then emit markers only on requested dates.
		var lastPrice decimal.Decimal
		havePrice := false
		for day := dayOf(q.start); !day.After(q.end); day = day.AddDate(0, 0, 1) {
			key := models.DateKey(day)
			if price, ok := q.prices[key]; ok {
				lastPrice = price
				havePrice = true
			}
			if !chartDays[key] || key == startKey || key == endKey || realDays[key] {
				continue
			}
			if !havePrice {
				continue
			}
			sequence = append(sequence, walkOrder{
				order: syntheticOrder(q, day, lastPrice),
				role:  roleValuation,
			})
		}
	}

	sort.SliceStable(sequence, func(i, j int) bool {
		di, dj := models.DateKey(sequence[i].order.Date), models.DateKey(sequence[j].order.Date)
		if di != dj {
			return di < dj
		}
		return rolePriority(sequence[i].role) < rolePriority(sequence[j].role)
	})

	return sequence
}

// rolePriority orders same-day entries: the start boundary first, real orders
// and valuation markers in between, the end boundary last.
func rolePriority(role orderRole) int {
	switch role {
	case roleBoundaryStart:
		return 0
	case roleBoundaryEnd:
		return 2
	default:
		return 1
	}
}

// syntheticOrder builds a zero-quantity virtual entry pinning a market price
// at a date without altering real holdings.
func syntheticOrder(q symbolQuery, date time.Time, price decimal.Decimal) models.Order {
	return models.Order{
		Symbol:     q.asset.Symbol,
		DataSource: q.asset.DataSource,
		Date:       date,
		Type:       models.OrderTypeBuy,
		Quantity:   decimal.Zero,
		UnitPrice:  price,
		Fee:        decimal.Zero,
		Currency:   q.currency,
	}
}

// percentageOf divides a performance value by its denominator, yielding zero
// when the denominator is not positive. Percentages are fractions (0.034 for
// 3.4%).
func percentageOf(value, denominator decimal.Decimal) decimal.Decimal {
	if !denominator.IsPositive() {
		return decimal.Zero
	}
	return value.Div(denominator)
}

// priceAsOf returns the price at the given date, falling back to the closest
// earlier date within a week so weekend and holiday boundaries resolve to the
// last close.
func priceAsOf(prices map[string]decimal.Decimal, date time.Time) (decimal.Decimal, bool) {
	for i := 0; i <= 7; i++ {
		key := models.DateKey(date.AddDate(0, 0, -i))
		if price, ok := prices[key]; ok {
			return price, true
		}
	}
	return decimal.Zero, false
}

// daysBetween returns whole days from a to b at day resolution.
func daysBetween(a, b time.Time) int64 {
	ad := a.UTC().Truncate(24 * time.Hour)
	bd := b.UTC().Truncate(24 * time.Hour)
	return int64(bd.Sub(ad).Hours() / 24)
}
