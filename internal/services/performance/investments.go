package performance

import (
	"github.com/shopspring/decimal"

	"github.com/foliolab/folio/internal/models"
)

// Investments returns the portfolio's cumulative investment at each
// transaction point, summed as recorded on the ledger.
func (s *Service) Investments() []models.InvestmentItem {
	_, points := s.snapshotState()

	items := make([]models.InvestmentItem, 0, len(points))
	for _, point := range points {
		total := decimal.Zero
		for _, item := range point.Items {
			total = total.Add(item.Investment)
		}
		items = append(items, models.InvestmentItem{
			Date:       models.DateKey(point.Date),
			Investment: total,
		})
	}
	return items
}

// InvestmentsByGroup buckets investment deltas by calendar month or year.
// Each bucket is keyed by its first day and holds the net capital added or
// withdrawn during the period.
func (s *Service) InvestmentsByGroup(groupBy models.GroupBy) []models.InvestmentItem {
	investments := s.Investments()

	buckets := make(map[string]decimal.Decimal)
	var order []string

	previous := decimal.Zero
	for _, item := range investments {
		delta := item.Investment.Sub(previous)
		previous = item.Investment

		key := groupKey(item.Date, groupBy)
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = buckets[key].Add(delta)
	}

	items := make([]models.InvestmentItem, 0, len(order))
	for _, key := range order {
		items = append(items, models.InvestmentItem{Date: key, Investment: buckets[key]})
	}
	return items
}

// groupKey maps a day key to its bucket's first day.
func groupKey(dateKey string, groupBy models.GroupBy) string {
	if groupBy == models.GroupByYear {
		return dateKey[:4] + "-01-01"
	}
	return dateKey[:7] + "-01"
}
