package performance

import (
	"context"
	"time"

	"github.com/foliolab/folio/internal/interfaces"
	"github.com/foliolab/folio/internal/models"
)

// ChartData produces the continuous historical value/performance series for
// the window [start, end], one item per stepped day. Values follow the
// own-date FX regime, the value an investor actually saw on each day.
func (s *Service) ChartData(ctx context.Context, opts interfaces.ChartDataOptions) ([]models.HistoricalDataItem, error) {
	end := opts.End
	if end.IsZero() {
		end = today()
	}
	start := dayOf(opts.Start)
	end = dayOf(end)
	if start.After(end) {
		return []models.HistoricalDataItem{}, nil
	}

	step := opts.Step
	if step < 1 {
		step = 1
	}

	orders, points := s.snapshotState()

	holdings := holdingsAsOf(points, end)
	if len(holdings) == 0 {
		return []models.HistoricalDataItem{}, nil
	}

	chartDates := steppedDateKeys(start, end, step)

	// Range fetch, padded a week back so the window start resolves to the
	// last close over weekends and holidays.
	env, err := s.fetchResolverData(ctx, holdings, orders, models.DateQuery{
		From: start.AddDate(0, 0, -7),
		To:   end,
	}, end)
	if err != nil {
		return nil, err
	}

	positions := s.computePositions(holdings, orders, start, end, env, chartDates)
	merged := mergeSnapshots(positions, chartDates)

	items := make([]models.HistoricalDataItem, 0, len(chartDates))
	for _, key := range chartDates {
		snapshot := merged[key]
		items = append(items, models.HistoricalDataItem{
			Date:                       key,
			Value:                      snapshot.value,
			NetPerformance:             snapshot.netPerformance,
			NetPerformanceInPercentage: percentageOf(snapshot.netPerformance, snapshot.investment),
			TotalInvestment:            snapshot.investment,
		})
	}

	s.logger.Debug().
		Int("points", len(items)).
		Str("start", models.DateKey(start)).
		Str("end", models.DateKey(end)).
		Msg("Chart data computed")

	return items, nil
}

// steppedDateKeys returns every step-th day key from start through end, the
// end date always included.
func steppedDateKeys(start, end time.Time, step int) []string {
	var keys []string
	for day := start; !day.After(end); day = day.AddDate(0, 0, step) {
		keys = append(keys, models.DateKey(day))
	}
	endKey := models.DateKey(end)
	if keys[len(keys)-1] != endKey {
		keys = append(keys, endKey)
	}
	return keys
}

// mergeSnapshots sums the per-symbol chart snapshots at each requested day
// key, carrying every symbol's last observation forward over gaps. Symbols
// whose prices could not be resolved contribute nothing. Keys must be
// ascending.
func mergeSnapshots(results []positionResult, keys []string) map[string]symbolSnapshot {
	merged := make(map[string]symbolSnapshot, len(keys))
	for _, key := range keys {
		merged[key] = symbolSnapshot{date: key}
	}

	for _, r := range results {
		if r.metrics.hasErrors {
			continue
		}
		snapshots := r.metrics.snapshots
		last := -1
		for _, key := range keys {
			for last+1 < len(snapshots) && snapshots[last+1].date <= key {
				last++
			}
			if last < 0 {
				continue
			}
			total := merged[key]
			total.value = total.value.Add(snapshots[last].value)
			total.grossPerformance = total.grossPerformance.Add(snapshots[last].grossPerformance)
			total.netPerformance = total.netPerformance.Add(snapshots[last].netPerformance)
			total.investment = total.investment.Add(snapshots[last].investment)
			merged[key] = total
		}
	}

	return merged
}
