package performance

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliolab/folio/internal/models"
)

// timelineChunk is one symbol-metrics invocation of a timeline computation.
// Consecutive chunk windows chain end-to-start so chunk-relative performance
// telescopes into a series measured from the first spec's start.
type timelineChunk struct {
	start    time.Time
	end      time.Time
	accuracy models.TimelineAccuracy
	dates    []time.Time // period dates inside the chunk, ascending
}

// CalculateTimeline produces one value/performance snapshot per period. Specs
// apply in sequence: each runs from its start until the next spec's start,
// the last one until endDate. Day-accuracy segments are computed in chunks of
// at most three months to bound resolver query size.
func (s *Service) CalculateTimeline(ctx context.Context, specs []models.TimelineSpec, endDate time.Time) (*models.TimelineResult, error) {
	result := &models.TimelineResult{TimelinePeriods: []models.TimelinePeriod{}}

	if endDate.IsZero() {
		endDate = today()
	}
	endDate = dayOf(endDate)

	if len(specs) == 0 {
		return result, nil
	}

	ordered := make([]models.TimelineSpec, len(specs))
	copy(ordered, specs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start.Before(ordered[j].Start)
	})

	chunks := buildTimelineChunks(ordered, endDate)
	if len(chunks) == 0 {
		return result, nil
	}

	orders, points := s.snapshotState()

	var (
		offsetGross decimal.Decimal
		offsetNet   decimal.Decimal
		rangeSet    bool
	)

	track := func(period models.TimelinePeriod) {
		result.TimelinePeriods = append(result.TimelinePeriods, period)
		if !rangeSet {
			result.MinNetPerformance = period.NetPerformance
			result.MaxNetPerformance = period.NetPerformance
			rangeSet = true
			return
		}
		if period.NetPerformance.LessThan(result.MinNetPerformance) {
			result.MinNetPerformance = period.NetPerformance
		}
		if period.NetPerformance.GreaterThan(result.MaxNetPerformance) {
			result.MaxNetPerformance = period.NetPerformance
		}
	}

	for _, chunk := range chunks {
		holdings := holdingsAsOf(points, chunk.end)
		if len(holdings) == 0 {
			for _, date := range chunk.dates {
				track(models.TimelinePeriod{Date: models.DateKey(date)})
			}
			continue
		}

		env, err := s.fetchResolverData(ctx, holdings, orders, chunk.dateQuery(), chunk.end)
		if err != nil {
			return nil, err
		}

		keys := make([]string, 0, len(chunk.dates))
		for _, date := range chunk.dates {
			keys = append(keys, models.DateKey(date))
		}

		positions := s.computePositions(holdings, orders, chunk.start, chunk.end, env, keys)

		endKey := models.DateKey(chunk.end)
		mergeKeys := keys
		if len(mergeKeys) == 0 || mergeKeys[len(mergeKeys)-1] != endKey {
			mergeKeys = append(append([]string{}, keys...), endKey)
		}
		merged := mergeSnapshots(positions, mergeKeys)

		for _, key := range keys {
			snapshot := merged[key]
			track(models.TimelinePeriod{
				Date:             key,
				Value:            snapshot.value,
				GrossPerformance: offsetGross.Add(snapshot.grossPerformance),
				NetPerformance:   offsetNet.Add(snapshot.netPerformance),
				Investment:       snapshot.investment,
			})
		}

		endSnapshot := merged[endKey]
		offsetGross = offsetGross.Add(endSnapshot.grossPerformance)
		offsetNet = offsetNet.Add(endSnapshot.netPerformance)
	}

	s.logger.Debug().
		Int("periods", len(result.TimelinePeriods)).
		Int("chunks", len(chunks)).
		Msg("Timeline computed")

	return result, nil
}

// buildTimelineChunks expands the sorted specs into bounded computation
// windows with their period dates.
func buildTimelineChunks(specs []models.TimelineSpec, endDate time.Time) []timelineChunk {
	var chunks []timelineChunk

	for i, spec := range specs {
		segStart := dayOf(spec.Start)
		if segStart.After(endDate) {
			continue
		}
		segEnd := endDate
		if i+1 < len(specs) {
			beforeNext := dayOf(specs[i+1].Start).AddDate(0, 0, -1)
			if beforeNext.Before(segEnd) {
				segEnd = beforeNext
			}
		}
		if segEnd.Before(segStart) {
			continue
		}

		dates := periodDates(segStart, segEnd, spec.Accuracy)

		if spec.Accuracy != models.AccuracyDay {
			chunks = append(chunks, timelineChunk{
				start:    segStart,
				end:      segEnd,
				accuracy: spec.Accuracy,
				dates:    dates,
			})
			continue
		}

		chunkStart := segStart
		for !chunkStart.After(segEnd) {
			chunkEnd := chunkStart.AddDate(0, 3, 0)
			if chunkEnd.After(segEnd) {
				chunkEnd = segEnd
			}
			var inChunk []time.Time
			for _, date := range dates {
				if !date.Before(chunkStart) && !date.After(chunkEnd) {
					inChunk = append(inChunk, date)
				}
			}
			chunks = append(chunks, timelineChunk{
				start:    chunkStart,
				end:      chunkEnd,
				accuracy: spec.Accuracy,
				dates:    inChunk,
			})
			if chunkEnd.Equal(segEnd) {
				break
			}
			chunkStart = chunkEnd.AddDate(0, 0, 1)
		}
	}

	// Chain windows so each chunk measures performance relative to the
	// previous chunk's end.
	for i := 1; i < len(chunks); i++ {
		chunks[i].start = chunks[i-1].end
	}

	return chunks
}

// periodDates lists the snapshot dates of one segment: every day, the segment
// start plus following month firsts, or the segment start plus following year
// firsts.
func periodDates(start, end time.Time, accuracy models.TimelineAccuracy) []time.Time {
	var dates []time.Time
	switch accuracy {
	case models.AccuracyMonth:
		for day := start; !day.After(end); {
			dates = append(dates, day)
			day = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		}
	case models.AccuracyYear:
		for day := start; !day.After(end); {
			dates = append(dates, day)
			day = time.Date(day.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
		}
	default:
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			dates = append(dates, day)
		}
	}
	return dates
}

// dateQuery builds the resolver query for one chunk: a padded range at day
// accuracy, discrete dates otherwise.
func (c timelineChunk) dateQuery() models.DateQuery {
	if c.accuracy == models.AccuracyDay {
		return models.DateQuery{From: c.start.AddDate(0, 0, -7), To: c.end}
	}
	dates := make([]time.Time, 0, len(c.dates)+2)
	dates = append(dates, c.start)
	dates = append(dates, c.dates...)
	dates = append(dates, c.end)
	return models.DateQuery{Dates: dates}
}
