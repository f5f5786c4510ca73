package report

import (
	"bytes"
	"fmt"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/foliolab/folio/internal/models"
)

// RenderPerformanceChart renders a PNG line chart from a historical series.
// Two series: Portfolio Value (blue solid) and Total Investment (gray
// dashed). Returns raw PNG bytes.
func RenderPerformanceChart(items []models.HistoricalDataItem) ([]byte, error) {
	if len(items) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(items))
	}

	xValues := make([]time.Time, len(items))
	valueY := make([]float64, len(items))
	investmentY := make([]float64, len(items))

	for i, item := range items {
		date, err := models.ParseDate(item.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid series date %q: %w", item.Date, err)
		}
		xValues[i] = date
		valueY[i] = item.Value.InexactFloat64()
		investmentY[i] = item.TotalInvestment.InexactFloat64()
	}

	valueSeries := chart.TimeSeries{
		Name: "Portfolio Value",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"),
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: valueY,
	}

	investmentSeries := chart.TimeSeries{
		Name: "Total Investment",
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("9ca3af"),
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{5.0, 3.0},
		},
		XValues: xValues,
		YValues: investmentY,
	}

	graph := chart.Chart{
		Title:  "Portfolio Performance",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			valueSeries,
			investmentSeries,
		},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
