package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foliolab/folio/internal/clients/eodhd"
	"github.com/foliolab/folio/internal/clients/fxrates"
	"github.com/foliolab/folio/internal/common"
	"github.com/foliolab/folio/internal/interfaces"
	"github.com/foliolab/folio/internal/models"
	"github.com/foliolab/folio/internal/services/performance"
	"github.com/foliolab/folio/internal/services/report"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("FOLIO_CONFIG"), "path to TOML config file")
		ordersPath = flag.String("orders", "", "path to JSON orders file (required)")
		startStr   = flag.String("start", "", "window start date (YYYY-MM-DD, default: first order)")
		endStr     = flag.String("end", "", "window end date (YYYY-MM-DD, default: today)")
		step       = flag.Int("step", 1, "days between chart data points")
		chartPath  = flag.String("chart", "", "write a performance chart PNG to this path")
		markdown   = flag.Bool("markdown", false, "print a markdown summary instead of JSON")
	)
	flag.Parse()

	if *ordersPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: folio -orders <orders.json> [-config <folio.toml>] [-start YYYY-MM-DD] [-end YYYY-MM-DD] [-chart out.png] [-markdown]")
		os.Exit(2)
	}

	config := common.DefaultConfig()
	if *configPath != "" {
		loaded, err := common.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		config = loaded
	}

	logger := common.NewLogger(config.Logging.Level)

	if err := run(config, logger, *ordersPath, *startStr, *endStr, *step, *chartPath, *markdown); err != nil {
		logger.Error().Err(err).Msg("folio failed")
		os.Exit(1)
	}
}

func run(config *common.Config, logger *common.Logger, ordersPath, startStr, endStr string, step int, chartPath string, markdown bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	data, err := os.ReadFile(ordersPath)
	if err != nil {
		return fmt.Errorf("failed to read orders file: %w", err)
	}
	orders, err := models.DecodeOrders(data)
	if err != nil {
		return fmt.Errorf("failed to decode orders: %w", err)
	}
	if len(orders) == 0 {
		return fmt.Errorf("orders file %s contains no orders", ordersPath)
	}

	var start, end time.Time
	if startStr != "" {
		if start, err = models.ParseDate(startStr); err != nil {
			return fmt.Errorf("invalid -start: %w", err)
		}
	} else {
		start = orders[0].Date
		for _, order := range orders {
			if order.Date.Before(start) {
				start = order.Date
			}
		}
	}
	if endStr != "" {
		if end, err = models.ParseDate(endStr); err != nil {
			return fmt.Errorf("invalid -end: %w", err)
		}
	}

	eodOpts := []eodhd.ClientOption{
		eodhd.WithLogger(logger),
		eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
		eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
	}
	if config.Clients.EODHD.BaseURL != "" {
		eodOpts = append(eodOpts, eodhd.WithBaseURL(config.Clients.EODHD.BaseURL))
	}
	marketData := eodhd.NewClient(config.Clients.EODHD.APIKey, eodOpts...)

	fxOpts := []fxrates.ClientOption{
		fxrates.WithLogger(logger),
		fxrates.WithRateLimit(config.Clients.FXRates.RateLimit),
		fxrates.WithTimeout(config.Clients.FXRates.GetTimeout()),
	}
	if config.Clients.FXRates.BaseURL != "" {
		fxOpts = append(fxOpts, fxrates.WithBaseURL(config.Clients.FXRates.BaseURL))
	}
	fxRates := fxrates.NewClient(fxOpts...)

	service := performance.NewService(marketData, fxRates, config.BaseCurrency, logger)
	service.ComputeTransactionPoints(orders)

	result, err := service.CurrentPositions(ctx, start, end)
	if err != nil {
		return fmt.Errorf("performance computation failed: %w", err)
	}

	if chartPath != "" {
		series, err := service.ChartData(ctx, interfaces.ChartDataOptions{Start: start, End: end, Step: step})
		if err != nil {
			return fmt.Errorf("chart data computation failed: %w", err)
		}
		png, err := report.RenderPerformanceChart(series)
		if err != nil {
			return fmt.Errorf("chart rendering failed: %w", err)
		}
		if err := os.WriteFile(chartPath, png, 0o644); err != nil {
			return fmt.Errorf("failed to write chart: %w", err)
		}
		logger.Info().Str("path", chartPath).Int("points", len(series)).Msg("Chart written")
	}

	if markdown {
		asOf := endStr
		if asOf == "" {
			asOf = time.Now().UTC().Format(models.DateFormat)
		}
		fmt.Print(report.FormatSummary(result, config.BaseCurrency, asOf))
		return nil
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
