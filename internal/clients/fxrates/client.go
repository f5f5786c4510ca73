// Package fxrates provides an exchange rate resolver backed by the
// Frankfurter API
package fxrates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/foliolab/folio/internal/common"
	"github.com/foliolab/folio/internal/interfaces"
	"github.com/foliolab/folio/internal/models"
)

const (
	DefaultBaseURL   = "https://api.frankfurter.app"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements the ExchangeRateResolver interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new exchange rate client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("FX API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// timeseriesResponse represents the API response for a rate timeseries
type timeseriesResponse struct {
	Base      string                        `json:"base"`
	StartDate string                        `json:"start_date"`
	EndDate   string                        `json:"end_date"`
	Rates     map[string]map[string]float64 `json:"rates"`
}

// GetExchangeRatesByCurrency returns per-date rates for each currency against
// the target currency over [startDate, endDate]. The upstream series omits
// weekends and holidays, so each gap carries the last published rate forward;
// a pair with no published rate at all stays absent and degrades to 1 at
// lookup time.
func (c *Client) GetExchangeRatesByCurrency(ctx context.Context, currencies []string, startDate, endDate time.Time, targetCurrency string) (models.ExchangeRates, error) {
	rates := models.ExchangeRates{}

	start := startDate.UTC().Truncate(24 * time.Hour)
	end := endDate.UTC().Truncate(24 * time.Hour)
	if end.Before(start) {
		return rates, nil
	}

	for _, currency := range currencies {
		if currency == "" || currency == targetCurrency {
			continue
		}

		series, err := c.fetchTimeseries(ctx, currency, targetCurrency, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s%s rates: %w", currency, targetCurrency, err)
		}

		byDate := make(map[string]decimal.Decimal, len(series.Rates))
		var lastRate decimal.Decimal
		haveRate := false
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			key := models.DateKey(day)
			if published, ok := series.Rates[key]; ok {
				if value, ok := published[targetCurrency]; ok && value != 0 {
					lastRate = decimal.NewFromFloat(value)
					haveRate = true
				}
			}
			if haveRate {
				byDate[key] = lastRate
			}
		}

		if len(byDate) > 0 {
			rates[currency+targetCurrency] = byDate
		}
	}

	return rates, nil
}

func (c *Client) fetchTimeseries(ctx context.Context, currency, targetCurrency string, start, end time.Time) (*timeseriesResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("from", currency)
	params.Set("to", targetCurrency)

	path := fmt.Sprintf("/%s..%s", start.Format(models.DateFormat), end.Format(models.DateFormat))
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("pair", currency+targetCurrency).Str("url", c.baseURL+path).Msg("FX API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	var series timeseriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&series); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &series, nil
}

// Ensure Client implements ExchangeRateResolver
var _ interfaces.ExchangeRateResolver = (*Client)(nil)
