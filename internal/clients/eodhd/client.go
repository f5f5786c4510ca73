// Package eodhd provides a market data resolver backed by the EODHD API
package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/foliolab/folio/internal/common"
	"github.com/foliolab/folio/internal/interfaces"
	"github.com/foliolab/folio/internal/models"
)

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements the MarketDataResolver interface
type Client struct {
	baseURL    string
	apiKey     string
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

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
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
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date          string      `json:"date"`
	Open          flexFloat64 `json:"open"`
	High          flexFloat64 `json:"high"`
	Low           flexFloat64 `json:"low"`
	Close         flexFloat64 `json:"close"`
	AdjustedClose flexFloat64 `json:"adjusted_close"`
	Volume        int64       `json:"volume"`
}

// GetValues resolves end-of-day closes for every asset covered by the date
// query. A symbol whose lookup fails is reported in the response's Errors so
// callers can render partial results; only context cancellation aborts the
// whole batch.
func (c *Client) GetValues(ctx context.Context, items []models.AssetRef, dateQuery models.DateQuery) (*models.MarketValuesResponse, error) {
	from, to := queryBounds(dateQuery)

	response := &models.MarketValuesResponse{
		DataProviderInfos: []models.DataProviderInfo{{Name: "EODHD", URL: c.baseURL}},
	}

	for _, asset := range items {
		bars, err := c.fetchBars(ctx, asset.Symbol, from, to)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			c.logger.Warn().Str("symbol", asset.Symbol).Err(err).Msg("EOD lookup failed")
			response.Errors = append(response.Errors, asset)
			continue
		}
		if len(bars) == 0 {
			response.Errors = append(response.Errors, asset)
			continue
		}

		closes := make(map[string]decimal.Decimal, len(bars))
		var dates []string
		for _, bar := range bars {
			price := float64(bar.AdjustedClose)
			if price == 0 {
				price = float64(bar.Close)
			}
			if price == 0 {
				continue
			}
			if _, seen := closes[bar.Date]; !seen {
				dates = append(dates, bar.Date)
			}
			closes[bar.Date] = decimal.NewFromFloat(price)
		}
		if len(closes) == 0 {
			response.Errors = append(response.Errors, asset)
			continue
		}

		if dateQuery.Discrete() {
			// Resolve each requested date to the last close at or before
			// it, keyed by the requested date.
			for _, want := range dateQuery.Dates {
				if price, ok := closeAsOf(closes, want); ok {
					response.Values = append(response.Values, models.MarketValue{
						DataSource:  asset.DataSource,
						Symbol:      asset.Symbol,
						Date:        want,
						MarketPrice: price,
					})
				}
			}
			continue
		}

		for _, key := range dates {
			date, err := models.ParseDate(key)
			if err != nil {
				continue
			}
			response.Values = append(response.Values, models.MarketValue{
				DataSource:  asset.DataSource,
				Symbol:      asset.Symbol,
				Date:        date,
				MarketPrice: closes[key],
			})
		}
	}

	return response, nil
}

func (c *Client) fetchBars(ctx context.Context, symbol string, from, to time.Time) ([]eodBarResponse, error) {
	params := url.Values{}
	params.Set("period", "d")
	params.Set("order", "a")
	if !from.IsZero() {
		params.Set("from", from.Format(models.DateFormat))
	}
	if !to.IsZero() {
		params.Set("to", to.Format(models.DateFormat))
	}

	var bars []eodBarResponse
	if err := c.get(ctx, fmt.Sprintf("/eod/%s", url.PathEscape(symbol)), params, &bars); err != nil {
		return nil, err
	}
	return bars, nil
}

// queryBounds widens a discrete query into one fetch range, padded a week
// back so each requested date can resolve to a prior close.
func queryBounds(dateQuery models.DateQuery) (time.Time, time.Time) {
	if !dateQuery.Discrete() {
		return dateQuery.From, dateQuery.To
	}
	var from, to time.Time
	for _, date := range dateQuery.Dates {
		if from.IsZero() || date.Before(from) {
			from = date
		}
		if to.IsZero() || date.After(to) {
			to = date
		}
	}
	if !from.IsZero() {
		from = from.AddDate(0, 0, -7)
	}
	return from, to
}

// closeAsOf finds the close at the given date or the nearest earlier one
// within a week.
func closeAsOf(closes map[string]decimal.Decimal, date time.Time) (decimal.Decimal, bool) {
	for i := 0; i <= 7; i++ {
		key := models.DateKey(date.AddDate(0, 0, -i))
		if price, ok := closes[key]; ok {
			return price, true
		}
	}
	return decimal.Zero, false
}

// Ensure Client implements MarketDataResolver
var _ interfaces.MarketDataResolver = (*Client)(nil)
