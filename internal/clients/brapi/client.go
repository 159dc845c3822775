// Package brapi provides a client for the brapi.dev market data API,
// covering B3 tickers, US listings and crypto coins.
package brapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/dfarias/carteira/internal/common"
	"github.com/dfarias/carteira/internal/interfaces"
	"github.com/dfarias/carteira/internal/models"
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
	DefaultBaseURL   = "https://brapi.dev/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements the MarketDataClient interface against brapi.dev.
type Client struct {
	baseURL    string
	token      string
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

// NewClient creates a new brapi.dev client. The token is optional; without
// one the free-tier limits apply.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
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
	return fmt.Sprintf("brapi API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// historicalBar is one entry of historicalDataPrice.
type historicalBar struct {
	Date  int64       `json:"date"` // unix seconds
	Close flexFloat64 `json:"close"`
}

// quoteResult is the per-ticker payload inside a quote response.
type quoteResult struct {
	Symbol                     string          `json:"symbol"`
	RegularMarketPrice         flexFloat64     `json:"regularMarketPrice"`
	RegularMarketChangePercent flexFloat64     `json:"regularMarketChangePercent"`
	RegularMarketDayHigh       flexFloat64     `json:"regularMarketDayHigh"`
	RegularMarketDayLow        flexFloat64     `json:"regularMarketDayLow"`
	HistoricalDataPrice        []historicalBar `json:"historicalDataPrice"`
}

type quoteResponse struct {
	Results []quoteResult `json:"results"`
	Error   bool          `json:"error"`
	Message string        `json:"message"`
}

// coinResult is the per-coin payload of the v2/crypto endpoint.
type coinResult struct {
	Coin                       string          `json:"coin"`
	RegularMarketPrice         flexFloat64     `json:"regularMarketPrice"`
	RegularMarketChangePercent flexFloat64     `json:"regularMarketChangePercent"`
	RegularMarketDayHigh       flexFloat64     `json:"regularMarketDayHigh"`
	RegularMarketDayLow        flexFloat64     `json:"regularMarketDayLow"`
	HistoricalDataPrice        []historicalBar `json:"historicalDataPrice"`
}

type cryptoResponse struct {
	Coins []coinResult `json:"coins"`
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	if c.token != "" {
		params.Set("token", c.token)
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("brapi API request")

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

// Quote retrieves the current quote for a symbol. Crypto coins are quoted
// in USD through the v2/crypto endpoint; everything else goes through the
// quote endpoint.
func (c *Client) Quote(ctx context.Context, symbol, market string) (*models.Quote, error) {
	if market == "crypto" {
		return c.cryptoQuote(ctx, symbol)
	}

	var response quoteResponse
	path := fmt.Sprintf("/quote/%s", url.PathEscape(symbol))
	if err := c.get(ctx, path, nil, &response); err != nil {
		return nil, err
	}
	if response.Error {
		return nil, fmt.Errorf("brapi quote for %s: %s", symbol, response.Message)
	}
	if len(response.Results) == 0 {
		return nil, fmt.Errorf("no quote returned for %s", symbol)
	}

	r := response.Results[0]
	return &models.Quote{
		Symbol:        symbol,
		Price:         float64(r.RegularMarketPrice),
		ChangePercent: float64(r.RegularMarketChangePercent),
		High:          float64(r.RegularMarketDayHigh),
		Low:           float64(r.RegularMarketDayLow),
		FetchedAt:     time.Now().UTC(),
	}, nil
}

func (c *Client) cryptoQuote(ctx context.Context, coin string) (*models.Quote, error) {
	params := url.Values{}
	params.Set("coin", coin)
	params.Set("currency", "USD")

	var response cryptoResponse
	if err := c.get(ctx, "/v2/crypto", params, &response); err != nil {
		return nil, err
	}
	if len(response.Coins) == 0 {
		return nil, fmt.Errorf("no quote returned for coin %s", coin)
	}

	r := response.Coins[0]
	return &models.Quote{
		Symbol:        coin,
		Price:         float64(r.RegularMarketPrice),
		ChangePercent: float64(r.RegularMarketChangePercent),
		High:          float64(r.RegularMarketDayHigh),
		Low:           float64(r.RegularMarketDayLow),
		FetchedAt:     time.Now().UTC(),
	}, nil
}

// History retrieves historical close prices for a symbol, oldest first.
func (c *Client) History(ctx context.Context, symbol, market string, opts ...interfaces.HistoryOption) ([]models.PricePoint, error) {
	params := &interfaces.HistoryParams{Interval: "1d"}
	for _, opt := range opts {
		opt(params)
	}

	urlParams := url.Values{}
	urlParams.Set("range", rangeFor(params.From))
	urlParams.Set("interval", params.Interval)

	var bars []historicalBar
	if market == "crypto" {
		urlParams.Set("coin", symbol)
		urlParams.Set("currency", "USD")

		var response cryptoResponse
		if err := c.get(ctx, "/v2/crypto", urlParams, &response); err != nil {
			return nil, err
		}
		if len(response.Coins) == 0 {
			return nil, fmt.Errorf("no history returned for coin %s", symbol)
		}
		bars = response.Coins[0].HistoricalDataPrice
	} else {
		path := fmt.Sprintf("/quote/%s", url.PathEscape(symbol))

		var response quoteResponse
		if err := c.get(ctx, path, urlParams, &response); err != nil {
			return nil, err
		}
		if response.Error {
			return nil, fmt.Errorf("brapi history for %s: %s", symbol, response.Message)
		}
		if len(response.Results) == 0 {
			return nil, fmt.Errorf("no history returned for %s", symbol)
		}
		bars = response.Results[0].HistoricalDataPrice
	}

	points := make([]models.PricePoint, 0, len(bars))
	for _, bar := range bars {
		if bar.Close == 0 {
			continue
		}
		points = append(points, models.PricePoint{
			Date:  time.Unix(bar.Date, 0).UTC(),
			Price: float64(bar.Close),
		})
	}

	// brapi returns bars oldest-first already; enforce it anyway since the
	// interpolator requires ascending dates.
	for i := 1; i < len(points); i++ {
		if points[i].Date.Before(points[i-1].Date) {
			reverse(points)
			break
		}
	}
	return points, nil
}

func reverse(points []models.PricePoint) {
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
}

// rangeFor maps a from-date to the nearest brapi range parameter.
func rangeFor(from time.Time) string {
	if from.IsZero() {
		return "3mo"
	}
	days := int(time.Since(from).Hours() / 24)
	switch {
	case days <= 1:
		return "1d"
	case days <= 5:
		return "5d"
	case days <= 31:
		return "1mo"
	case days <= 93:
		return "3mo"
	case days <= 186:
		return "6mo"
	case days <= 366:
		return "1y"
	case days <= 1830:
		return "5y"
	default:
		return "max"
	}
}

// Compile-time check
var _ interfaces.MarketDataClient = (*Client)(nil)
