// Package awesomefx provides a client for the AwesomeAPI currency service
// (economia.awesomeapi.com.br), used for the USD to BRL rate. All numeric
// fields come back string-typed.
package awesomefx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dfarias/carteira/internal/common"
	"github.com/dfarias/carteira/internal/interfaces"
)

const (
	DefaultBaseURL = "https://economia.awesomeapi.com.br"
	DefaultTimeout = 10 * time.Second
)

// Client implements the ExchangeRateClient interface.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
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

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new AwesomeAPI client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// pairQuote is the per-pair payload; bid/ask are string-typed decimals.
type pairQuote struct {
	Code      string `json:"code"`
	Codein    string `json:"codein"`
	Bid       string `json:"bid"`
	Ask       string `json:"ask"`
	Timestamp string `json:"timestamp"`
}

// USDRate retrieves the current USD to BRL bid rate.
func (c *Client) USDRate(ctx context.Context) (float64, error) {
	reqURL := c.baseURL + "/json/last/USD-BRL"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", reqURL).Msg("AwesomeAPI request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("AwesomeAPI error: %s (status: %d)", string(body), resp.StatusCode)
	}

	var pairs map[string]pairQuote
	if err := json.NewDecoder(resp.Body).Decode(&pairs); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	pair, ok := pairs["USDBRL"]
	if !ok {
		return 0, fmt.Errorf("USDBRL pair missing from response")
	}

	rate, err := strconv.ParseFloat(pair.Bid, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse bid %q: %w", pair.Bid, err)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("non-positive rate: %v", rate)
	}
	return rate, nil
}

// Compile-time check
var _ interfaces.ExchangeRateClient = (*Client)(nil)
