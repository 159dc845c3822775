package interfaces

import (
	"context"
	"time"

	"github.com/dfarias/carteira/internal/models"
)

// MarketDataClient provides best-effort quotes and price history.
// Both calls may fail or return empty data; callers degrade per holding
// rather than failing the whole operation.
type MarketDataClient interface {
	// Quote retrieves the current quote for a symbol in a market
	// ("br", "us" or "crypto").
	Quote(ctx context.Context, symbol, market string) (*models.Quote, error)

	// History retrieves historical price points for a symbol, oldest first.
	History(ctx context.Context, symbol, market string, opts ...HistoryOption) ([]models.PricePoint, error)
}

// HistoryOption configures history requests
type HistoryOption func(*HistoryParams)

// HistoryParams holds history query parameters
type HistoryParams struct {
	From     time.Time
	To       time.Time
	Interval string // "1h", "1d", "1wk", "1mo"
}

// WithDateRange sets the date range for a history query
func WithDateRange(from, to time.Time) HistoryOption {
	return func(p *HistoryParams) {
		p.From = from
		p.To = to
	}
}

// WithInterval sets the sampling interval for a history query
func WithInterval(interval string) HistoryOption {
	return func(p *HistoryParams) {
		p.Interval = interval
	}
}

// ExchangeRateClient provides the USD to display-currency rate, treated as
// a slowly varying external input.
type ExchangeRateClient interface {
	USDRate(ctx context.Context) (float64, error)
}
