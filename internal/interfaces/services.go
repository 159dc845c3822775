package interfaces

import (
	"context"

	"github.com/dfarias/carteira/internal/models"
)

// BuyInput describes an incoming buy operation.
type BuyInput struct {
	Category     models.Category `json:"category"`
	Name         string          `json:"name"`
	Ticker       string          `json:"ticker,omitempty"`
	Quantity     float64         `json:"quantity"`
	Price        float64         `json:"price"`
	InterestRate float64         `json:"interest_rate,omitempty"`
	PurchaseDate string          `json:"purchase_date,omitempty"` // "2006-01-02"
	MaturityDate string          `json:"maturity_date,omitempty"`
	Notes        string          `json:"notes,omitempty"`
}

// SellInput describes an incoming sell operation.
type SellInput struct {
	Category models.Category `json:"category"`
	Name     string          `json:"name"`
	Ticker   string          `json:"ticker,omitempty"`
	Quantity float64         `json:"quantity"`
	Price    float64         `json:"price"`
}

// SellResult reports the outcome of a sell.
type SellResult struct {
	Remaining         *models.Holding    `json:"remaining,omitempty"`
	Removed           bool               `json:"removed"`
	Transaction       models.Transaction `json:"transaction"`
	ProfitLoss        float64            `json:"profit_loss"`
	ProfitLossPercent float64            `json:"profit_loss_percent"`
}

// PortfolioService is the valuation and reconciliation engine facade.
type PortfolioService interface {
	// Holdings returns the user's reconciled collection, newest first.
	// Duplicate groups are merged and their store side effects applied.
	Holdings(ctx context.Context, userID string) ([]models.Holding, error)

	// RecordBuy resolves the incoming buy against existing holdings and
	// either updates the match in place or creates a new holding.
	RecordBuy(ctx context.Context, userID string, in BuyInput) (*models.Holding, error)

	// RecordSell reduces or removes the matched holding and logs the
	// realized profit/loss.
	RecordSell(ctx context.Context, userID string, in SellInput) (*SellResult, error)

	// Revalue refreshes current prices: fixed income is recompounded as of
	// now, market holdings are re-marked from best-effort quotes.
	Revalue(ctx context.Context, userID string) ([]models.Holding, error)

	// Summary aggregates totals in the display currency.
	Summary(ctx context.Context, userID string) (*models.Summary, error)

	// Series reconstructs the portfolio value series for a period.
	Series(ctx context.Context, userID string, period models.Period) ([]models.SeriesPoint, error)

	// SeriesChart renders the series as a PNG chart.
	SeriesChart(ctx context.Context, userID string, period models.Period) ([]byte, error)

	// Transactions returns the user's transaction log, newest first.
	Transactions(ctx context.Context, userID string) ([]models.Transaction, error)
}
