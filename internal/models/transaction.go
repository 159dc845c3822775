package models

import "time"

// TransactionType identifies the direction of a transaction.
type TransactionType string

const (
	TransactionBuy  TransactionType = "buy"
	TransactionSell TransactionType = "sell"
)

// Transaction is an immutable log entry of a buy or sell affecting one
// holding. HoldingID may be empty in legacy data when the holding was
// deleted before the transaction was recorded.
type Transaction struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	HoldingID string          `json:"holding_id,omitempty"`
	Type      TransactionType `json:"type"`
	Category  Category        `json:"category"`
	Name      string          `json:"name"`
	Ticker    string          `json:"ticker,omitempty"`
	Quantity  float64         `json:"quantity"`
	Price     float64         `json:"price"`
	Total     float64         `json:"total"`

	// Realized result, populated for sells only, computed against the
	// holding's average price at the time of sale.
	ProfitLoss        float64 `json:"profit_loss,omitempty"`
	ProfitLossPercent float64 `json:"profit_loss_percent,omitempty"`

	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}
