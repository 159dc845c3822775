// Package surrealdb provides a SurrealDB-backed RecordStore.
package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/dfarias/carteira/internal/common"
	"github.com/dfarias/carteira/internal/interfaces"
	"github.com/dfarias/carteira/internal/models"
)

const (
	tableHoldings     = "holdings"
	tableTransactions = "transactions"
)

// Store implements interfaces.RecordStore using SurrealDB.
type Store struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// holdingRecord is the SurrealDB record shape for the holdings table.
// The application ID lives in "key"; SurrealDB reserves "id" for its own
// record identifiers.
type holdingRecord struct {
	Key      string          `json:"key"`
	UserID   string          `json:"user_id"`
	Category models.Category `json:"category"`
	Name     string          `json:"name"`
	Ticker   string          `json:"ticker,omitempty"`

	Quantity     float64 `json:"quantity"`
	AveragePrice float64 `json:"average_price"`
	CurrentPrice float64 `json:"current_price"`

	InvestedAmount    float64 `json:"invested_amount"`
	CurrentValue      float64 `json:"current_value"`
	ProfitLoss        float64 `json:"profit_loss"`
	ProfitLossPercent float64 `json:"profit_loss_percent"`

	InterestRate float64    `json:"interest_rate,omitempty"`
	PurchaseDate *time.Time `json:"purchase_date,omitempty"`
	MaturityDate *time.Time `json:"maturity_date,omitempty"`

	Notes string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// transactionRecord is the SurrealDB record shape for the transactions table.
type transactionRecord struct {
	Key       string                 `json:"key"`
	UserID    string                 `json:"user_id"`
	HoldingID string                 `json:"holding_id,omitempty"`
	Type      models.TransactionType `json:"type"`
	Category  models.Category        `json:"category"`
	Name      string                 `json:"name"`
	Ticker    string                 `json:"ticker,omitempty"`
	Quantity  float64                `json:"quantity"`
	Price     float64                `json:"price"`
	Total     float64                `json:"total"`

	ProfitLoss        float64 `json:"profit_loss,omitempty"`
	ProfitLossPercent float64 `json:"profit_loss_percent,omitempty"`

	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

func toHoldingRecord(h *models.Holding) *holdingRecord {
	return &holdingRecord{
		Key:               h.ID,
		UserID:            h.UserID,
		Category:          h.Category,
		Name:              h.Name,
		Ticker:            h.Ticker,
		Quantity:          h.Quantity,
		AveragePrice:      h.AveragePrice,
		CurrentPrice:      h.CurrentPrice,
		InvestedAmount:    h.InvestedAmount,
		CurrentValue:      h.CurrentValue,
		ProfitLoss:        h.ProfitLoss,
		ProfitLossPercent: h.ProfitLossPercent,
		InterestRate:      h.InterestRate,
		PurchaseDate:      h.PurchaseDate,
		MaturityDate:      h.MaturityDate,
		Notes:             h.Notes,
		CreatedAt:         h.CreatedAt,
		UpdatedAt:         h.UpdatedAt,
	}
}

func (r *holdingRecord) toModel() models.Holding {
	return models.Holding{
		ID:                r.Key,
		UserID:            r.UserID,
		Category:          r.Category,
		Name:              r.Name,
		Ticker:            r.Ticker,
		Quantity:          r.Quantity,
		AveragePrice:      r.AveragePrice,
		CurrentPrice:      r.CurrentPrice,
		InvestedAmount:    r.InvestedAmount,
		CurrentValue:      r.CurrentValue,
		ProfitLoss:        r.ProfitLoss,
		ProfitLossPercent: r.ProfitLossPercent,
		InterestRate:      r.InterestRate,
		PurchaseDate:      r.PurchaseDate,
		MaturityDate:      r.MaturityDate,
		Notes:             r.Notes,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func toTransactionRecord(tx *models.Transaction) *transactionRecord {
	return &transactionRecord{
		Key:               tx.ID,
		UserID:            tx.UserID,
		HoldingID:         tx.HoldingID,
		Type:              tx.Type,
		Category:          tx.Category,
		Name:              tx.Name,
		Ticker:            tx.Ticker,
		Quantity:          tx.Quantity,
		Price:             tx.Price,
		Total:             tx.Total,
		ProfitLoss:        tx.ProfitLoss,
		ProfitLossPercent: tx.ProfitLossPercent,
		Date:              tx.Date,
		CreatedAt:         tx.CreatedAt,
	}
}

func (r *transactionRecord) toModel() models.Transaction {
	return models.Transaction{
		ID:                r.Key,
		UserID:            r.UserID,
		HoldingID:         r.HoldingID,
		Type:              r.Type,
		Category:          r.Category,
		Name:              r.Name,
		Ticker:            r.Ticker,
		Quantity:          r.Quantity,
		Price:             r.Price,
		Total:             r.Total,
		ProfitLoss:        r.ProfitLoss,
		ProfitLossPercent: r.ProfitLossPercent,
		Date:              r.Date,
		CreatedAt:         r.CreatedAt,
	}
}

// NewStore connects to SurrealDB, signs in, selects the namespace/database
// and ensures the tables exist (SurrealDB v3 errors on querying non-existent
// tables).
func NewStore(logger *common.Logger, config *common.SurrealConfig) (*Store, error) {
	ctx := context.Background()

	db, err := surrealdb.New(config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Username,
		"pass": config.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Namespace, config.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	for _, table := range []string{tableHoldings, tableTransactions} {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}

	logger.Info().
		Str("endpoint", config.Endpoint).
		Str("namespace", config.Namespace).
		Str("database", config.Database).
		Msg("SurrealDB record store initialized")

	return &Store{db: db, logger: logger}, nil
}

func isNotFoundError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "not found")
}

func (s *Store) ListHoldings(ctx context.Context, userID string) ([]models.Holding, error) {
	sql := "SELECT * FROM holdings WHERE user_id = $user_id ORDER BY created_at DESC"
	vars := map[string]any{"user_id": userID}

	results, err := surrealdb.Query[[]holdingRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return nil, nil
	}
	var out []models.Holding
	for i := range (*results)[0].Result {
		out = append(out, (*results)[0].Result[i].toModel())
	}
	return out, nil
}

func (s *Store) GetHolding(ctx context.Context, id string) (*models.Holding, error) {
	record, err := surrealdb.Select[holdingRecord](ctx, s.db, surrealmodels.NewRecordID(tableHoldings, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select holding: %w", err)
	}
	if record == nil || record.Key == "" {
		return nil, interfaces.ErrNotFound
	}
	h := record.toModel()
	return &h, nil
}

func (s *Store) InsertHolding(ctx context.Context, h *models.Holding) (*models.Holding, error) {
	stored := *h
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if err := s.upsert(ctx, tableHoldings, stored.ID, toHoldingRecord(&stored)); err != nil {
		return nil, fmt.Errorf("failed to insert holding: %w", err)
	}
	return &stored, nil
}

func (s *Store) UpdateHolding(ctx context.Context, h *models.Holding) error {
	if h.ID == "" {
		return fmt.Errorf("holding has no ID")
	}
	if err := s.upsert(ctx, tableHoldings, h.ID, toHoldingRecord(h)); err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	return nil
}

func (s *Store) DeleteHolding(ctx context.Context, id string) error {
	_, err := surrealdb.Delete[holdingRecord](ctx, s.db, surrealmodels.NewRecordID(tableHoldings, id))
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	sql := "SELECT * FROM transactions WHERE user_id = $user_id ORDER BY date DESC"
	vars := map[string]any{"user_id": userID}

	results, err := surrealdb.Query[[]transactionRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return nil, nil
	}
	var out []models.Transaction
	for i := range (*results)[0].Result {
		out = append(out, (*results)[0].Result[i].toModel())
	}
	return out, nil
}

func (s *Store) InsertTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	stored := *tx
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	if err := s.upsert(ctx, tableTransactions, stored.ID, toTransactionRecord(&stored)); err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return &stored, nil
}

func (s *Store) RepointTransactions(ctx context.Context, oldHoldingID, newHoldingID string) (int, error) {
	sql := "UPDATE transactions SET holding_id = $new_id WHERE holding_id = $old_id"
	vars := map[string]any{
		"old_id": oldHoldingID,
		"new_id": newHoldingID,
	}

	results, err := surrealdb.Query[[]transactionRecord](ctx, s.db, sql, vars)
	if err != nil {
		return 0, fmt.Errorf("failed to repoint transactions: %w", err)
	}

	if results != nil && len(*results) > 0 {
		return len((*results)[0].Result), nil
	}
	return 0, nil
}

// upsert writes a record with retries; transient websocket errors on a busy
// connection resolve on the next attempt.
func (s *Store) upsert(ctx context.Context, table, id string, record any) error {
	sql := "UPSERT $rid CONTENT $record"
	vars := map[string]any{
		"rid":    surrealmodels.NewRecordID(table, id),
		"record": record,
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[any](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("upsert failed after retries: %w", lastErr)
}

func (s *Store) Close() error {
	s.db.Close(context.Background())
	return nil
}

// Compile-time check
var _ interfaces.RecordStore = (*Store)(nil)
