// Package interfaces defines service contracts for Carteira
package interfaces

import (
	"context"
	"errors"

	"github.com/dfarias/carteira/internal/models"
)

// ErrNotFound is returned by stores when a record does not exist.
// Deletes of absent records are NOT errors; absence is the desired state.
var ErrNotFound = errors.New("record not found")

// RecordStore persists holdings and transactions for users. No transactional
// guarantee is assumed across calls; callers must tolerate partial
// completion (a failed delete after a successful repoint leaves an orphan
// that the next reconciliation pass merges again).
type RecordStore interface {
	// Holdings
	ListHoldings(ctx context.Context, userID string) ([]models.Holding, error)
	GetHolding(ctx context.Context, id string) (*models.Holding, error)
	InsertHolding(ctx context.Context, h *models.Holding) (*models.Holding, error)
	UpdateHolding(ctx context.Context, h *models.Holding) error
	DeleteHolding(ctx context.Context, id string) error

	// Transactions
	ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
	InsertTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)

	// RepointTransactions rewrites the holding reference on every
	// transaction pointing at oldHoldingID and returns the count changed.
	// Idempotent: repointing an already-repointed set changes nothing.
	RepointTransactions(ctx context.Context, oldHoldingID, newHoldingID string) (int, error)

	Close() error
}
