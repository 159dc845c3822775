// Package memory provides an in-memory RecordStore used as the session
// fallback when no persistent backend is configured, and by tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dfarias/carteira/internal/common"
	"github.com/dfarias/carteira/internal/interfaces"
	"github.com/dfarias/carteira/internal/models"
)

// Store keeps all records in process memory. Data is lost on restart.
type Store struct {
	mu           sync.RWMutex
	holdings     map[string]models.Holding
	transactions map[string]models.Transaction
	logger       *common.Logger
}

// NewStore creates an empty in-memory store.
func NewStore(logger *common.Logger) *Store {
	return &Store{
		holdings:     make(map[string]models.Holding),
		transactions: make(map[string]models.Transaction),
		logger:       logger,
	}
}

func (s *Store) ListHoldings(_ context.Context, userID string) ([]models.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Holding
	for _, h := range s.holdings {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetHolding(_ context.Context, id string) (*models.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.holdings[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &h, nil
}

func (s *Store) InsertHolding(_ context.Context, h *models.Holding) (*models.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *h
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	s.holdings[stored.ID] = stored
	return &stored, nil
}

func (s *Store) UpdateHolding(_ context.Context, h *models.Holding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.holdings[h.ID]; !ok {
		return interfaces.ErrNotFound
	}
	s.holdings[h.ID] = *h
	return nil
}

func (s *Store) DeleteHolding(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.holdings, id)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Transaction
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *Store) InsertTransaction(_ context.Context, tx *models.Transaction) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *tx
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	s.transactions[stored.ID] = stored
	return &stored, nil
}

func (s *Store) RepointTransactions(_ context.Context, oldHoldingID, newHoldingID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, tx := range s.transactions {
		if tx.HoldingID == oldHoldingID {
			tx.HoldingID = newHoldingID
			s.transactions[id] = tx
			count++
		}
	}
	return count, nil
}

func (s *Store) Close() error {
	return nil
}

// Compile-time check
var _ interfaces.RecordStore = (*Store)(nil)
