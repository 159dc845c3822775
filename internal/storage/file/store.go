// Package file provides a file-backed RecordStore. Each user's holdings and
// transactions live in one JSON document under the base path, written
// atomically so a crash mid-write never leaves a truncated file.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dfarias/carteira/internal/common"
	"github.com/dfarias/carteira/internal/interfaces"
	"github.com/dfarias/carteira/internal/models"
)

// Store persists records as per-user JSON files under basePath/users.
type Store struct {
	basePath string
	logger   *common.Logger
	mu       sync.Mutex
}

// userDocument is the on-disk shape of one user's data.
type userDocument struct {
	Holdings     []models.Holding     `json:"holdings"`
	Transactions []models.Transaction `json:"transactions"`
}

// NewStore creates a Store and ensures the users directory exists.
func NewStore(logger *common.Logger, basePath string) (*Store, error) {
	dir := filepath.Join(basePath, "users")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	s := &Store{
		basePath: basePath,
		logger:   logger,
	}
	logger.Debug().Str("path", basePath).Msg("file store opened")
	return s, nil
}

// sanitizeKey makes a user ID safe for use as a filename.
// Replaces /, \, : with _ and collapses ".." to "_" to prevent path traversal.
func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

func (s *Store) userPath(userID string) string {
	return filepath.Join(s.basePath, "users", sanitizeKey(userID)+".json")
}

// readUser loads a user's document; an absent file is an empty document.
func (s *Store) readUser(userID string) (*userDocument, error) {
	path := s.userPath(userID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &userDocument{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc userDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &doc, nil
}

// writeUser marshals the document to indented JSON and writes it atomically:
// temp file in the same directory, then rename.
func (s *Store) writeUser(userID string, doc *userDocument) error {
	target := s.userPath(userID)
	dir := filepath.Dir(target)

	jsonData, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(jsonData); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// listUserIDs returns every user with a document on disk.
func (s *Store) listUserIDs() ([]string, error) {
	dir := filepath.Join(s.basePath, "users")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".json") && !strings.HasPrefix(name, ".tmp-") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}
	return ids, nil
}

func (s *Store) ListHoldings(_ context.Context, userID string) ([]models.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readUser(userID)
	if err != nil {
		return nil, err
	}

	out := make([]models.Holding, len(doc.Holdings))
	copy(out, doc.Holdings)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetHolding(_ context.Context, id string) (*models.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, _, err := s.findHoldingDoc(id)
	if err != nil {
		return nil, err
	}
	for i := range doc.Holdings {
		if doc.Holdings[i].ID == id {
			h := doc.Holdings[i]
			return &h, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

// findHoldingDoc locates the user document containing a holding ID.
func (s *Store) findHoldingDoc(id string) (*userDocument, string, error) {
	userIDs, err := s.listUserIDs()
	if err != nil {
		return nil, "", err
	}
	for _, userID := range userIDs {
		doc, err := s.readUser(userID)
		if err != nil {
			return nil, "", err
		}
		for i := range doc.Holdings {
			if doc.Holdings[i].ID == id {
				return doc, userID, nil
			}
		}
	}
	return nil, "", interfaces.ErrNotFound
}

func (s *Store) InsertHolding(_ context.Context, h *models.Holding) (*models.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readUser(h.UserID)
	if err != nil {
		return nil, err
	}

	stored := *h
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	doc.Holdings = append(doc.Holdings, stored)

	if err := s.writeUser(h.UserID, doc); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *Store) UpdateHolding(_ context.Context, h *models.Holding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readUser(h.UserID)
	if err != nil {
		return err
	}

	for i := range doc.Holdings {
		if doc.Holdings[i].ID == h.ID {
			doc.Holdings[i] = *h
			return s.writeUser(h.UserID, doc)
		}
	}
	return interfaces.ErrNotFound
}

func (s *Store) DeleteHolding(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, userID, err := s.findHoldingDoc(id)
	if err != nil {
		if err == interfaces.ErrNotFound {
			return nil
		}
		return err
	}

	kept := doc.Holdings[:0]
	for _, h := range doc.Holdings {
		if h.ID != id {
			kept = append(kept, h)
		}
	}
	doc.Holdings = kept
	return s.writeUser(userID, doc)
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readUser(userID)
	if err != nil {
		return nil, err
	}

	out := make([]models.Transaction, len(doc.Transactions))
	copy(out, doc.Transactions)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *Store) InsertTransaction(_ context.Context, tx *models.Transaction) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readUser(tx.UserID)
	if err != nil {
		return nil, err
	}

	stored := *tx
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	doc.Transactions = append(doc.Transactions, stored)

	if err := s.writeUser(tx.UserID, doc); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *Store) RepointTransactions(_ context.Context, oldHoldingID, newHoldingID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userIDs, err := s.listUserIDs()
	if err != nil {
		return 0, err
	}

	total := 0
	for _, userID := range userIDs {
		doc, err := s.readUser(userID)
		if err != nil {
			return total, err
		}

		changed := 0
		for i := range doc.Transactions {
			if doc.Transactions[i].HoldingID == oldHoldingID {
				doc.Transactions[i].HoldingID = newHoldingID
				changed++
			}
		}
		if changed == 0 {
			continue
		}
		if err := s.writeUser(userID, doc); err != nil {
			return total, err
		}
		total += changed
	}
	return total, nil
}

func (s *Store) Close() error {
	return nil
}

// Compile-time check
var _ interfaces.RecordStore = (*Store)(nil)
