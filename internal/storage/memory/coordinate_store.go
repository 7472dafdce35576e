package memory

import (
	"context"
	"sync"

	"star-notary/internal/domain"
	"star-notary/internal/storage"
)

// CoordinateStore is an in-memory implementation of storage.CoordinateStore.
type CoordinateStore struct {
	mu      sync.RWMutex
	journal *journal
	data    map[domain.Coordinates]domain.TokenID // keyed by exact (ra, dec, mag)
}

// NewCoordinateStore creates a new in-memory coordinate registry.
func NewCoordinateStore() *CoordinateStore {
	return &CoordinateStore{
		data: make(map[domain.Coordinates]domain.TokenID),
	}
}

// Exists reports whether the exact coordinates were ever registered.
func (s *CoordinateStore) Exists(_ context.Context, c domain.Coordinates) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.data[c]
	return exists, nil
}

// Insert registers coordinates against a token. Returns ErrDuplicateKey if already registered.
func (s *CoordinateStore) Insert(_ context.Context, c domain.Coordinates, id domain.TokenID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[c]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[c] = id
	s.journal.record(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.data, c)
	})
	return nil
}

// GetTokenID returns the token registered for coordinates. Returns ErrNotFound if none.
func (s *CoordinateStore) GetTokenID(_ context.Context, c domain.Coordinates) (domain.TokenID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.data[c]
	if !exists {
		return 0, storage.ErrNotFound
	}
	return id, nil
}

// Verify interface compliance at compile time.
var _ storage.CoordinateStore = (*CoordinateStore)(nil)
