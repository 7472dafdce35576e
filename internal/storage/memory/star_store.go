package memory

import (
	"context"
	"sync"

	"star-notary/internal/domain"
	"star-notary/internal/storage"
)

// StarStore is an in-memory implementation of storage.StarStore.
type StarStore struct {
	mu      sync.RWMutex
	journal *journal
	data    map[domain.TokenID]*domain.Star // keyed by token_id
}

// NewStarStore creates a new in-memory star store.
func NewStarStore() *StarStore {
	return &StarStore{
		data: make(map[domain.TokenID]*domain.Star),
	}
}

// Insert adds a new star. Returns ErrDuplicateKey if token_id exists.
func (s *StarStore) Insert(_ context.Context, star *domain.Star) error {
	if star == nil || star.TokenID == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[star.TokenID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	starCopy := *star
	s.data[star.TokenID] = &starCopy

	id := star.TokenID
	s.journal.record(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.data, id)
	})
	return nil
}

// GetByTokenID retrieves a star. Returns ErrNotFound if not exists.
func (s *StarStore) GetByTokenID(_ context.Context, id domain.TokenID) (*domain.Star, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	star, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	starCopy := *star
	return &starCopy, nil
}

// Verify interface compliance at compile time.
var _ storage.StarStore = (*StarStore)(nil)
