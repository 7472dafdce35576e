package memory

import (
	"context"
	"sort"
	"sync"

	"star-notary/internal/domain"
	"star-notary/internal/storage"
)

// ListingStore is an in-memory implementation of storage.ListingStore.
type ListingStore struct {
	mu      sync.RWMutex
	journal *journal
	data    map[domain.TokenID]*domain.Listing // keyed by token_id
}

// NewListingStore creates a new in-memory listing store.
func NewListingStore() *ListingStore {
	return &ListingStore{
		data: make(map[domain.TokenID]*domain.Listing),
	}
}

// Put stores or overwrites the listing for l.TokenID.
func (s *ListingStore) Put(_ context.Context, l *domain.Listing) error {
	if l == nil || l.TokenID == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[l.TokenID]
	listingCopy := *l
	s.data[l.TokenID] = &listingCopy

	id := l.TokenID
	s.journal.record(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if had {
			s.data[id] = prev
		} else {
			delete(s.data, id)
		}
	})
	return nil
}

// GetByTokenID retrieves a listing. Returns ErrNotFound if the token is not listed.
func (s *ListingStore) GetByTokenID(_ context.Context, id domain.TokenID) (*domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	listingCopy := *l
	return &listingCopy, nil
}

// Delete removes a listing. Returns ErrNotFound if the token is not listed.
func (s *ListingStore) Delete(_ context.Context, id domain.TokenID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}
	delete(s.data, id)

	s.journal.record(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.data[id] = prev
	})
	return nil
}

// GetAll retrieves all active listings, ordered by token_id ASC.
func (s *ListingStore) GetAll(_ context.Context) ([]*domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Listing, 0, len(s.data))
	for _, l := range s.data {
		listingCopy := *l
		result = append(result, &listingCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TokenID < result[j].TokenID
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.ListingStore = (*ListingStore)(nil)
