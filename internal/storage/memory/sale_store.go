package memory

import (
	"context"
	"sort"
	"sync"

	"star-notary/internal/domain"
	"star-notary/internal/storage"
)

// SaleStore is an in-memory implementation of storage.SaleStore.
type SaleStore struct {
	mu      sync.RWMutex
	journal *journal
	data    map[string]*domain.Sale // keyed by sale_id
}

// NewSaleStore creates a new in-memory sale history store.
func NewSaleStore() *SaleStore {
	return &SaleStore{
		data: make(map[string]*domain.Sale),
	}
}

// Insert adds a new sale. Returns ErrDuplicateKey if sale_id exists.
func (s *SaleStore) Insert(_ context.Context, sale *domain.Sale) error {
	if sale == nil || sale.SaleID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[sale.SaleID]; exists {
		return storage.ErrDuplicateKey
	}

	saleCopy := *sale
	s.data[sale.SaleID] = &saleCopy

	id := sale.SaleID
	s.journal.record(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.data, id)
	})
	return nil
}

// GetByTokenID retrieves all sales of a token, ordered by sold_at ASC.
func (s *SaleStore) GetByTokenID(_ context.Context, id domain.TokenID) ([]*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Sale
	for _, sale := range s.data {
		if sale.TokenID == id {
			saleCopy := *sale
			result = append(result, &saleCopy)
		}
	}

	sortSales(result)
	return result, nil
}

// GetByTimeRange retrieves sales within [start, end] (inclusive), ordered by sold_at ASC.
func (s *SaleStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Sale
	for _, sale := range s.data {
		if sale.SoldAt >= start && sale.SoldAt <= end {
			saleCopy := *sale
			result = append(result, &saleCopy)
		}
	}

	sortSales(result)
	return result, nil
}

// sortSales orders by sold_at ASC, sale_id ASC for a deterministic tie-break.
func sortSales(sales []*domain.Sale) {
	sort.Slice(sales, func(i, j int) bool {
		if sales[i].SoldAt != sales[j].SoldAt {
			return sales[i].SoldAt < sales[j].SoldAt
		}
		return sales[i].SaleID < sales[j].SaleID
	})
}

// Verify interface compliance at compile time.
var _ storage.SaleStore = (*SaleStore)(nil)
