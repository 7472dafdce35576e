package memory

import (
	"context"
	"sync"

	"star-notary/internal/domain"
	"star-notary/internal/storage"
)

// AccountStore is an in-memory implementation of storage.AccountStore.
type AccountStore struct {
	mu       sync.RWMutex
	journal  *journal
	balances map[domain.Address]domain.Lamports
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		balances: make(map[domain.Address]domain.Lamports),
	}
}

// GetBalance returns the balance of an account. Unknown accounts have zero balance.
func (s *AccountStore) GetBalance(_ context.Context, account domain.Address) (domain.Lamports, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[account], nil
}

// SetBalance overwrites the balance of an account.
func (s *AccountStore) SetBalance(_ context.Context, account domain.Address, amount domain.Lamports) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.balances[account]
	s.set(account, amount)

	s.journal.record(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if had {
			s.balances[account] = prev
		} else {
			delete(s.balances, account)
		}
	})
	return nil
}

// set stores a balance, dropping empty accounts. Caller must hold mu.
func (s *AccountStore) set(account domain.Address, amount domain.Lamports) {
	if amount == 0 {
		delete(s.balances, account)
		return
	}
	s.balances[account] = amount
}

// Verify interface compliance at compile time.
var _ storage.AccountStore = (*AccountStore)(nil)
