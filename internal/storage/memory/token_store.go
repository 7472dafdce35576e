package memory

import (
	"context"
	"sync"

	"star-notary/internal/domain"
	"star-notary/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu      sync.RWMutex
	journal *journal

	owners    map[domain.TokenID]domain.Address // keyed by token_id
	approved  map[domain.TokenID]domain.Address // keyed by token_id, absent = none
	counts    map[domain.Address]uint64         // tokens held per owner
	operators map[domain.Address]map[domain.Address]struct{}
	minters   map[domain.Address]struct{}
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		owners:    make(map[domain.TokenID]domain.Address),
		approved:  make(map[domain.TokenID]domain.Address),
		counts:    make(map[domain.Address]uint64),
		operators: make(map[domain.Address]map[domain.Address]struct{}),
		minters:   make(map[domain.Address]struct{}),
	}
}

// GetOwner returns the owner of a token. Returns ErrNotFound if not minted.
func (s *TokenStore) GetOwner(_ context.Context, id domain.TokenID) (domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owner, exists := s.owners[id]
	if !exists {
		return domain.ZeroAddress, storage.ErrNotFound
	}
	return owner, nil
}

// InsertToken records a freshly minted token. Returns ErrDuplicateKey if the id exists.
func (s *TokenStore) InsertToken(_ context.Context, id domain.TokenID, owner domain.Address) error {
	if owner.IsZero() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.owners[id]; exists {
		return storage.ErrDuplicateKey
	}

	s.owners[id] = owner
	s.counts[owner]++
	s.journal.record(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.owners, id)
		s.decrement(owner)
	})
	return nil
}

// SetOwner moves a token to a new owner and clears its approval.
func (s *TokenStore) SetOwner(_ context.Context, id domain.TokenID, owner domain.Address) error {
	if owner.IsZero() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.owners[id]
	if !exists {
		return storage.ErrNotFound
	}
	prevApproved, hadApproval := s.approved[id]

	s.owners[id] = owner
	s.decrement(prev)
	s.counts[owner]++
	delete(s.approved, id)

	s.journal.record(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.owners[id] = prev
		s.decrement(owner)
		s.counts[prev]++
		if hadApproval {
			s.approved[id] = prevApproved
		}
	})
	return nil
}

// decrement lowers an owner's token count. Caller must hold mu.
func (s *TokenStore) decrement(owner domain.Address) {
	if s.counts[owner] <= 1 {
		delete(s.counts, owner)
		return
	}
	s.counts[owner]--
}

// CountByOwner returns how many tokens an address owns.
func (s *TokenStore) CountByOwner(_ context.Context, owner domain.Address) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[owner], nil
}

// GetApproved returns the approved address for a token, ZeroAddress if none.
func (s *TokenStore) GetApproved(_ context.Context, id domain.TokenID) (domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.owners[id]; !exists {
		return domain.ZeroAddress, storage.ErrNotFound
	}
	return s.approved[id], nil
}

// SetApproved sets the approved address for a token. ZeroAddress clears it.
func (s *TokenStore) SetApproved(_ context.Context, id domain.TokenID, approved domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.owners[id]; !exists {
		return storage.ErrNotFound
	}

	prev, had := s.approved[id]
	if approved.IsZero() {
		delete(s.approved, id)
	} else {
		s.approved[id] = approved
	}

	s.journal.record(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if had {
			s.approved[id] = prev
		} else {
			delete(s.approved, id)
		}
	})
	return nil
}

// IsOperator reports whether operator may manage all tokens of owner.
func (s *TokenStore) IsOperator(_ context.Context, owner, operator domain.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.operators[owner][operator]
	return ok, nil
}

// SetOperator grants or revokes operator approval.
func (s *TokenStore) SetOperator(_ context.Context, owner, operator domain.Address, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, was := s.operators[owner][operator]
	s.setOperator(owner, operator, approved)

	s.journal.record(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.setOperator(owner, operator, was)
	})
	return nil
}

// setOperator applies an operator flag. Caller must hold mu.
func (s *TokenStore) setOperator(owner, operator domain.Address, approved bool) {
	if approved {
		if s.operators[owner] == nil {
			s.operators[owner] = make(map[domain.Address]struct{})
		}
		s.operators[owner][operator] = struct{}{}
		return
	}
	delete(s.operators[owner], operator)
	if len(s.operators[owner]) == 0 {
		delete(s.operators, owner)
	}
}

// IsMinter reports whether account holds the minter role.
func (s *TokenStore) IsMinter(_ context.Context, account domain.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.minters[account]
	return ok, nil
}

// SetMinter grants or revokes the minter role.
func (s *TokenStore) SetMinter(_ context.Context, account domain.Address, minter bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, was := s.minters[account]
	s.setMinter(account, minter)

	s.journal.record(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.setMinter(account, was)
	})
	return nil
}

func (s *TokenStore) setMinter(account domain.Address, minter bool) {
	if minter {
		s.minters[account] = struct{}{}
	} else {
		delete(s.minters, account)
	}
}

// Verify interface compliance at compile time.
var _ storage.TokenStore = (*TokenStore)(nil)
