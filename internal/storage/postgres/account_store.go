package postgres

import (
	"context"
	"fmt"

	"star-notary/internal/domain"
	"star-notary/internal/storage"
)

// AccountStore implements storage.AccountStore using PostgreSQL.
// Empty accounts have no row.
type AccountStore struct {
	q querier
}

// NewAccountStore creates a new AccountStore outside any transaction.
func NewAccountStore(pool *Pool) *AccountStore {
	return &AccountStore{q: pool}
}

// Compile-time interface check.
var _ storage.AccountStore = (*AccountStore)(nil)

// GetBalance returns the balance of an account. Unknown accounts have zero balance.
func (s *AccountStore) GetBalance(ctx context.Context, account domain.Address) (domain.Lamports, error) {
	var balance int64
	err := s.q.QueryRow(ctx, `SELECT balance FROM accounts WHERE account = $1`, account.String()).Scan(&balance)
	if err != nil {
		if isNotFoundError(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return domain.Lamports(balance), nil
}

// SetBalance overwrites the balance of an account.
func (s *AccountStore) SetBalance(ctx context.Context, account domain.Address, amount domain.Lamports) error {
	if amount == 0 {
		if _, err := s.q.Exec(ctx, `DELETE FROM accounts WHERE account = $1`, account.String()); err != nil {
			return fmt.Errorf("clear balance: %w", err)
		}
		return nil
	}

	balance, err := toBigint(uint64(amount))
	if err != nil {
		return err
	}

	query := `
		INSERT INTO accounts (account, balance) VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET balance = EXCLUDED.balance, updated_at = NOW()
	`

	if _, err := s.q.Exec(ctx, query, account.String(), balance); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}
