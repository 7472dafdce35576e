package ledger

import (
	"context"
	"errors"
	"fmt"

	"star-notary/internal/domain"
	"star-notary/internal/storage"
)

// Funds moves native currency between accounts.
// Bind it to a transaction-scoped store to make its writes atomic.
type Funds struct {
	store storage.AccountStore
}

// NewFunds creates a Funds over store.
func NewFunds(store storage.AccountStore) *Funds {
	return &Funds{store: store}
}

// Balance returns the balance of account.
func (f *Funds) Balance(ctx context.Context, account domain.Address) (domain.Lamports, error) {
	bal, err := f.store.GetBalance(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return bal, nil
}

// Credit adds amount to account.
func (f *Funds) Credit(ctx context.Context, account domain.Address, amount domain.Lamports) error {
	if amount == 0 {
		return nil
	}
	if account.IsZero() {
		return fmt.Errorf("%w: credit to zero address", ErrInvalidAddress)
	}

	bal, err := f.Balance(ctx, account)
	if err != nil {
		return err
	}
	next := bal + amount
	if next < bal || next > domain.MaxLamports {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, account)
	}

	return f.set(ctx, account, next)
}

func (f *Funds) set(ctx context.Context, account domain.Address, amount domain.Lamports) error {
	if err := f.store.SetBalance(ctx, account, amount); err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			return fmt.Errorf("%w: balance %s", ErrOutOfRange, amount)
		}
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

// Debit removes amount from account.
func (f *Funds) Debit(ctx context.Context, account domain.Address, amount domain.Lamports) error {
	if amount == 0 {
		return nil
	}

	bal, err := f.Balance(ctx, account)
	if err != nil {
		return err
	}
	if bal < amount {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, account, bal, amount)
	}

	return f.set(ctx, account, bal-amount)
}

// Transfer moves amount from one account to another.
func (f *Funds) Transfer(ctx context.Context, from, to domain.Address, amount domain.Lamports) error {
	if err := f.Debit(ctx, from, amount); err != nil {
		return err
	}
	return f.Credit(ctx, to, amount)
}
