// Package ledger implements the token ownership ledger and native-currency
// accounts that the star registry and marketplace are built on.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"star-notary/internal/domain"
	"star-notary/internal/storage"
)

// Default token metadata.
const (
	DefaultName   = "Star Notary"
	DefaultSymbol = "SNOT"
)

// Metadata names the token collection.
type Metadata struct {
	Name   string
	Symbol string
}

// TokenLedger is the ownership capability consumed by the registry and marketplace.
// Caller-facing methods enforce owner, approval, operator and minter rules.
type TokenLedger interface {
	Name() string
	Symbol() string

	BalanceOf(ctx context.Context, owner domain.Address) (uint64, error)
	OwnerOf(ctx context.Context, id domain.TokenID) (domain.Address, error)
	Exists(ctx context.Context, id domain.TokenID) (bool, error)

	Mint(ctx context.Context, caller, to domain.Address, id domain.TokenID) error
	SafeTransferFrom(ctx context.Context, caller, from, to domain.Address, id domain.TokenID) error
	Approve(ctx context.Context, caller, to domain.Address, id domain.TokenID) error
	GetApproved(ctx context.Context, id domain.TokenID) (domain.Address, error)
	SetApprovalForAll(ctx context.Context, caller, operator domain.Address, approved bool) error
	IsApprovedForAll(ctx context.Context, owner, operator domain.Address) (bool, error)

	IsMinter(ctx context.Context, account domain.Address) (bool, error)
	AddMinter(ctx context.Context, caller, account domain.Address) error
	RenounceMinter(ctx context.Context, caller domain.Address) error

	// Transfer moves a token without checking the caller. from must be the
	// current owner. Used by marketplace settlement.
	Transfer(ctx context.Context, from, to domain.Address, id domain.TokenID) error
}

// Tokens implements TokenLedger over a TokenStore.
// Bind it to a transaction-scoped store to make its writes atomic.
type Tokens struct {
	meta    Metadata
	store   storage.TokenStore
	receipt *Receipt
}

// WithDefaults fills an empty name or symbol with the defaults.
func (m Metadata) WithDefaults() Metadata {
	if m.Name == "" {
		m.Name = DefaultName
	}
	if m.Symbol == "" {
		m.Symbol = DefaultSymbol
	}
	return m
}

// NewTokens creates a ledger over store. Events go to receipt, which may be nil.
func NewTokens(meta Metadata, store storage.TokenStore, receipt *Receipt) *Tokens {
	return &Tokens{meta: meta.WithDefaults(), store: store, receipt: receipt}
}

// Compile-time interface check.
var _ TokenLedger = (*Tokens)(nil)

// Name returns the collection name.
func (t *Tokens) Name() string { return t.meta.Name }

// Symbol returns the collection symbol.
func (t *Tokens) Symbol() string { return t.meta.Symbol }

// BalanceOf returns how many tokens owner holds.
func (t *Tokens) BalanceOf(ctx context.Context, owner domain.Address) (uint64, error) {
	if owner.IsZero() {
		return 0, ErrInvalidAddress
	}
	n, err := t.store.CountByOwner(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("count tokens: %w", err)
	}
	return n, nil
}

// OwnerOf returns the owner of a token.
func (t *Tokens) OwnerOf(ctx context.Context, id domain.TokenID) (domain.Address, error) {
	owner, err := t.store.GetOwner(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ZeroAddress, ErrNotFound
		}
		return domain.ZeroAddress, fmt.Errorf("get owner: %w", err)
	}
	return owner, nil
}

// Exists reports whether id was minted.
func (t *Tokens) Exists(ctx context.Context, id domain.TokenID) (bool, error) {
	_, err := t.OwnerOf(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Mint creates token id owned by to. The caller must hold the minter role.
func (t *Tokens) Mint(ctx context.Context, caller, to domain.Address, id domain.TokenID) error {
	ok, err := t.IsMinter(ctx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s is not a minter", ErrAccessDenied, caller)
	}
	if id == 0 || id > domain.MaxTokenID {
		return fmt.Errorf("%w: %s", ErrInvalidTokenID, id)
	}
	if to.IsZero() {
		return fmt.Errorf("%w: mint to zero address", ErrInvalidAddress)
	}

	if err := t.store.InsertToken(ctx, id, to); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return ErrTokenExists
		}
		if errors.Is(err, storage.ErrInvalidInput) {
			return fmt.Errorf("%w: %v", ErrInvalidTokenID, err)
		}
		return fmt.Errorf("insert token: %w", err)
	}

	t.receipt.Emit(domain.TransferEvent(domain.ZeroAddress, to, id))
	return nil
}

// SafeTransferFrom moves id from from to to on behalf of caller.
// Caller must be the owner, the token's approved address, or an operator of the owner.
func (t *Tokens) SafeTransferFrom(ctx context.Context, caller, from, to domain.Address, id domain.TokenID) error {
	owner, err := t.OwnerOf(ctx, id)
	if err != nil {
		return err
	}

	ok, err := t.isApprovedOrOwner(ctx, caller, owner, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s may not transfer token %s", ErrAccessDenied, caller, id)
	}

	return t.move(ctx, owner, from, to, id)
}

// Transfer moves id from from to to without checking the caller.
func (t *Tokens) Transfer(ctx context.Context, from, to domain.Address, id domain.TokenID) error {
	owner, err := t.OwnerOf(ctx, id)
	if err != nil {
		return err
	}
	return t.move(ctx, owner, from, to, id)
}

func (t *Tokens) move(ctx context.Context, owner, from, to domain.Address, id domain.TokenID) error {
	if from != owner {
		return fmt.Errorf("%w: %s does not own token %s", ErrAccessDenied, from, id)
	}
	if to.IsZero() {
		return fmt.Errorf("%w: transfer to zero address", ErrInvalidAddress)
	}

	// SetOwner clears the per-token approval
	if err := t.store.SetOwner(ctx, id, to); err != nil {
		return fmt.Errorf("set owner: %w", err)
	}

	t.receipt.Emit(domain.TransferEvent(from, to, id))
	return nil
}

// Approve lets to transfer id. Caller must be the owner or an operator of the owner.
func (t *Tokens) Approve(ctx context.Context, caller, to domain.Address, id domain.TokenID) error {
	owner, err := t.OwnerOf(ctx, id)
	if err != nil {
		return err
	}
	if to == owner {
		return fmt.Errorf("%w: approval to current owner", ErrInvalidAddress)
	}

	if caller != owner {
		op, err := t.store.IsOperator(ctx, owner, caller)
		if err != nil {
			return fmt.Errorf("check operator: %w", err)
		}
		if !op {
			return fmt.Errorf("%w: %s may not approve token %s", ErrAccessDenied, caller, id)
		}
	}
	if to.IsZero() {
		return fmt.Errorf("%w: approval to zero address", ErrInvalidAddress)
	}

	if err := t.store.SetApproved(ctx, id, to); err != nil {
		return fmt.Errorf("set approved: %w", err)
	}

	t.receipt.Emit(domain.ApprovalEvent(owner, to, id))
	return nil
}

// GetApproved returns the approved address of id, ZeroAddress if none.
func (t *Tokens) GetApproved(ctx context.Context, id domain.TokenID) (domain.Address, error) {
	approved, err := t.store.GetApproved(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ZeroAddress, ErrNotFound
		}
		return domain.ZeroAddress, fmt.Errorf("get approved: %w", err)
	}
	return approved, nil
}

// SetApprovalForAll grants or revokes operator rights over all of caller's tokens.
func (t *Tokens) SetApprovalForAll(ctx context.Context, caller, operator domain.Address, approved bool) error {
	if operator == caller {
		return ErrInvalidOperator
	}
	if operator.IsZero() {
		return fmt.Errorf("%w: zero operator", ErrInvalidAddress)
	}

	if err := t.store.SetOperator(ctx, caller, operator, approved); err != nil {
		return fmt.Errorf("set operator: %w", err)
	}

	t.receipt.Emit(domain.ApprovalForAllEvent(caller, operator, approved))
	return nil
}

// IsApprovedForAll reports whether operator manages all tokens of owner.
func (t *Tokens) IsApprovedForAll(ctx context.Context, owner, operator domain.Address) (bool, error) {
	if owner.IsZero() || operator.IsZero() {
		return false, ErrInvalidAddress
	}
	ok, err := t.store.IsOperator(ctx, owner, operator)
	if err != nil {
		return false, fmt.Errorf("check operator: %w", err)
	}
	return ok, nil
}

// IsMinter reports whether account holds the minter role.
func (t *Tokens) IsMinter(ctx context.Context, account domain.Address) (bool, error) {
	if account.IsZero() {
		return false, nil
	}
	ok, err := t.store.IsMinter(ctx, account)
	if err != nil {
		return false, fmt.Errorf("check minter: %w", err)
	}
	return ok, nil
}

// AddMinter grants the minter role. Only minters may add minters.
func (t *Tokens) AddMinter(ctx context.Context, caller, account domain.Address) error {
	ok, err := t.IsMinter(ctx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s is not a minter", ErrAccessDenied, caller)
	}
	return t.GrantMinter(ctx, account)
}

// GrantMinter grants the minter role without checking a caller.
// Used to seed the deployer's role at startup.
func (t *Tokens) GrantMinter(ctx context.Context, account domain.Address) error {
	if account.IsZero() {
		return fmt.Errorf("%w: zero minter", ErrInvalidAddress)
	}
	if err := t.store.SetMinter(ctx, account, true); err != nil {
		return fmt.Errorf("set minter: %w", err)
	}
	return nil
}

// RenounceMinter drops caller's own minter role.
func (t *Tokens) RenounceMinter(ctx context.Context, caller domain.Address) error {
	ok, err := t.IsMinter(ctx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s is not a minter", ErrAccessDenied, caller)
	}
	if err := t.store.SetMinter(ctx, caller, false); err != nil {
		return fmt.Errorf("set minter: %w", err)
	}
	return nil
}

func (t *Tokens) isApprovedOrOwner(ctx context.Context, spender, owner domain.Address, id domain.TokenID) (bool, error) {
	if spender == owner {
		return true, nil
	}

	approved, err := t.GetApproved(ctx, id)
	if err != nil {
		return false, err
	}
	if !approved.IsZero() && approved == spender {
		return true, nil
	}

	op, err := t.store.IsOperator(ctx, owner, spender)
	if err != nil {
		return false, fmt.Errorf("check operator: %w", err)
	}
	return op, nil
}
