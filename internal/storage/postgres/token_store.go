package postgres

import (
	"context"
	"fmt"

	"star-notary/internal/domain"
	"star-notary/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	q querier
}

// NewTokenStore creates a new TokenStore outside any transaction.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{q: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// GetOwner returns the owner of a token. Returns ErrNotFound if never minted.
func (s *TokenStore) GetOwner(ctx context.Context, id domain.TokenID) (domain.Address, error) {
	key, err := toBigint(uint64(id))
	if err != nil {
		return domain.ZeroAddress, storage.ErrNotFound
	}

	var owner string
	err = s.q.QueryRow(ctx, `SELECT owner FROM tokens WHERE token_id = $1`, key).Scan(&owner)
	if err != nil {
		if isNotFoundError(err) {
			return domain.ZeroAddress, storage.ErrNotFound
		}
		return domain.ZeroAddress, fmt.Errorf("get token owner: %w", err)
	}
	return parseAddress(owner)
}

// InsertToken records a freshly minted token. Returns ErrDuplicateKey if the id exists.
func (s *TokenStore) InsertToken(ctx context.Context, id domain.TokenID, owner domain.Address) error {
	if owner.IsZero() {
		return storage.ErrInvalidInput
	}
	key, err := toBigint(uint64(id))
	if err != nil {
		return err
	}

	_, err = s.q.Exec(ctx, `INSERT INTO tokens (token_id, owner) VALUES ($1, $2)`, key, owner.String())
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// SetOwner moves a token to a new owner and clears its approval.
func (s *TokenStore) SetOwner(ctx context.Context, id domain.TokenID, owner domain.Address) error {
	if owner.IsZero() {
		return storage.ErrInvalidInput
	}
	key, err := toBigint(uint64(id))
	if err != nil {
		return storage.ErrNotFound
	}

	tag, err := s.q.Exec(ctx, `
		UPDATE tokens SET owner = $2, approved = NULL
		WHERE token_id = $1
	`, key, owner.String())
	if err != nil {
		return fmt.Errorf("set token owner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CountByOwner returns how many tokens an address owns.
func (s *TokenStore) CountByOwner(ctx context.Context, owner domain.Address) (uint64, error) {
	var count int64
	err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM tokens WHERE owner = $1`, owner.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tokens by owner: %w", err)
	}
	return uint64(count), nil
}

// GetApproved returns the approved address for a token, ZeroAddress if none.
func (s *TokenStore) GetApproved(ctx context.Context, id domain.TokenID) (domain.Address, error) {
	key, err := toBigint(uint64(id))
	if err != nil {
		return domain.ZeroAddress, storage.ErrNotFound
	}

	var approved *string
	err = s.q.QueryRow(ctx, `SELECT approved FROM tokens WHERE token_id = $1`, key).Scan(&approved)
	if err != nil {
		if isNotFoundError(err) {
			return domain.ZeroAddress, storage.ErrNotFound
		}
		return domain.ZeroAddress, fmt.Errorf("get approved: %w", err)
	}
	if approved == nil {
		return domain.ZeroAddress, nil
	}
	return parseAddress(*approved)
}

// SetApproved sets the approved address for a token. ZeroAddress clears it.
func (s *TokenStore) SetApproved(ctx context.Context, id domain.TokenID, approved domain.Address) error {
	key, err := toBigint(uint64(id))
	if err != nil {
		return storage.ErrNotFound
	}

	var value *string
	if !approved.IsZero() {
		v := approved.String()
		value = &v
	}

	tag, err := s.q.Exec(ctx, `UPDATE tokens SET approved = $2 WHERE token_id = $1`, key, value)
	if err != nil {
		return fmt.Errorf("set approved: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// IsOperator reports whether operator may manage all tokens of owner.
func (s *TokenStore) IsOperator(ctx context.Context, owner, operator domain.Address) (bool, error) {
	var ok bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM operators WHERE owner = $1 AND operator = $2)
	`, owner.String(), operator.String()).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check operator: %w", err)
	}
	return ok, nil
}

// SetOperator grants or revokes operator approval.
func (s *TokenStore) SetOperator(ctx context.Context, owner, operator domain.Address, approved bool) error {
	query := `DELETE FROM operators WHERE owner = $1 AND operator = $2`
	if approved {
		query = `INSERT INTO operators (owner, operator) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	}

	if _, err := s.q.Exec(ctx, query, owner.String(), operator.String()); err != nil {
		return fmt.Errorf("set operator: %w", err)
	}
	return nil
}

// IsMinter reports whether account holds the minter role.
func (s *TokenStore) IsMinter(ctx context.Context, account domain.Address) (bool, error) {
	var ok bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM minters WHERE account = $1)
	`, account.String()).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check minter: %w", err)
	}
	return ok, nil
}

// SetMinter grants or revokes the minter role.
func (s *TokenStore) SetMinter(ctx context.Context, account domain.Address, minter bool) error {
	query := `DELETE FROM minters WHERE account = $1`
	if minter {
		query = `INSERT INTO minters (account) VALUES ($1) ON CONFLICT DO NOTHING`
	}

	if _, err := s.q.Exec(ctx, query, account.String()); err != nil {
		return fmt.Errorf("set minter: %w", err)
	}
	return nil
}
