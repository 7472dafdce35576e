package postgres

import (
	"context"
	"fmt"

	"star-notary/internal/domain"
	"star-notary/internal/idhash"
	"star-notary/internal/storage"
)

// CoordinateStore implements storage.CoordinateStore using PostgreSQL.
// Rows are keyed by the coordinate fingerprint hash; the raw strings are kept
// alongside as BYTEA.
type CoordinateStore struct {
	q querier
}

// NewCoordinateStore creates a new CoordinateStore outside any transaction.
func NewCoordinateStore(pool *Pool) *CoordinateStore {
	return &CoordinateStore{q: pool}
}

// Compile-time interface check.
var _ storage.CoordinateStore = (*CoordinateStore)(nil)

// Exists reports whether the exact coordinates were ever registered.
func (s *CoordinateStore) Exists(ctx context.Context, c domain.Coordinates) (bool, error) {
	var ok bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM coordinates WHERE fingerprint = $1)
	`, idhash.ComputeFingerprint(c)).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check coordinates: %w", err)
	}
	return ok, nil
}

// Insert registers coordinates against a token. Returns ErrDuplicateKey if already registered.
func (s *CoordinateStore) Insert(ctx context.Context, c domain.Coordinates, id domain.TokenID) error {
	key, err := toBigint(uint64(id))
	if err != nil {
		return err
	}

	query := `
		INSERT INTO coordinates (fingerprint, ra, dec, mag, token_id)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = s.q.Exec(ctx, query, idhash.ComputeFingerprint(c), []byte(c.RA), []byte(c.Dec), []byte(c.Mag), key)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert coordinates: %w", err)
	}
	return nil
}

// GetTokenID returns the token registered for coordinates. Returns ErrNotFound if none.
func (s *CoordinateStore) GetTokenID(ctx context.Context, c domain.Coordinates) (domain.TokenID, error) {
	var id int64
	err := s.q.QueryRow(ctx, `
		SELECT token_id FROM coordinates WHERE fingerprint = $1
	`, idhash.ComputeFingerprint(c)).Scan(&id)
	if err != nil {
		if isNotFoundError(err) {
			return 0, storage.ErrNotFound
		}
		return 0, fmt.Errorf("get coordinates token: %w", err)
	}
	return domain.TokenID(id), nil
}
