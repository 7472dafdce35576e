package postgres

import (
	"context"
	"fmt"

	"star-notary/internal/domain"
	"star-notary/internal/storage"
)

// StarStore implements storage.StarStore using PostgreSQL.
// Text fields are BYTEA so any byte string round-trips unchanged.
type StarStore struct {
	q querier
}

// NewStarStore creates a new StarStore outside any transaction.
func NewStarStore(pool *Pool) *StarStore {
	return &StarStore{q: pool}
}

// Compile-time interface check.
var _ storage.StarStore = (*StarStore)(nil)

// Insert adds a new star. Returns ErrDuplicateKey if token_id exists.
func (s *StarStore) Insert(ctx context.Context, star *domain.Star) error {
	if star == nil || star.TokenID == 0 {
		return storage.ErrInvalidInput
	}
	key, err := toBigint(uint64(star.TokenID))
	if err != nil {
		return err
	}

	query := `
		INSERT INTO stars (token_id, name, story, ra, dec, mag, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = s.q.Exec(ctx, query,
		key,
		[]byte(star.Name),
		[]byte(star.Story),
		[]byte(star.Coordinates.RA),
		[]byte(star.Coordinates.Dec),
		[]byte(star.Coordinates.Mag),
		star.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert star: %w", err)
	}
	return nil
}

// GetByTokenID retrieves a star. Returns ErrNotFound if not exists.
func (s *StarStore) GetByTokenID(ctx context.Context, id domain.TokenID) (*domain.Star, error) {
	key, err := toBigint(uint64(id))
	if err != nil {
		return nil, storage.ErrNotFound
	}

	query := `
		SELECT token_id, name, story, ra, dec, mag, created_at
		FROM stars
		WHERE token_id = $1
	`

	var (
		star                      domain.Star
		tokenID                   int64
		name, story, ra, dec, mag []byte
	)
	err = s.q.QueryRow(ctx, query, key).Scan(
		&tokenID,
		&name,
		&story,
		&ra,
		&dec,
		&mag,
		&star.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get star by token id: %w", err)
	}

	star.TokenID = domain.TokenID(tokenID)
	star.Name = string(name)
	star.Story = string(story)
	star.Coordinates = domain.Coordinates{RA: string(ra), Dec: string(dec), Mag: string(mag)}
	return &star, nil
}
