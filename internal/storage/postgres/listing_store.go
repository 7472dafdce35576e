package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"star-notary/internal/domain"
	"star-notary/internal/storage"
)

// ListingStore implements storage.ListingStore using PostgreSQL.
type ListingStore struct {
	q querier
}

// NewListingStore creates a new ListingStore outside any transaction.
func NewListingStore(pool *Pool) *ListingStore {
	return &ListingStore{q: pool}
}

// Compile-time interface check.
var _ storage.ListingStore = (*ListingStore)(nil)

// Put stores or overwrites the listing for l.TokenID.
func (s *ListingStore) Put(ctx context.Context, l *domain.Listing) error {
	if l == nil || l.TokenID == 0 {
		return storage.ErrInvalidInput
	}
	key, err := toBigint(uint64(l.TokenID))
	if err != nil {
		return err
	}
	price, err := toBigint(uint64(l.Price))
	if err != nil {
		return err
	}

	query := `
		INSERT INTO listings (token_id, price, seller, listed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token_id) DO UPDATE
		SET price = EXCLUDED.price, seller = EXCLUDED.seller, listed_at = EXCLUDED.listed_at
	`

	if _, err := s.q.Exec(ctx, query, key, price, l.Seller.String(), l.ListedAt); err != nil {
		return fmt.Errorf("put listing: %w", err)
	}
	return nil
}

// GetByTokenID retrieves a listing. Returns ErrNotFound if the token is not listed.
func (s *ListingStore) GetByTokenID(ctx context.Context, id domain.TokenID) (*domain.Listing, error) {
	key, err := toBigint(uint64(id))
	if err != nil {
		return nil, storage.ErrNotFound
	}

	query := `
		SELECT token_id, price, seller, listed_at
		FROM listings
		WHERE token_id = $1
	`

	rows, err := s.q.Query(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("get listing by token id: %w", err)
	}
	defer rows.Close()

	listings, err := scanListings(rows)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return nil, storage.ErrNotFound
	}
	return listings[0], nil
}

// Delete removes a listing. Returns ErrNotFound if the token is not listed.
func (s *ListingStore) Delete(ctx context.Context, id domain.TokenID) error {
	key, err := toBigint(uint64(id))
	if err != nil {
		return storage.ErrNotFound
	}

	tag, err := s.q.Exec(ctx, `DELETE FROM listings WHERE token_id = $1`, key)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetAll retrieves all active listings, ordered by token_id ASC.
func (s *ListingStore) GetAll(ctx context.Context) ([]*domain.Listing, error) {
	query := `
		SELECT token_id, price, seller, listed_at
		FROM listings
		ORDER BY token_id ASC
	`

	rows, err := s.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all listings: %w", err)
	}
	defer rows.Close()

	return scanListings(rows)
}

// scanListings scans rows into Listing slice.
func scanListings(rows pgx.Rows) ([]*domain.Listing, error) {
	var result []*domain.Listing
	for rows.Next() {
		var (
			l       domain.Listing
			tokenID int64
			price   int64
			seller  string
		)
		if err := rows.Scan(&tokenID, &price, &seller, &l.ListedAt); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}

		addr, err := parseAddress(seller)
		if err != nil {
			return nil, err
		}
		l.TokenID = domain.TokenID(tokenID)
		l.Price = domain.Lamports(price)
		l.Seller = addr
		result = append(result, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return result, nil
}
