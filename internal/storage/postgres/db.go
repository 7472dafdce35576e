package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"star-notary/internal/storage"
)

// DB implements storage.DB on PostgreSQL. Each WithTx call runs in its own
// SERIALIZABLE transaction. The DB itself also satisfies storage.Tx with
// stores bound to the pool, for reads and setup outside a transaction.
type DB struct {
	pool *Pool
	stores
}

// NewDB creates a DB over an open pool.
func NewDB(pool *Pool) *DB {
	return &DB{pool: pool, stores: newStores(pool)}
}

// WithTx runs fn in a serializable transaction. Any error rolls back every write.
func (db *DB) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(newStores(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// stores binds one store of each kind to a querier.
type stores struct {
	tokens      *TokenStore
	coordinates *CoordinateStore
	stars       *StarStore
	listings    *ListingStore
	accounts    *AccountStore
	sales       *SaleStore
}

func newStores(q querier) stores {
	return stores{
		tokens:      &TokenStore{q: q},
		coordinates: &CoordinateStore{q: q},
		stars:       &StarStore{q: q},
		listings:    &ListingStore{q: q},
		accounts:    &AccountStore{q: q},
		sales:       &SaleStore{q: q},
	}
}

func (s stores) Tokens() storage.TokenStore           { return s.tokens }
func (s stores) Coordinates() storage.CoordinateStore { return s.coordinates }
func (s stores) Stars() storage.StarStore             { return s.stars }
func (s stores) Listings() storage.ListingStore       { return s.listings }
func (s stores) Accounts() storage.AccountStore       { return s.accounts }
func (s stores) Sales() storage.SaleStore             { return s.sales }

// Compile-time interface checks.
var (
	_ storage.DB = (*DB)(nil)
	_ storage.Tx = (*DB)(nil)
	_ storage.Tx = stores{}
)
