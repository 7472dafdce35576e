package memory

import (
	"context"
	"sync"

	"star-notary/internal/storage"
)

// DB is an in-memory implementation of storage.DB.
// Transactions are serialized by a single lock; a failed transaction is
// undone by replaying the journal in reverse. WithTx is not reentrant.
type DB struct {
	mu      sync.Mutex
	journal *journal

	tokens      *TokenStore
	coordinates *CoordinateStore
	stars       *StarStore
	listings    *ListingStore
	accounts    *AccountStore
	sales       *SaleStore
}

// NewDB creates an empty in-memory ledger database.
func NewDB() *DB {
	j := &journal{}

	tokens := NewTokenStore()
	tokens.journal = j
	coordinates := NewCoordinateStore()
	coordinates.journal = j
	stars := NewStarStore()
	stars.journal = j
	listings := NewListingStore()
	listings.journal = j
	accounts := NewAccountStore()
	accounts.journal = j
	sales := NewSaleStore()
	sales.journal = j

	return &DB{
		journal:     j,
		tokens:      tokens,
		coordinates: coordinates,
		stars:       stars,
		listings:    listings,
		accounts:    accounts,
		sales:       sales,
	}
}

// WithTx runs fn atomically. On error or panic every write made by fn is reverted.
func (db *DB) WithTx(ctx context.Context, fn func(tx storage.Tx) error) (err error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	db.journal.begin()
	defer func() {
		if p := recover(); p != nil {
			db.journal.rollback()
			panic(p)
		}
	}()

	if err = fn(db); err != nil {
		db.journal.rollback()
		return err
	}

	db.journal.commit()
	return nil
}

// Tokens returns the token store.
func (db *DB) Tokens() storage.TokenStore { return db.tokens }

// Coordinates returns the coordinate registry store.
func (db *DB) Coordinates() storage.CoordinateStore { return db.coordinates }

// Stars returns the star metadata store.
func (db *DB) Stars() storage.StarStore { return db.stars }

// Listings returns the listing store.
func (db *DB) Listings() storage.ListingStore { return db.listings }

// Accounts returns the account balance store.
func (db *DB) Accounts() storage.AccountStore { return db.accounts }

// Sales returns the sale history store.
func (db *DB) Sales() storage.SaleStore { return db.sales }

// Verify interface compliance at compile time.
var (
	_ storage.DB = (*DB)(nil)
	_ storage.Tx = (*DB)(nil)
)
