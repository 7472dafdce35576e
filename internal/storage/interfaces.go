package storage

import (
	"context"

	"star-notary/internal/domain"
)

// TokenStore holds token ownership, per-token approvals, operator approvals
// and the minter role. It is the persisted state of the token ledger.
type TokenStore interface {
	// GetOwner returns the owner of a token. Returns ErrNotFound if the token was never minted.
	GetOwner(ctx context.Context, id domain.TokenID) (domain.Address, error)

	// InsertToken records a freshly minted token. Returns ErrDuplicateKey if the id exists.
	InsertToken(ctx context.Context, id domain.TokenID, owner domain.Address) error

	// SetOwner moves an existing token to a new owner and clears its approval.
	// Returns ErrNotFound if the token does not exist.
	SetOwner(ctx context.Context, id domain.TokenID, owner domain.Address) error

	// CountByOwner returns how many tokens an address owns.
	CountByOwner(ctx context.Context, owner domain.Address) (uint64, error)

	// GetApproved returns the approved address for a token, ZeroAddress if none.
	// Returns ErrNotFound if the token does not exist.
	GetApproved(ctx context.Context, id domain.TokenID) (domain.Address, error)

	// SetApproved sets the approved address for a token. ZeroAddress clears it.
	SetApproved(ctx context.Context, id domain.TokenID, approved domain.Address) error

	// IsOperator reports whether operator may manage all tokens of owner.
	IsOperator(ctx context.Context, owner, operator domain.Address) (bool, error)

	// SetOperator grants or revokes operator approval.
	SetOperator(ctx context.Context, owner, operator domain.Address, approved bool) error

	// IsMinter reports whether account holds the minter role.
	IsMinter(ctx context.Context, account domain.Address) (bool, error)

	// SetMinter grants or revokes the minter role.
	SetMinter(ctx context.Context, account domain.Address, minter bool) error
}

// CoordinateStore is the append-only registry of consumed star fingerprints.
type CoordinateStore interface {
	// Exists reports whether the exact coordinates were ever registered.
	Exists(ctx context.Context, c domain.Coordinates) (bool, error)

	// Insert registers coordinates against a token. Returns ErrDuplicateKey if already registered.
	Insert(ctx context.Context, c domain.Coordinates, id domain.TokenID) error

	// GetTokenID returns the token registered for coordinates. Returns ErrNotFound if none.
	GetTokenID(ctx context.Context, c domain.Coordinates) (domain.TokenID, error)
}

// StarStore provides access to immutable star metadata.
type StarStore interface {
	// Insert adds a new star. Returns ErrDuplicateKey if token_id exists.
	Insert(ctx context.Context, s *domain.Star) error

	// GetByTokenID retrieves a star. Returns ErrNotFound if not exists.
	GetByTokenID(ctx context.Context, id domain.TokenID) (*domain.Star, error)
}

// ListingStore holds active sale listings keyed by token id.
type ListingStore interface {
	// Put stores or overwrites the listing for l.TokenID.
	Put(ctx context.Context, l *domain.Listing) error

	// GetByTokenID retrieves a listing. Returns ErrNotFound if the token is not listed.
	GetByTokenID(ctx context.Context, id domain.TokenID) (*domain.Listing, error)

	// Delete removes a listing. Returns ErrNotFound if the token is not listed.
	Delete(ctx context.Context, id domain.TokenID) error

	// GetAll retrieves all active listings, ordered by token_id ASC.
	GetAll(ctx context.Context) ([]*domain.Listing, error)
}

// AccountStore holds native-currency balances.
type AccountStore interface {
	// GetBalance returns the balance of an account. Unknown accounts have zero balance.
	GetBalance(ctx context.Context, account domain.Address) (domain.Lamports, error)

	// SetBalance overwrites the balance of an account.
	SetBalance(ctx context.Context, account domain.Address, amount domain.Lamports) error
}

// SaleStore provides access to the append-only sale history.
type SaleStore interface {
	// Insert adds a new sale. Returns ErrDuplicateKey if sale_id exists.
	Insert(ctx context.Context, s *domain.Sale) error

	// GetByTokenID retrieves all sales of a token, ordered by sold_at ASC.
	GetByTokenID(ctx context.Context, id domain.TokenID) ([]*domain.Sale, error)

	// GetByTimeRange retrieves sales within [start, end] (inclusive), ordered by sold_at ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.Sale, error)
}

// Tx exposes every ledger store bound to one transaction.
type Tx interface {
	Tokens() TokenStore
	Coordinates() CoordinateStore
	Stars() StarStore
	Listings() ListingStore
	Accounts() AccountStore
	Sales() SaleStore
}

// DB runs functions atomically against the ledger stores.
type DB interface {
	// WithTx runs fn inside a transaction. If fn returns an error every
	// write made through tx is discarded and the error is returned unchanged.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}
