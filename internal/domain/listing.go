package domain

import (
	"math"
	"strconv"
)

// Lamports is an amount of the ledger's native currency, in its smallest unit.
type Lamports uint64

// LamportsPerSOL is the number of lamports in one whole coin.
const LamportsPerSOL Lamports = 1_000_000_000

// MaxLamports is the largest amount every storage backend can hold
// (PostgreSQL BIGINT). Balances and prices never exceed it.
const MaxLamports Lamports = math.MaxInt64

// String returns the decimal form.
func (l Lamports) String() string {
	return strconv.FormatUint(uint64(l), 10)
}

// ParseLamports parses a decimal amount.
func ParseLamports(s string) (Lamports, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return Lamports(v), nil
}

// Listing is an active offer to sell a token at a fixed price.
// Keyed by token id; Seller is the owner at listing time.
type Listing struct {
	TokenID  TokenID
	Price    Lamports // zero is a legal price
	Seller   Address
	ListedAt int64 // unix ms
}

// Sale records a settled purchase.
type Sale struct {
	SaleID  string // deterministic hash, see idhash.ComputeSaleID
	TokenID TokenID
	Seller  Address
	Buyer   Address
	Price   Lamports // credited to seller
	Paid    Lamports // value attached by buyer
	Refund  Lamports // Paid - Price, returned to buyer
	SoldAt  int64    // unix ms
}
