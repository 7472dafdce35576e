package notary

import (
	"errors"

	"star-notary/internal/ledger"
)

// Errors shared with the token ledger, re-exported so callers match a single set.
var (
	ErrAccessDenied      = ledger.ErrAccessDenied
	ErrNotFound          = ledger.ErrNotFound
	ErrInvalidAddress    = ledger.ErrInvalidAddress
	ErrInvalidOperator   = ledger.ErrInvalidOperator
	ErrTokenExists       = ledger.ErrTokenExists
	ErrInvalidTokenID    = ledger.ErrInvalidTokenID
	ErrInsufficientFunds = ledger.ErrInsufficientFunds
	ErrBalanceOverflow   = ledger.ErrBalanceOverflow
	ErrOutOfRange        = ledger.ErrOutOfRange
)

// Registry and marketplace errors.
var (
	// ErrDuplicateCoordinates is returned when a star with the same ra, dec and mag was already registered.
	ErrDuplicateCoordinates = errors.New("the star with these coordinates already exists")

	// ErrAlreadyExists is returned when a star record is created twice for one token.
	ErrAlreadyExists = errors.New("star record already exists")

	// ErrNotListed is returned when a star is not up for sale.
	ErrNotListed = errors.New("star is not up for sale")

	// ErrInsufficientPayment is returned when the attached value is below the asking price.
	ErrInsufficientPayment = errors.New("insufficient payment")
)
