package ledger

import "errors"

// Token ledger errors. Every failure aborts the enclosing transaction.
var (
	// ErrAccessDenied is returned when the caller lacks ownership, approval or role.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotFound is returned when a token id was never minted.
	ErrNotFound = errors.New("token not found")

	// ErrInvalidAddress is returned for a zero address where a real account is required,
	// or for approving a token to its own owner.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidOperator is returned when an account tries to make itself its own operator.
	ErrInvalidOperator = errors.New("invalid operator")

	// ErrTokenExists is returned when minting an id that is already minted.
	ErrTokenExists = errors.New("token already minted")

	// ErrInvalidTokenID is returned for token id zero or an id above domain.MaxTokenID.
	ErrInvalidTokenID = errors.New("invalid token id")

	// ErrInsufficientFunds is returned when an account cannot cover a debit.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrBalanceOverflow is returned when a credit would push a balance past domain.MaxLamports.
	ErrBalanceOverflow = errors.New("balance overflow")

	// ErrOutOfRange is returned for an amount above domain.MaxLamports.
	ErrOutOfRange = errors.New("value out of range")
)
