package storage

import "errors"

// Errors returned by every backend. Callers match them with errors.Is.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an insert collides with an existing
	// key: a minted token id, a registered coordinate triple, a star record
	// or a sale id.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned when a value cannot be represented by the
	// backend, e.g. an amount above the BIGINT range in PostgreSQL.
	ErrInvalidInput = errors.New("invalid input")
)
