package notary

import (
	"context"
	"errors"
	"fmt"

	"star-notary/internal/domain"
	"star-notary/internal/storage"
)

// Records holds the immutable metadata of every minted star.
type Records struct {
	store storage.StarStore
}

// NewRecords creates a record store over store.
func NewRecords(store storage.StarStore) *Records {
	return &Records{store: store}
}

// Create stores the record for id. A record is never overwritten.
func (r *Records) Create(ctx context.Context, star *domain.Star) error {
	if err := r.store.Insert(ctx, star); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create star record: %w", err)
	}
	return nil
}

// Get returns the stored record for id.
func (r *Records) Get(ctx context.Context, id domain.TokenID) (*domain.Star, error) {
	star, err := r.store.GetByTokenID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get star record: %w", err)
	}
	return star, nil
}

// Read returns the presentation tuple for id, coordinates prefixed.
func (r *Records) Read(ctx context.Context, id domain.TokenID) (*domain.StarInfo, error) {
	star, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	info := star.Info()
	return &info, nil
}
