package notary

import (
	"context"
	"errors"
	"fmt"

	"star-notary/internal/domain"
	"star-notary/internal/storage"
)

// Registry is the set of coordinates already consumed by a star.
// Membership is permanent.
type Registry struct {
	store storage.CoordinateStore
}

// NewRegistry creates a registry over store.
func NewRegistry(store storage.CoordinateStore) *Registry {
	return &Registry{store: store}
}

// Exists reports whether exactly these coordinates were registered.
func (r *Registry) Exists(ctx context.Context, c domain.Coordinates) (bool, error) {
	ok, err := r.store.Exists(ctx, c)
	if err != nil {
		return false, fmt.Errorf("check coordinates: %w", err)
	}
	return ok, nil
}

// Register consumes c for token id.
func (r *Registry) Register(ctx context.Context, c domain.Coordinates, id domain.TokenID) error {
	if err := r.store.Insert(ctx, c, id); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return ErrDuplicateCoordinates
		}
		return fmt.Errorf("register coordinates: %w", err)
	}
	return nil
}
