package postgres

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"star-notary/internal/domain"
	"star-notary/internal/storage"
)

func TestTokenStore_InsertAndTransfer(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertToken(ctx, 42, testAddr(1)))

	err := store.InsertToken(ctx, 42, testAddr(2))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	require.NoError(t, store.SetApproved(ctx, 42, testAddr(3)))
	approved, err := store.GetApproved(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, testAddr(3), approved)

	require.NoError(t, store.SetOwner(ctx, 42, testAddr(2)))

	owner, err := store.GetOwner(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, testAddr(2), owner)

	// Transfer clears approval
	approved, err = store.GetApproved(ctx, 42)
	require.NoError(t, err)
	assert.True(t, approved.IsZero())

	count, err := store.CountByOwner(ctx, testAddr(2))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	count, err = store.CountByOwner(ctx, testAddr(1))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTokenStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenStore(pool)
	ctx := context.Background()

	_, err := store.GetOwner(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.GetApproved(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, store.SetOwner(ctx, 99, testAddr(1)), storage.ErrNotFound)
	assert.ErrorIs(t, store.SetApproved(ctx, 99, testAddr(1)), storage.ErrNotFound)

	// Ids beyond the bigint range can never exist
	_, err = store.GetOwner(ctx, domain.TokenID(math.MaxUint64))
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.InsertToken(ctx, domain.TokenID(math.MaxUint64), testAddr(1)), storage.ErrInvalidInput)
}

func TestTokenStore_OperatorsAndMinters(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenStore(pool)
	ctx := context.Background()

	require.NoError(t, store.SetOperator(ctx, testAddr(1), testAddr(2), true))
	require.NoError(t, store.SetOperator(ctx, testAddr(1), testAddr(2), true)) // idempotent

	ok, err := store.IsOperator(ctx, testAddr(1), testAddr(2))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.IsOperator(ctx, testAddr(2), testAddr(1))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetOperator(ctx, testAddr(1), testAddr(2), false))
	ok, err = store.IsOperator(ctx, testAddr(1), testAddr(2))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetMinter(ctx, testAddr(5), true))
	ok, err = store.IsMinter(ctx, testAddr(5))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.SetMinter(ctx, testAddr(5), false))
	ok, err = store.IsMinter(ctx, testAddr(5))
	require.NoError(t, err)
	assert.False(t, ok)
}
