package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"star-notary/internal/domain"
	"star-notary/internal/storage"
	"star-notary/internal/storage/migrations"
)

func TestDB_WithTxCommit(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	db := NewDB(pool)
	ctx := context.Background()
	coords := domain.Coordinates{RA: "032.155", Dec: "121.874", Mag: "245.978"}

	err := db.WithTx(ctx, func(tx storage.Tx) error {
		if err := tx.Tokens().InsertToken(ctx, 1, testAddr(1)); err != nil {
			return err
		}
		if err := tx.Coordinates().Insert(ctx, coords, 1); err != nil {
			return err
		}
		return tx.Stars().Insert(ctx, &domain.Star{TokenID: 1, Name: "S1", Story: "T1", Coordinates: coords, CreatedAt: 1})
	})
	require.NoError(t, err)

	owner, err := db.Tokens().GetOwner(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, testAddr(1), owner)

	exists, err := db.Coordinates().Exists(ctx, coords)
	require.NoError(t, err)
	assert.True(t, exists)

	star, err := db.Stars().GetByTokenID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, coords, star.Coordinates)
}

func TestDB_WithTxRollback(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	db := NewDB(pool)
	ctx := context.Background()
	abort := errors.New("abort")

	require.NoError(t, db.Tokens().InsertToken(ctx, 1, testAddr(1)))
	require.NoError(t, db.Listings().Put(ctx, &domain.Listing{TokenID: 1, Price: 10, Seller: testAddr(1), ListedAt: 1}))
	require.NoError(t, db.Accounts().SetBalance(ctx, testAddr(2), 100))

	err := db.WithTx(ctx, func(tx storage.Tx) error {
		require.NoError(t, tx.Accounts().SetBalance(ctx, testAddr(2), 90))
		require.NoError(t, tx.Tokens().SetOwner(ctx, 1, testAddr(2)))
		require.NoError(t, tx.Listings().Delete(ctx, 1))
		require.NoError(t, tx.Accounts().SetBalance(ctx, testAddr(1), 10))
		return abort
	})
	assert.ErrorIs(t, err, abort)

	owner, err := db.Tokens().GetOwner(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, testAddr(1), owner)

	_, err = db.Listings().GetByTokenID(ctx, 1)
	assert.NoError(t, err)

	bal, err := db.Accounts().GetBalance(ctx, testAddr(2))
	require.NoError(t, err)
	assert.Equal(t, domain.Lamports(100), bal)

	bal, err = db.Accounts().GetBalance(ctx, testAddr(1))
	require.NoError(t, err)
	assert.Zero(t, bal)
}

func TestMigrations_AppliedOnce(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	applied, err := migrations.ApplyPostgres(context.Background(), pool)
	require.NoError(t, err)
	assert.Empty(t, applied)
}
