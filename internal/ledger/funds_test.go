package ledger

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"star-notary/internal/domain"
	"star-notary/internal/storage/memory"
)

func TestFunds_CreditDebit(t *testing.T) {
	funds := NewFunds(memory.NewAccountStore())
	ctx := context.Background()

	require.NoError(t, funds.Credit(ctx, alice, 100))
	require.NoError(t, funds.Debit(ctx, alice, 30))

	bal, err := funds.Balance(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, domain.Lamports(70), bal)

	err = funds.Debit(ctx, alice, 71)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	bal, _ = funds.Balance(ctx, alice)
	assert.Equal(t, domain.Lamports(70), bal)
}

func TestFunds_ZeroAmountIsNoop(t *testing.T) {
	funds := NewFunds(memory.NewAccountStore())
	ctx := context.Background()

	require.NoError(t, funds.Debit(ctx, alice, 0))
	require.NoError(t, funds.Credit(ctx, domain.ZeroAddress, 0))
}

func TestFunds_Overflow(t *testing.T) {
	funds := NewFunds(memory.NewAccountStore())
	ctx := context.Background()

	require.NoError(t, funds.Credit(ctx, alice, domain.MaxLamports))
	assert.ErrorIs(t, funds.Credit(ctx, alice, 1), ErrBalanceOverflow)
	assert.ErrorIs(t, funds.Credit(ctx, bob, math.MaxUint64), ErrBalanceOverflow)
	assert.ErrorIs(t, funds.Credit(ctx, domain.ZeroAddress, 1), ErrInvalidAddress)
}

func TestFunds_Transfer(t *testing.T) {
	funds := NewFunds(memory.NewAccountStore())
	ctx := context.Background()

	require.NoError(t, funds.Credit(ctx, alice, 50))
	require.NoError(t, funds.Transfer(ctx, alice, bob, 20))

	a, _ := funds.Balance(ctx, alice)
	b, _ := funds.Balance(ctx, bob)
	assert.Equal(t, domain.Lamports(30), a)
	assert.Equal(t, domain.Lamports(20), b)

	assert.ErrorIs(t, funds.Transfer(ctx, bob, alice, 21), ErrInsufficientFunds)
}
