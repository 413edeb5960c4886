package custodyinmemory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
	custodyinmemory "github.com/tdex-network/wager-daemon/internal/infrastructure/custody/inmemory"
)

const (
	native = "lbtc"
	token  = "usdt"
	alice  = "alice"
	bob    = "bob"
)

var ctx = context.Background()

func newCustody(t *testing.T) *custodyinmemory.Custody {
	c := custodyinmemory.NewCustody(native, token)
	require.NoError(t, c.Credit(alice, native, 100))
	require.NoError(t, c.Credit(bob, token, 50))
	return c
}

func TestCollect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		from        string
		asset       string
		amount      uint64
		expectedErr error
	}{
		{
			name:   "native",
			from:   alice,
			asset:  native,
			amount: 60,
		},
		{
			name:   "token",
			from:   bob,
			asset:  token,
			amount: 50,
		},
		{
			name:   "zero amount",
			from:   bob,
			asset:  native,
			amount: 0,
		},
		{
			name:        "insufficient balance",
			from:        alice,
			asset:       native,
			amount:      101,
			expectedErr: custodyinmemory.ErrInsufficientBalance,
		},
		{
			name:        "unknown token",
			from:        alice,
			asset:       "eth",
			amount:      1,
			expectedErr: custodyinmemory.ErrUnknownAsset,
		},
		{
			name:        "missing sender",
			asset:       native,
			amount:      1,
			expectedErr: custodyinmemory.ErrInvalidTransfer,
		},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newCustody(t)
			balanceBefore := c.Balance(tt.from, tt.asset)

			err := c.Collect(ctx, tt.from, tt.asset, tt.amount)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				require.Equal(t, balanceBefore, c.Balance(tt.from, tt.asset))
				require.Zero(t, c.Holdings(tt.asset))
				return
			}
			require.NoError(t, err)
			require.Equal(t, balanceBefore-tt.amount, c.Balance(tt.from, tt.asset))
			require.Equal(t, tt.amount, c.Holdings(tt.asset))
		})
	}
}

func TestDisburse(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		c := newCustody(t)
		require.NoError(t, c.Collect(ctx, alice, native, 100))

		err := c.Disburse(ctx, []ports.Transfer{
			{To: bob, Asset: native, Amount: 70},
			{To: alice, Asset: native, Amount: 30},
		})
		require.NoError(t, err)
		require.Equal(t, uint64(70), c.Balance(bob, native))
		require.Equal(t, uint64(30), c.Balance(alice, native))
		require.Zero(t, c.Holdings(native))
	})

	t.Run("all or nothing", func(t *testing.T) {
		t.Parallel()

		c := newCustody(t)
		require.NoError(t, c.Collect(ctx, alice, native, 100))
		require.NoError(t, c.Collect(ctx, bob, token, 20))

		err := c.Disburse(ctx, []ports.Transfer{
			{To: bob, Asset: native, Amount: 100},
			{To: alice, Asset: token, Amount: 21},
		})
		require.ErrorIs(t, err, custodyinmemory.ErrInsufficientHoldings)
		require.Zero(t, c.Balance(bob, native))
		require.Zero(t, c.Balance(alice, token))
		require.Equal(t, uint64(100), c.Holdings(native))
		require.Equal(t, uint64(20), c.Holdings(token))
	})

	t.Run("unknown asset", func(t *testing.T) {
		t.Parallel()

		c := newCustody(t)
		require.NoError(t, c.Collect(ctx, alice, native, 10))

		err := c.Disburse(ctx, []ports.Transfer{
			{To: bob, Asset: native, Amount: 10},
			{To: bob, Asset: "eth", Amount: 0},
		})
		require.ErrorIs(t, err, custodyinmemory.ErrUnknownAsset)
		require.Equal(t, uint64(10), c.Holdings(native))
	})
}

func TestRegisterToken(t *testing.T) {
	t.Parallel()

	c := custodyinmemory.NewCustody(native)
	require.ErrorIs(t, c.Credit(alice, token, 1), custodyinmemory.ErrUnknownAsset)

	require.NoError(t, c.RegisterToken(token))
	require.NoError(t, c.Credit(alice, token, 1))
	require.Equal(t, uint64(1), c.Balance(alice, token))

	require.ErrorIs(t, c.RegisterToken(native), custodyinmemory.ErrInvalidTransfer)
}
