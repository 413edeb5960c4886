package application_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/wager-daemon/internal/core/application"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
	"github.com/tdex-network/wager-daemon/internal/infrastructure/membership"
)

var ctx = context.Background()

func TestCreateMarket(t *testing.T) {
	t.Parallel()

	zeroBond := uint64(0)

	tests := []struct {
		name           string
		args           func() application.CreateMarketArgs
		expectedWindow time.Duration
		expectedBond   uint64
		expectedErr    error
	}{
		{
			name:           "bilateral with defaults",
			args:           func() application.CreateMarketArgs { return bilateralArgs(domain.PolicyEither) },
			expectedWindow: window,
			expectedBond:   bond,
		},
		{
			name: "group with explicit window and zero bond",
			args: func() application.CreateMarketArgs {
				args := groupArgs(2)
				args.ChallengeWindow = 3 * time.Hour
				args.ChallengeBond = &zeroBond
				return args
			},
			expectedWindow: 3 * time.Hour,
			expectedBond:   0,
		},
		{
			name: "window too short",
			args: func() application.CreateMarketArgs {
				args := bilateralArgs(domain.PolicyEither)
				args.ChallengeWindow = time.Minute
				return args
			},
			expectedErr: domain.ErrInvalidChallengeWindow,
		},
		{
			name: "deadline in the past",
			args: func() application.CreateMarketArgs {
				args := bilateralArgs(domain.PolicyEither)
				args.AcceptanceDeadline = start
				return args
			},
			expectedErr: domain.ErrInvalidMarket,
		},
		{
			name: "third party without arbitrator",
			args: func() application.CreateMarketArgs {
				return bilateralArgs(domain.PolicyThirdParty)
			},
			expectedErr: domain.ErrInvalidMarket,
		},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			market, err := env.markets.CreateMarket(ctx, tt.args())
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				require.Nil(t, market)
				return
			}
			require.NoError(t, err)
			require.Equal(t, uint64(1), market.ID)
			require.Equal(t, domain.MarketStatusPendingAcceptance, market.Status)
			require.Equal(t, tt.expectedWindow, market.ChallengeWindow)
			require.Equal(t, tt.expectedBond, market.ChallengeBond)

			info, err := env.markets.GetMarket(ctx, market.ID)
			require.NoError(t, err)
			require.Equal(t, market.ID, info.Escrow.MarketID)
			require.Zero(t, info.Escrow.Deposited)

			require.Eventually(t, func() bool {
				return len(env.pubsub.topics()) == 1
			}, time.Second, 10*time.Millisecond)
			require.Equal(t, application.TopicMarketCreated, env.pubsub.topics()[0])
		})
	}
}

func TestCreateMarketMembership(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(cfg *application.Config) {
		cfg.Membership = membership.NewAllowlist(bob)
	})

	_, err := env.markets.CreateMarket(ctx, bilateralArgs(domain.PolicyEither))
	require.ErrorIs(t, err, domain.ErrCreationNotAllowed)
	require.Equal(t, domain.CategoryAuthorization, domain.CategoryOf(err))

	markets, err := env.markets.ListMarkets(ctx)
	require.NoError(t, err)
	require.Empty(t, markets)
}

func TestAccept(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	market, err := env.markets.CreateMarket(ctx, bilateralArgs(domain.PolicyEither))
	require.NoError(t, err)

	_, err = env.markets.Accept(ctx, market.ID, carol, stake)
	require.ErrorIs(t, err, domain.ErrNotParticipant)

	_, err = env.markets.Accept(ctx, market.ID, alice, stake+1)
	require.ErrorIs(t, err, domain.ErrStakeMismatch)

	market, err = env.markets.Accept(ctx, market.ID, alice, stake)
	require.NoError(t, err)
	require.Equal(t, domain.MarketStatusPendingAcceptance, market.Status)
	require.Equal(t, balance-stake, env.custody.Balance(alice, asset))

	_, err = env.markets.Accept(ctx, market.ID, alice, stake)
	require.ErrorIs(t, err, domain.ErrAlreadyAccepted)

	market, err = env.markets.Accept(ctx, market.ID, bob, stake)
	require.NoError(t, err)
	require.Equal(t, domain.MarketStatusActive, market.Status)
	require.Equal(t, "instrument-1", market.InstrumentID)

	env.deployer.AssertCalled(t, "Deploy", mock.Anything, ports.InstrumentSpec{
		MarketID:         market.ID,
		CollateralAsset:  asset,
		CollateralAmount: 2 * stake,
		Liquidity:        1000,
		TradingPeriod:    24 * time.Hour,
	})
	env.deployer.AssertNumberOfCalls(t, "Deploy", 1)

	_, err = env.markets.Accept(ctx, 999, alice, stake)
	require.ErrorIs(t, err, domain.ErrMarketNotFound)

	env.requireConserved(t, market.ID)
}

func TestAcceptAfterDeadline(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	market, err := env.markets.CreateMarket(ctx, bilateralArgs(domain.PolicyEither))
	require.NoError(t, err)

	env.clock.advance(time.Hour)
	_, err = env.markets.Accept(ctx, market.ID, alice, stake)
	require.ErrorIs(t, err, domain.ErrAcceptanceDeadlinePassed)
	require.Equal(t, domain.CategoryTemporal, domain.CategoryOf(err))
}

func TestAcceptDeploymentFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.deployer.ExpectedCalls = nil
	env.deployer.On("Deploy", mock.Anything, mock.Anything).
		Return("", fmt.Errorf("amm unavailable"))

	market, err := env.markets.CreateMarket(ctx, bilateralArgs(domain.PolicyEither))
	require.NoError(t, err)
	_, err = env.markets.Accept(ctx, market.ID, alice, stake)
	require.NoError(t, err)

	market, err = env.markets.Accept(ctx, market.ID, bob, stake)
	require.ErrorIs(t, err, domain.ErrInstrumentDeploymentFailed)
	require.NotNil(t, market)
	require.Equal(t, domain.MarketStatusRefunded, market.Status)

	info, err := env.markets.GetMarket(ctx, market.ID)
	require.NoError(t, err)
	require.Equal(t, domain.MarketStatusRefunded, info.Market.Status)
	require.Equal(t, 2*stake, info.Escrow.PaidOut)

	require.Equal(t, balance, env.custody.Balance(alice, asset))
	require.Equal(t, balance, env.custody.Balance(bob, asset))
	env.requireConserved(t, market.ID)
}

func TestAcceptTransferFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	market, err := env.markets.CreateMarket(ctx, groupArgs(3))
	require.NoError(t, err)

	_, err = env.markets.Accept(ctx, market.ID, alice, stake)
	require.NoError(t, err)

	// bob can't afford the stake.
	require.NoError(t, env.custody.Collect(ctx, bob, asset, balance))

	_, err = env.markets.Accept(ctx, market.ID, bob, stake)
	require.ErrorIs(t, err, domain.ErrAssetTransferFailed)
	require.Equal(t, domain.CategoryExternal, domain.CategoryOf(err))

	info, err := env.markets.GetMarket(ctx, market.ID)
	require.NoError(t, err)
	require.Equal(t, 1, info.Market.AcceptedCount())
	require.False(t, info.Market.HasAccepted(bob))
	require.Equal(t, stake, info.Escrow.Deposited)
}

func TestCancelExpired(t *testing.T) {
	t.Parallel()

	t.Run("refunded", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		market, err := env.markets.CreateMarket(ctx, groupArgs(3))
		require.NoError(t, err)
		_, err = env.markets.Accept(ctx, market.ID, alice, stake)
		require.NoError(t, err)
		_, err = env.markets.Accept(ctx, market.ID, carol, stake)
		require.NoError(t, err)

		_, err = env.markets.CancelExpired(ctx, market.ID)
		require.ErrorIs(t, err, domain.ErrAcceptanceDeadlineNotReached)

		env.clock.advance(time.Hour)
		market, err = env.markets.CancelExpired(ctx, market.ID)
		require.NoError(t, err)
		require.Equal(t, domain.MarketStatusRefunded, market.Status)
		require.Equal(t, balance, env.custody.Balance(alice, asset))
		require.Equal(t, balance, env.custody.Balance(carol, asset))
		env.requireConserved(t, market.ID)

		market, err = env.markets.CancelExpired(ctx, market.ID)
		require.NoError(t, err)
		require.Equal(t, domain.MarketStatusRefunded, market.Status)
		require.Equal(t, balance, env.custody.Balance(alice, asset))
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		market, err := env.markets.CreateMarket(ctx, bilateralArgs(domain.PolicyEither))
		require.NoError(t, err)

		env.clock.advance(2 * time.Hour)
		market, err = env.markets.CancelExpired(ctx, market.ID)
		require.NoError(t, err)
		require.Equal(t, domain.MarketStatusCancelled, market.Status)
	})

	t.Run("active market", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		market := env.newActiveMarket(t, bilateralArgs(domain.PolicyEither))

		env.clock.advance(2 * time.Hour)
		_, err := env.markets.CancelExpired(ctx, market.ID)
		require.ErrorIs(t, err, domain.ErrMarketNotPendingAcceptance)
	})
}

func TestListMarkets(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.newActiveMarket(t, bilateralArgs(domain.PolicyEither))
	_, err := env.markets.CreateMarket(ctx, groupArgs(2))
	require.NoError(t, err)

	markets, err := env.markets.ListMarkets(ctx)
	require.NoError(t, err)
	require.Len(t, markets, 2)

	markets, err = env.markets.ListMarkets(ctx, domain.MarketStatusActive)
	require.NoError(t, err)
	require.Len(t, markets, 1)
	require.Equal(t, uint64(1), markets[0].ID)

	markets, err = env.markets.ListMarkets(
		ctx, domain.MarketStatusResolved, domain.MarketStatusCancelled,
	)
	require.NoError(t, err)
	require.Empty(t, markets)
}
