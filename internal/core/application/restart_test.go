package application_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/wager-daemon/internal/core/application"
	"github.com/tdex-network/wager-daemon/internal/core/application/oracle"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
	custodybadger "github.com/tdex-network/wager-daemon/internal/infrastructure/custody/badger"
	"github.com/tdex-network/wager-daemon/internal/infrastructure/oracle/manual"
	oraclestore "github.com/tdex-network/wager-daemon/internal/infrastructure/oracle/store"
)

const manualOracleID = "manual"

// persistentEnv wires the services on top of badger storage, custody and
// oracle conditions rooted at the same datadir.
type persistentEnv struct {
	cfg     *application.Config
	custody *custodybadger.Custody
	manual  *manual.Adapter
}

func newPersistentEnv(
	t *testing.T, datadir string, clock *testClock,
) *persistentEnv {
	custody, err := custodybadger.NewCustody(
		filepath.Join(datadir, "custody"), nil, asset,
	)
	require.NoError(t, err)

	store, err := oraclestore.NewBadgerStore[manual.Condition](
		filepath.Join(datadir, "oracles", manualOracleID), nil,
	)
	require.NoError(t, err)
	adapter, err := manual.NewAdapterWithStore(
		store, []string{authority}, 1, clock.Now,
	)
	require.NoError(t, err)
	registry := oracle.NewRegistry()
	require.NoError(t, registry.Register(manualOracleID, adapter))

	deployer := &mockDeployer{}
	deployer.On("Deploy", mock.Anything, mock.Anything).Return("instrument-1", nil)

	cfg := &application.Config{
		DBType:                 application.DBBadger,
		DBConfig:               filepath.Join(datadir, "db"),
		Custody:                custody,
		Deployer:               deployer,
		PubSub:                 &recordingPubSub{},
		Oracles:                registry,
		Clock:                  clock.Now,
		FallbackAuthority:      authority,
		DefaultChallengeWindow: window,
		DefaultChallengeBond:   bond,
		MinOracleConfidenceBp:  9000,
		InstrumentLiquidity:    1000,
		TradingPeriod:          24 * time.Hour,
	}
	require.NoError(t, cfg.Validate())

	return &persistentEnv{cfg, custody, adapter}
}

func (e *persistentEnv) close(t *testing.T) {
	e.cfg.RepoManagerService().Close()
	require.NoError(t, e.custody.Close())
	require.NoError(t, e.manual.Close())
}

func (e *persistentEnv) newActiveMarket(
	t *testing.T, args application.CreateMarketArgs,
) *domain.Market {
	markets := e.cfg.MarketService()
	market, err := markets.CreateMarket(ctx, args)
	require.NoError(t, err)
	for _, p := range args.Participants {
		market, err = markets.Accept(ctx, market.ID, p.Address, args.StakeAmount)
		require.NoError(t, err)
	}
	require.Equal(t, domain.MarketStatusActive, market.Status)
	return market
}

func TestMarketsSettleAcrossRestart(t *testing.T) {
	datadir := t.TempDir()
	clock := &testClock{now: start}

	env := newPersistentEnv(t, datadir, clock)
	for _, party := range []string{alice, bob} {
		require.NoError(t, env.custody.Credit(party, asset, balance))
	}

	finalized := env.newActiveMarket(t, bilateralArgs(domain.PolicyEither))
	_, err := env.cfg.ResolutionService().ProposeOutcome(ctx, finalized.ID, alice, true)
	require.NoError(t, err)

	require.NoError(t, env.manual.AddCondition("rain", "will it rain?", start.Add(window)))
	pegged := env.newActiveMarket(t, bilateralArgs(domain.PolicyAutoPegged))
	_, err = env.cfg.OracleService().PegToOracleCondition(
		ctx, pegged.ID, alice, manualOracleID, "rain",
	)
	require.NoError(t, err)

	clock.advance(window)
	finalized, err = env.cfg.ResolutionService().FinalizeResolution(ctx, finalized.ID)
	require.NoError(t, err)
	require.Equal(t, domain.MarketStatusResolved, finalized.Status)
	require.Equal(t, 4*stake, env.custody.Holdings(asset))
	env.close(t)

	env = newPersistentEnv(t, datadir, clock)
	defer env.close(t)

	require.Equal(t, 4*stake, env.custody.Holdings(asset))
	require.Equal(t, balance-2*stake, env.custody.Balance(alice, asset))

	res, err := env.cfg.ClaimService().Claim(ctx, finalized.ID, alice)
	require.NoError(t, err)
	require.Equal(t, 2*stake, res.Amount)
	require.Equal(t, balance, env.custody.Balance(alice, asset))

	_, err = env.manual.Attest(ctx, "rain", authority, false)
	require.NoError(t, err)
	pegged, err = env.cfg.OracleService().ResolveFromOracle(ctx, pegged.ID)
	require.NoError(t, err)
	require.Equal(t, domain.MarketStatusResolved, pegged.Status)
	require.Equal(t, bob, pegged.Resolution.Winner)

	res, err = env.cfg.ClaimService().Claim(ctx, pegged.ID, bob)
	require.NoError(t, err)
	require.Equal(t, 2*stake, res.Amount)
	require.Equal(t, balance, env.custody.Balance(bob, asset))
	require.Zero(t, env.custody.Holdings(asset))
}
