package application_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/wager-daemon/internal/core/application"
	"github.com/tdex-network/wager-daemon/internal/core/application/oracle"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
)

const (
	asset     = "lbtc"
	alice     = "alice"
	bob       = "bob"
	carol     = "carol"
	authority = "authority"
	oracleID  = "oracle-1"
	stake     = uint64(10)
	bond      = uint64(5)
	window    = 2 * time.Hour
	balance   = uint64(100)
)

var start = time.Unix(1700000000, 0)

type testClock struct {
	lock sync.Mutex
	now  time.Time
}

func (c *testClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *testClock) advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	cfg      *application.Config
	custody  *testCustody
	deployer *mockDeployer
	oracle   *mockOracle
	pubsub   *recordingPubSub
	clock    *testClock

	markets     application.MarketService
	resolutions application.ResolutionService
	oracles     application.OracleService
	claims      application.ClaimService
}

type envOption func(cfg *application.Config)

func withZeroBondChallenges() envOption {
	return func(cfg *application.Config) {
		cfg.ZeroBondChallenges = true
	}
}

func withMinConfidence(bp uint16) envOption {
	return func(cfg *application.Config) {
		cfg.MinOracleConfidenceBp = bp
	}
}

func withOracles(registry ports.OracleRegistry) envOption {
	return func(cfg *application.Config) {
		cfg.Oracles = registry
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	custody := newTestCustody()
	for _, party := range []string{alice, bob, carol, authority} {
		require.NoError(t, custody.Credit(party, asset, balance))
	}

	deployer := &mockDeployer{}
	deployer.On("Deploy", mock.Anything, mock.Anything).Return("instrument-1", nil)

	oracleAdapter := &mockOracle{}
	oracleAdapter.On("Kind").Return(ports.OracleKindManual)
	registry := oracle.NewRegistry()
	require.NoError(t, registry.Register(oracleID, oracleAdapter))

	pubsub := &recordingPubSub{}
	clock := &testClock{now: start}

	cfg := &application.Config{
		DBType:                 application.DBInMemory,
		Custody:                custody,
		Deployer:               deployer,
		PubSub:                 pubsub,
		Oracles:                registry,
		Clock:                  clock.Now,
		FallbackAuthority:      authority,
		DefaultChallengeWindow: window,
		DefaultChallengeBond:   bond,
		MinOracleConfidenceBp:  9000,
		InstrumentLiquidity:    1000,
		TradingPeriod:          24 * time.Hour,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	require.NoError(t, cfg.Validate())

	return &testEnv{
		cfg:         cfg,
		custody:     custody,
		deployer:    deployer,
		oracle:      oracleAdapter,
		pubsub:      pubsub,
		clock:       clock,
		markets:     cfg.MarketService(),
		resolutions: cfg.ResolutionService(),
		oracles:     cfg.OracleService(),
		claims:      cfg.ClaimService(),
	}
}

func bilateralArgs(policy domain.ResolutionPolicy) application.CreateMarketArgs {
	return application.CreateMarketArgs{
		Kind:    domain.MarketKindBilateral,
		Creator: alice,
		Participants: []domain.Participant{
			{Address: alice, Position: true},
			{Address: bob, Position: false},
		},
		Policy:             policy,
		StakeAmount:        stake,
		StakeAsset:         asset,
		AcceptanceDeadline: start.Add(time.Hour),
	}
}

func groupArgs(threshold int) application.CreateMarketArgs {
	return application.CreateMarketArgs{
		Kind:    domain.MarketKindGroup,
		Creator: alice,
		Participants: []domain.Participant{
			{Address: alice, Position: true},
			{Address: bob, Position: false},
			{Address: carol, Position: true},
		},
		Policy:              domain.PolicyEither,
		StakeAmount:         stake,
		StakeAsset:          asset,
		AcceptanceThreshold: threshold,
		AcceptanceDeadline:  start.Add(time.Hour),
	}
}

// newActiveMarket creates a market and makes every participant accept it.
func (e *testEnv) newActiveMarket(
	t *testing.T, args application.CreateMarketArgs,
) *domain.Market {
	market, err := e.markets.CreateMarket(ctx, args)
	require.NoError(t, err)

	for _, p := range args.Participants {
		market, err = e.markets.Accept(ctx, market.ID, p.Address, args.StakeAmount)
		require.NoError(t, err)
		if market.Status == domain.MarketStatusActive {
			break
		}
	}
	require.Equal(t, domain.MarketStatusActive, market.Status)
	return market
}

func (e *testEnv) requireConserved(t *testing.T, marketID uint64) {
	info, err := e.markets.GetMarket(ctx, marketID)
	require.NoError(t, err)
	require.True(t, info.Escrow.IsConserved())
	require.Equal(t, info.Escrow.Balance(), e.custody.Holdings(asset))
}
