package ports

import (
	"context"
	"time"
)

// InstrumentSpec describes the conditional instrument to deploy when a
// market is activated.
type InstrumentSpec struct {
	MarketID         uint64
	CollateralAsset  string
	CollateralAmount uint64
	Liquidity        uint64
	TradingPeriod    time.Duration
}

// InstrumentDeployer creates the tradable instrument backing an active
// market and returns its identifier.
type InstrumentDeployer interface {
	Deploy(ctx context.Context, spec InstrumentSpec) (string, error)
}

// MembershipGate tells whether a creator has enough standing to open
// markets.
type MembershipGate interface {
	CanCreateMarket(ctx context.Context, creator string) (bool, error)
}

// Transfer is a single movement of funds out of custody.
type Transfer struct {
	To     string
	Asset  string
	Amount uint64
}

// AssetCustody moves native assets and fungible tokens in and out of the
// escrow. Every method must either succeed entirely or fail with an error,
// partial transfers are not allowed.
type AssetCustody interface {
	// Collect moves the given amount from the party into custody.
	Collect(ctx context.Context, from, asset string, amount uint64) error
	// Disburse executes all the given transfers or none of them.
	Disburse(ctx context.Context, transfers []Transfer) error
}
