package domain

import "context"

// MarketRepository is the abstraction for any kind of database intended to
// persist Markets.
type MarketRepository interface {
	// AddMarket assigns the next sequential id to the given market and stores
	// it.
	AddMarket(ctx context.Context, market *Market) (*Market, error)
	// GetMarket returns the market with the given id.
	GetMarket(ctx context.Context, id uint64) (*Market, error)
	// GetMarketsByStatus returns all markets in any of the given statuses.
	GetMarketsByStatus(
		ctx context.Context, statuses ...MarketStatus,
	) ([]Market, error)
	// GetAllMarkets returns all markets sorted by id.
	GetAllMarkets(ctx context.Context) ([]Market, error)
	// UpdateMarket updates the state of a market. The closure function let's
	// commit multiple changes to a market in a transactional way.
	UpdateMarket(
		ctx context.Context,
		id uint64, updateFn func(m *Market) (*Market, error),
	) error
}

// EscrowRepository is the abstraction for any kind of database intended to
// persist the stake ledger accounts of markets.
type EscrowRepository interface {
	// AddEscrow stores the escrow of a new market.
	AddEscrow(ctx context.Context, escrow *Escrow) error
	// GetEscrow returns the escrow of the given market.
	GetEscrow(ctx context.Context, marketID uint64) (*Escrow, error)
	// UpdateEscrow updates the escrow of the given market.
	UpdateEscrow(
		ctx context.Context,
		marketID uint64, updateFn func(e *Escrow) (*Escrow, error),
	) error
}
