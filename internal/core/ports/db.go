package ports

import (
	"context"

	"github.com/tdex-network/wager-daemon/internal/core/domain"
)

// RepoManager interface defines the methods for market and escrow
// repositories along with the transactional runner that makes a set of
// read/write operations atomic.
type RepoManager interface {
	MarketRepository() domain.MarketRepository
	EscrowRepository() domain.EscrowRepository

	// RunTransaction runs the given handler in a transaction that is
	// committed only if the handler returns no error.
	RunTransaction(
		ctx context.Context,
		readOnly bool,
		handler func(ctx context.Context) (interface{}, error),
	) (interface{}, error)

	Close()
}
