package inmemory

import (
	"context"
	"sync"

	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
)

type RepoManager struct {
	marketRepository *MarketRepositoryImpl
	escrowRepository *EscrowRepositoryImpl

	txLock *sync.Mutex
}

func NewRepoManager() ports.RepoManager {
	return &RepoManager{
		marketRepository: NewMarketRepositoryImpl(),
		escrowRepository: NewEscrowRepositoryImpl(),
		txLock:           &sync.Mutex{},
	}
}

func (d *RepoManager) MarketRepository() domain.MarketRepository {
	return d.marketRepository
}

func (d *RepoManager) EscrowRepository() domain.EscrowRepository {
	return d.escrowRepository
}

// RunTransaction runs the handler while holding the transaction lock. Write
// transactions take a snapshot of every repository beforehand and restore
// it if the handler fails.
func (d *RepoManager) RunTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	d.txLock.Lock()
	defer d.txLock.Unlock()

	if readOnly {
		return handler(ctx)
	}

	markets := d.marketRepository.snapshot()
	escrows := d.escrowRepository.snapshot()

	res, err := handler(ctx)
	if err != nil {
		d.marketRepository.restore(markets)
		d.escrowRepository.restore(escrows)
		return nil, err
	}
	return res, nil
}

func (d *RepoManager) Close() {}
