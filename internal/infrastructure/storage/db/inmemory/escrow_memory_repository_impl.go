package inmemory

import (
	"context"
	"sync"

	"github.com/tdex-network/wager-daemon/internal/core/domain"
)

// EscrowRepositoryImpl represents an in memory storage
type EscrowRepositoryImpl struct {
	escrows map[uint64]domain.Escrow

	lock *sync.RWMutex
}

func NewEscrowRepositoryImpl() *EscrowRepositoryImpl {
	return &EscrowRepositoryImpl{
		escrows: map[uint64]domain.Escrow{},
		lock:    &sync.RWMutex{},
	}
}

func (r *EscrowRepositoryImpl) AddEscrow(
	_ context.Context, escrow *domain.Escrow,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.escrows[escrow.MarketID]; ok {
		return ErrEscrowAlreadyExists
	}
	r.escrows[escrow.MarketID] = copyEscrow(*escrow)
	return nil
}

func (r *EscrowRepositoryImpl) GetEscrow(
	_ context.Context, marketID uint64,
) (*domain.Escrow, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.getEscrow(marketID)
}

func (r *EscrowRepositoryImpl) UpdateEscrow(
	_ context.Context,
	marketID uint64,
	updateFn func(e *domain.Escrow) (*domain.Escrow, error),
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	escrow, err := r.getEscrow(marketID)
	if err != nil {
		return err
	}

	updatedEscrow, err := updateFn(escrow)
	if err != nil {
		return err
	}

	r.escrows[marketID] = copyEscrow(*updatedEscrow)
	return nil
}

func (r *EscrowRepositoryImpl) getEscrow(marketID uint64) (*domain.Escrow, error) {
	escrow, ok := r.escrows[marketID]
	if !ok {
		return nil, domain.ErrEscrowNotFound
	}

	res := copyEscrow(escrow)
	return &res, nil
}

func (r *EscrowRepositoryImpl) snapshot() map[uint64]domain.Escrow {
	r.lock.RLock()
	defer r.lock.RUnlock()

	escrows := make(map[uint64]domain.Escrow, len(r.escrows))
	for id, e := range r.escrows {
		escrows[id] = copyEscrow(e)
	}
	return escrows
}

func (r *EscrowRepositoryImpl) restore(escrows map[uint64]domain.Escrow) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.escrows = escrows
}
