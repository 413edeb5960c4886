package dbbadger

import (
	"context"

	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type escrowRepositoryImpl struct {
	store *badgerhold.Store
}

func NewEscrowRepositoryImpl(store *badgerhold.Store) domain.EscrowRepository {
	return escrowRepositoryImpl{store}
}

func (e escrowRepositoryImpl) AddEscrow(
	ctx context.Context, escrow *domain.Escrow,
) error {
	var err error
	if tx := txFromContext(ctx); tx != nil {
		err = e.store.TxInsert(tx, escrow.MarketID, *escrow)
	} else {
		err = e.store.Insert(escrow.MarketID, *escrow)
	}
	if err == badgerhold.ErrKeyExists {
		return ErrEscrowAlreadyExists
	}
	return err
}

func (e escrowRepositoryImpl) GetEscrow(
	ctx context.Context, marketID uint64,
) (*domain.Escrow, error) {
	return e.getEscrow(ctx, marketID)
}

func (e escrowRepositoryImpl) UpdateEscrow(
	ctx context.Context,
	marketID uint64,
	updateFn func(e *domain.Escrow) (*domain.Escrow, error),
) error {
	escrow, err := e.getEscrow(ctx, marketID)
	if err != nil {
		return err
	}

	updatedEscrow, err := updateFn(escrow)
	if err != nil {
		return err
	}

	if tx := txFromContext(ctx); tx != nil {
		return e.store.TxUpdate(tx, marketID, *updatedEscrow)
	}
	return e.store.Update(marketID, *updatedEscrow)
}

func (e escrowRepositoryImpl) getEscrow(
	ctx context.Context, marketID uint64,
) (*domain.Escrow, error) {
	var escrow domain.Escrow
	var err error
	if tx := txFromContext(ctx); tx != nil {
		err = e.store.TxGet(tx, marketID, &escrow)
	} else {
		err = e.store.Get(marketID, &escrow)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrEscrowNotFound
		}
		return nil, err
	}

	return &escrow, nil
}
