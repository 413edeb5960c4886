package dbbadger

import (
	"context"
	"fmt"

	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type marketRepositoryImpl struct {
	store *badgerhold.Store
}

// NewMarketRepositoryImpl initialize a badger implementation of the
// domain.MarketRepository
func NewMarketRepositoryImpl(store *badgerhold.Store) domain.MarketRepository {
	return marketRepositoryImpl{store}
}

func (m marketRepositoryImpl) AddMarket(
	ctx context.Context, market *domain.Market,
) (*domain.Market, error) {
	if market == nil {
		return nil, ErrMarketInvalidRequest
	}

	latest, err := m.getLatestMarket(ctx)
	if err != nil {
		return nil, err
	}

	mkt := *market
	mkt.ID = 1
	if latest != nil {
		mkt.ID = latest.ID + 1
	}

	if err := m.insertMarket(ctx, mkt); err != nil {
		return nil, err
	}
	return &mkt, nil
}

func (m marketRepositoryImpl) GetMarket(
	ctx context.Context, id uint64,
) (*domain.Market, error) {
	return m.getMarket(ctx, id)
}

func (m marketRepositoryImpl) GetMarketsByStatus(
	ctx context.Context, statuses ...domain.MarketStatus,
) ([]domain.Market, error) {
	if len(statuses) <= 0 {
		return []domain.Market{}, nil
	}

	filter := make(map[domain.MarketStatus]struct{}, len(statuses))
	for _, s := range statuses {
		filter[s] = struct{}{}
	}
	query := badgerhold.Where("Status").MatchFunc(
		func(ra *badgerhold.RecordAccess) (bool, error) {
			status, ok := ra.Field().(domain.MarketStatus)
			if !ok {
				return false, fmt.Errorf("unexpected market status type %T", ra.Field())
			}
			_, found := filter[status]
			return found, nil
		},
	).SortBy("ID")

	return m.findMarkets(ctx, query)
}

func (m marketRepositoryImpl) GetAllMarkets(
	ctx context.Context,
) ([]domain.Market, error) {
	query := badgerhold.Where("ID").Ge(uint64(0)).SortBy("ID")

	return m.findMarkets(ctx, query)
}

func (m marketRepositoryImpl) UpdateMarket(
	ctx context.Context,
	id uint64,
	updateFn func(m *domain.Market) (*domain.Market, error),
) error {
	currentMarket, err := m.getMarket(ctx, id)
	if err != nil {
		return err
	}

	updatedMarket, err := updateFn(currentMarket)
	if err != nil {
		return err
	}

	return m.updateMarket(ctx, id, *updatedMarket)
}

func (m marketRepositoryImpl) getLatestMarket(
	ctx context.Context,
) (*domain.Market, error) {
	query := badgerhold.Where("ID").Ge(uint64(0)).
		SortBy("ID").
		Reverse().
		Limit(1)

	markets, err := m.findMarkets(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(markets) <= 0 {
		return nil, nil
	}
	return &markets[0], nil
}

func (m marketRepositoryImpl) findMarkets(
	ctx context.Context, query *badgerhold.Query,
) ([]domain.Market, error) {
	var markets []domain.Market
	var err error
	if tx := txFromContext(ctx); tx != nil {
		err = m.store.TxFind(tx, &markets, query)
	} else {
		err = m.store.Find(&markets, query)
	}
	if err != nil {
		return nil, err
	}
	if markets == nil {
		markets = make([]domain.Market, 0)
	}

	return markets, nil
}

func (m marketRepositoryImpl) getMarket(
	ctx context.Context, id uint64,
) (*domain.Market, error) {
	var market domain.Market
	var err error
	if tx := txFromContext(ctx); tx != nil {
		err = m.store.TxGet(tx, id, &market)
	} else {
		err = m.store.Get(id, &market)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrMarketNotFound
		}
		return nil, err
	}

	return &market, nil
}

func (m marketRepositoryImpl) insertMarket(
	ctx context.Context, market domain.Market,
) error {
	var err error
	if tx := txFromContext(ctx); tx != nil {
		err = m.store.TxInsert(tx, market.ID, market)
	} else {
		err = m.store.Insert(market.ID, market)
	}
	if err == badgerhold.ErrKeyExists {
		return ErrMarketAlreadyExists
	}
	return err
}

func (m marketRepositoryImpl) updateMarket(
	ctx context.Context, id uint64, market domain.Market,
) error {
	if tx := txFromContext(ctx); tx != nil {
		return m.store.TxUpdate(tx, id, market)
	}
	return m.store.Update(id, market)
}
