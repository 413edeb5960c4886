package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/tdex-network/wager-daemon/internal/core/domain"
)

// MarketRepositoryImpl represents an in memory storage
type MarketRepositoryImpl struct {
	markets map[uint64]domain.Market
	lastID  uint64

	lock *sync.RWMutex
}

// NewMarketRepositoryImpl returns a new empty MarketRepositoryImpl
func NewMarketRepositoryImpl() *MarketRepositoryImpl {
	return &MarketRepositoryImpl{
		markets: map[uint64]domain.Market{},
		lock:    &sync.RWMutex{},
	}
}

func (r *MarketRepositoryImpl) AddMarket(
	_ context.Context, market *domain.Market,
) (*domain.Market, error) {
	if market == nil {
		return nil, ErrMarketInvalidRequest
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	r.lastID++
	mkt := copyMarket(*market)
	mkt.ID = r.lastID
	r.markets[mkt.ID] = mkt

	res := copyMarket(mkt)
	return &res, nil
}

func (r *MarketRepositoryImpl) GetMarket(
	_ context.Context, id uint64,
) (*domain.Market, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.getMarket(id)
}

func (r *MarketRepositoryImpl) GetMarketsByStatus(
	_ context.Context, statuses ...domain.MarketStatus,
) ([]domain.Market, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	filter := make(map[domain.MarketStatus]struct{}, len(statuses))
	for _, s := range statuses {
		filter[s] = struct{}{}
	}

	return r.findMarkets(func(m domain.Market) bool {
		_, ok := filter[m.Status]
		return ok
	}), nil
}

// GetAllMarkets returns all the markets sorted by id.
func (r *MarketRepositoryImpl) GetAllMarkets(
	_ context.Context,
) ([]domain.Market, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.findMarkets(func(domain.Market) bool { return true }), nil
}

// UpdateMarket updates data to a market identified by the id passing an
// update function.
func (r *MarketRepositoryImpl) UpdateMarket(
	_ context.Context,
	id uint64,
	updateFn func(m *domain.Market) (*domain.Market, error),
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	currentMarket, err := r.getMarket(id)
	if err != nil {
		return err
	}

	updatedMarket, err := updateFn(currentMarket)
	if err != nil {
		return err
	}

	r.markets[id] = copyMarket(*updatedMarket)
	return nil
}

func (r *MarketRepositoryImpl) getMarket(id uint64) (*domain.Market, error) {
	market, ok := r.markets[id]
	if !ok {
		return nil, domain.ErrMarketNotFound
	}

	res := copyMarket(market)
	return &res, nil
}

func (r *MarketRepositoryImpl) findMarkets(
	filter func(domain.Market) bool,
) []domain.Market {
	markets := make([]domain.Market, 0)
	for _, m := range r.markets {
		if filter(m) {
			markets = append(markets, copyMarket(m))
		}
	}
	sort.SliceStable(markets, func(i, j int) bool {
		return markets[i].ID < markets[j].ID
	})
	return markets
}

func (r *MarketRepositoryImpl) snapshot() marketsSnapshot {
	r.lock.RLock()
	defer r.lock.RUnlock()

	markets := make(map[uint64]domain.Market, len(r.markets))
	for id, m := range r.markets {
		markets[id] = copyMarket(m)
	}
	return marketsSnapshot{markets, r.lastID}
}

func (r *MarketRepositoryImpl) restore(s marketsSnapshot) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.markets = s.markets
	r.lastID = s.lastID
}

type marketsSnapshot struct {
	markets map[uint64]domain.Market
	lastID  uint64
}
