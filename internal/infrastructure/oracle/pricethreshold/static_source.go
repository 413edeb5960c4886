package pricethreshold

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
)

// StaticPriceSource serves prices set by hand. It's useful for tests and
// for operators settling conditions from a trusted feed.
type StaticPriceSource struct {
	lock     *sync.RWMutex
	readings map[string]ports.PriceReading
}

var _ ports.PriceSource = (*StaticPriceSource)(nil)

func NewStaticPriceSource() *StaticPriceSource {
	return &StaticPriceSource{
		lock:     &sync.RWMutex{},
		readings: make(map[string]ports.PriceReading),
	}
}

func (s *StaticPriceSource) SetPrice(
	ticker string, price decimal.Decimal, observedAt time.Time,
) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.readings[ticker] = ports.PriceReading{
		Ticker:     ticker,
		Price:      price,
		ObservedAt: observedAt,
	}
}

func (s *StaticPriceSource) LatestPrice(
	_ context.Context, ticker string,
) (ports.PriceReading, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	r, ok := s.readings[ticker]
	if !ok {
		return ports.PriceReading{}, fmt.Errorf("no price for ticker %s", ticker)
	}
	return r, nil
}
