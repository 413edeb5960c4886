package pricethreshold

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
	oraclestore "github.com/tdex-network/wager-daemon/internal/infrastructure/oracle/store"
)

// DefaultMaxStaleness is used when no staleness bound is given.
const DefaultMaxStaleness = 5 * time.Minute

// Adapter is an oracle whose conditions compare a market price with a
// target at a deadline.
type Adapter struct {
	lock         *sync.RWMutex
	source       ports.PriceSource
	maxStaleness time.Duration
	clock        func() time.Time
	conditions   oraclestore.Store[Condition]
}

var _ ports.OracleAdapter = (*Adapter)(nil)

// NewAdapter returns an adapter whose conditions are kept in memory.
func NewAdapter(
	source ports.PriceSource, maxStaleness time.Duration, clock func() time.Time,
) *Adapter {
	return NewAdapterWithStore(
		oraclestore.NewInMemoryStore[Condition](), source, maxStaleness, clock,
	)
}

// NewAdapterWithStore returns an adapter persisting its conditions in the
// given store.
func NewAdapterWithStore(
	store oraclestore.Store[Condition],
	source ports.PriceSource, maxStaleness time.Duration, clock func() time.Time,
) *Adapter {
	if maxStaleness <= 0 {
		maxStaleness = DefaultMaxStaleness
	}
	if clock == nil {
		clock = time.Now
	}
	return &Adapter{
		lock:         &sync.RWMutex{},
		source:       source,
		maxStaleness: maxStaleness,
		clock:        clock,
		conditions:   store,
	}
}

// AddCondition registers a new unresolved condition.
func (a *Adapter) AddCondition(c Condition) error {
	if err := c.validate(); err != nil {
		return err
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	c.Resolved = false
	if err := a.conditions.Add(c.ID, c); err != nil {
		if errors.Is(err, oraclestore.ErrAlreadyExists) {
			return ErrConditionAlreadyExists
		}
		return err
	}
	return nil
}

func (a *Adapter) GetCondition(id string) (Condition, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()

	return a.getCondition(id)
}

// Resolve reads the latest price and settles the condition. Anyone can call
// it once the deadline is reached, resolving twice returns the stored
// outcome.
func (a *Adapter) Resolve(
	ctx context.Context, id string,
) (ports.OracleOutcome, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	c, err := a.getCondition(id)
	if err != nil {
		return ports.OracleOutcome{}, err
	}
	if c.Resolved {
		return outcomeOf(&c), nil
	}

	now := a.clock()
	if now.Before(c.Deadline) {
		return ports.OracleOutcome{}, ErrDeadlineNotReached
	}

	reading, err := a.source.LatestPrice(ctx, c.Ticker)
	if err != nil {
		return ports.OracleOutcome{}, fmt.Errorf("failed to read price: %w", err)
	}
	if reading.ObservedAt.Before(c.Deadline) {
		return ports.OracleOutcome{}, ErrPriceBeforeDeadline
	}
	if now.Sub(reading.ObservedAt) > a.maxStaleness {
		return ports.OracleOutcome{}, ErrStalePrice
	}

	c.Resolved = true
	c.ObservedPrice = reading.Price
	c.Outcome = c.evaluate(reading.Price)
	c.ResolvedAt = now
	if err := a.conditions.Update(id, c); err != nil {
		return ports.OracleOutcome{}, fmt.Errorf("failed to store condition: %w", err)
	}

	log.WithFields(log.Fields{
		"condition": c.ID,
		"price":     c.ObservedPrice.String(),
		"outcome":   c.Outcome,
	}).Info("price condition resolved")

	return outcomeOf(&c), nil
}

func (a *Adapter) Kind() ports.OracleKind {
	return ports.OracleKindPriceThreshold
}

func (a *Adapter) IsConditionSupported(
	_ context.Context, id string,
) (bool, error) {
	if _, err := a.GetCondition(id); err != nil {
		if errors.Is(err, ErrConditionNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (a *Adapter) IsConditionResolved(
	_ context.Context, id string,
) (bool, error) {
	c, err := a.GetCondition(id)
	if err != nil {
		return false, err
	}
	return c.Resolved, nil
}

func (a *Adapter) GetOutcome(
	_ context.Context, id string,
) (ports.OracleOutcome, error) {
	c, err := a.GetCondition(id)
	if err != nil {
		return ports.OracleOutcome{}, err
	}
	if !c.Resolved {
		return ports.OracleOutcome{}, domain.ErrConditionNotResolved
	}
	return outcomeOf(&c), nil
}

func (a *Adapter) GetConditionMetadata(
	_ context.Context, id string,
) (ports.ConditionMetadata, error) {
	c, err := a.GetCondition(id)
	if err != nil {
		return ports.ConditionMetadata{}, err
	}
	return ports.ConditionMetadata{
		Description:            c.description(),
		ExpectedResolutionTime: c.Deadline,
	}, nil
}

// Close closes the condition store.
func (a *Adapter) Close() error {
	return a.conditions.Close()
}

func (a *Adapter) getCondition(id string) (Condition, error) {
	c, err := a.conditions.Get(id)
	if err != nil {
		if errors.Is(err, oraclestore.ErrNotFound) {
			return Condition{}, ErrConditionNotFound
		}
		return Condition{}, err
	}
	return c, nil
}

func outcomeOf(c *Condition) ports.OracleOutcome {
	return ports.OracleOutcome{
		Outcome:      c.Outcome,
		ConfidenceBp: domain.MaxConfidenceBp,
		ResolvedAt:   c.ResolvedAt,
	}
}
