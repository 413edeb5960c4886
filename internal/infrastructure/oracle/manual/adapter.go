package manual

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

// Condition collects the votes of the attesters. It resolves as soon as one
// side reaches the quorum.
type Condition struct {
	ID                     string
	Description            string
	ExpectedResolutionTime time.Time
	Votes                  map[string]bool

	Resolved     bool
	Outcome      bool
	ConfidenceBp uint16
	ResolvedAt   time.Time
}

func (c Condition) count(outcome bool) int {
	n := 0
	for _, v := range c.Votes {
		if v == outcome {
			n++
		}
	}
	return n
}

func (c Condition) clone() Condition {
	votes := make(map[string]bool, len(c.Votes))
	for k, v := range c.Votes {
		votes[k] = v
	}
	c.Votes = votes
	return c
}

// Adapter is an oracle whose conditions are attested by hand by a fixed set
// of attesters.
type Adapter struct {
	lock       *sync.RWMutex
	attesters  map[string]struct{}
	quorum     int
	clock      func() time.Time
	conditions oraclestore.Store[Condition]
}

var _ ports.OracleAdapter = (*Adapter)(nil)

// NewAdapter returns an adapter whose conditions are kept in memory.
func NewAdapter(
	attesters []string, quorum int, clock func() time.Time,
) (*Adapter, error) {
	return NewAdapterWithStore(
		oraclestore.NewInMemoryStore[Condition](), attesters, quorum, clock,
	)
}

// NewAdapterWithStore returns an adapter persisting its conditions in the
// given store.
func NewAdapterWithStore(
	store oraclestore.Store[Condition],
	attesters []string, quorum int, clock func() time.Time,
) (*Adapter, error) {
	if len(attesters) <= 0 {
		return nil, ErrInvalidAttesters
	}
	set := make(map[string]struct{}, len(attesters))
	for _, a := range attesters {
		if len(a) <= 0 {
			return nil, ErrInvalidAttesters
		}
		if _, ok := set[a]; ok {
			return nil, ErrInvalidAttesters
		}
		set[a] = struct{}{}
	}
	if quorum < 1 || quorum > len(set) {
		return nil, ErrInvalidQuorum
	}
	if clock == nil {
		clock = time.Now
	}

	return &Adapter{
		lock:       &sync.RWMutex{},
		attesters:  set,
		quorum:     quorum,
		clock:      clock,
		conditions: store,
	}, nil
}

func (a *Adapter) AddCondition(
	id, description string, expectedResolutionTime time.Time,
) error {
	if len(id) <= 0 {
		return ErrInvalidCondition
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	err := a.conditions.Add(id, Condition{
		ID:                     id,
		Description:            description,
		ExpectedResolutionTime: expectedResolutionTime,
		Votes:                  make(map[string]bool),
	})
	if errors.Is(err, oraclestore.ErrAlreadyExists) {
		return ErrConditionAlreadyExists
	}
	return err
}

func (a *Adapter) GetCondition(id string) (Condition, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()

	return a.getCondition(id)
}

// Attest records the vote of an attester. Each attester votes once per
// condition and votes are not accepted after the condition resolved.
func (a *Adapter) Attest(
	_ context.Context, id, attester string, outcome bool,
) (*Condition, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	if _, ok := a.attesters[attester]; !ok {
		return nil, ErrNotAttester
	}
	c, err := a.getCondition(id)
	if err != nil {
		return nil, err
	}
	if c.Resolved {
		return nil, ErrConditionResolved
	}
	if _, ok := c.Votes[attester]; ok {
		return nil, ErrAlreadyAttested
	}

	c.Votes[attester] = outcome
	agreeing := c.count(outcome)
	if agreeing >= a.quorum {
		c.Resolved = true
		c.Outcome = outcome
		c.ConfidenceBp = uint16(agreeing * domain.MaxConfidenceBp / len(a.attesters))
		c.ResolvedAt = a.clock()
	}
	if err := a.conditions.Update(id, c.clone()); err != nil {
		return nil, fmt.Errorf("failed to store condition: %w", err)
	}

	logger := log.WithFields(log.Fields{
		"condition": id,
		"attester":  attester,
	})
	logger.Debug("attestation recorded")
	if c.Resolved {
		logger.WithField("outcome", outcome).Info("condition reached quorum")
	}

	return &c, nil
}

func (a *Adapter) Kind() ports.OracleKind {
	return ports.OracleKindManual
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
	return ports.OracleOutcome{
		Outcome:      c.Outcome,
		ConfidenceBp: c.ConfidenceBp,
		ResolvedAt:   c.ResolvedAt,
	}, nil
}

func (a *Adapter) GetConditionMetadata(
	_ context.Context, id string,
) (ports.ConditionMetadata, error) {
	c, err := a.GetCondition(id)
	if err != nil {
		return ports.ConditionMetadata{}, err
	}
	return ports.ConditionMetadata{
		Description:            c.Description,
		ExpectedResolutionTime: c.ExpectedResolutionTime,
	}, nil
}

// Close closes the condition store.
func (a *Adapter) Close() error {
	return a.conditions.Close()
}

// getCondition returns a copy of the stored condition that can be modified
// freely.
func (a *Adapter) getCondition(id string) (Condition, error) {
	c, err := a.conditions.Get(id)
	if err != nil {
		if errors.Is(err, oraclestore.ErrNotFound) {
			return Condition{}, ErrConditionNotFound
		}
		return Condition{}, err
	}
	return c.clone(), nil
}
