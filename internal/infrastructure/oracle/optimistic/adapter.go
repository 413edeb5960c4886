package optimistic

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

const (
	DefaultLiveness               = 2 * time.Hour
	DefaultUndisputedConfidenceBp = 9500
)

// Escalator hands a disputed assertion over to an out-of-band arbitration
// that eventually calls Adapter.SettleEscalation.
type Escalator interface {
	Escalate(ctx context.Context, condition Condition) error
}

// EscalatorFunc lets a plain function be used as an Escalator.
type EscalatorFunc func(ctx context.Context, condition Condition) error

func (f EscalatorFunc) Escalate(ctx context.Context, condition Condition) error {
	return f(ctx, condition)
}

type Config struct {
	Liveness               time.Duration
	MinBond                uint64
	UndisputedConfidenceBp uint16
	Escalator              Escalator
	Clock                  func() time.Time
	// Custody holds assertion and dispute bonds until settlement.
	Custody   ports.AssetCustody
	BondAsset string
	// Store persists conditions, they're kept in memory if nil.
	Store oraclestore.Store[Condition]
}

// Adapter is an optimistic-assertion oracle.
type Adapter struct {
	lock       *sync.RWMutex
	cfg        Config
	conditions oraclestore.Store[Condition]
}

var _ ports.OracleAdapter = (*Adapter)(nil)

func NewAdapter(cfg Config) (*Adapter, error) {
	if cfg.Custody == nil {
		return nil, ErrMissingCustody
	}
	if len(cfg.BondAsset) <= 0 {
		return nil, ErrMissingBondAsset
	}
	if cfg.Liveness <= 0 {
		cfg.Liveness = DefaultLiveness
	}
	if cfg.UndisputedConfidenceBp == 0 {
		cfg.UndisputedConfidenceBp = DefaultUndisputedConfidenceBp
	}
	if cfg.UndisputedConfidenceBp > domain.MaxConfidenceBp {
		return nil, fmt.Errorf(
			"undisputed confidence must be at most %d bp", domain.MaxConfidenceBp,
		)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	store := cfg.Store
	if store == nil {
		store = oraclestore.NewInMemoryStore[Condition]()
	}

	return &Adapter{
		lock:       &sync.RWMutex{},
		cfg:        cfg,
		conditions: store,
	}, nil
}

// AddCondition registers a question that can later be asserted.
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

// Assert proposes the outcome of a condition and opens its liveness window.
// The bond is collected from the asserter and held until settlement.
func (a *Adapter) Assert(
	ctx context.Context, id, asserter string, outcome bool, bond uint64,
) (*Condition, error) {
	if len(asserter) <= 0 {
		return nil, ErrInvalidCondition
	}
	if bond < a.cfg.MinBond {
		return nil, ErrBondTooLow
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	c, err := a.getCondition(id)
	if err != nil {
		return nil, err
	}
	if c.IsAsserted() {
		return nil, ErrAlreadyAsserted
	}

	now := a.cfg.Clock()
	c.Asserter = asserter
	c.AssertedOutcome = outcome
	c.Bond = bond
	c.BondAsset = a.cfg.BondAsset
	c.AssertedAt = now
	c.LivenessDeadline = now.Add(a.cfg.Liveness)

	if err := a.collectBond(ctx, c, asserter); err != nil {
		return nil, err
	}
	if err := a.conditions.Update(id, c); err != nil {
		a.refundBond(ctx, c, asserter)
		return nil, fmt.Errorf("failed to store condition: %w", err)
	}

	log.WithFields(log.Fields{
		"condition": id,
		"asserter":  asserter,
		"outcome":   outcome,
		"bond":      bond,
	}).Debug("assertion opened")

	return &c, nil
}

// Dispute escalates the assertion of a condition. The disputer posts a bond
// matching the asserter's one. If the escalation can't be started the
// dispute is discarded and the bond returned.
func (a *Adapter) Dispute(
	ctx context.Context, id, disputer string,
) (*Condition, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	c, err := a.getCondition(id)
	if err != nil {
		return nil, err
	}
	if !c.IsAsserted() {
		return nil, ErrNotAsserted
	}
	if c.Settled {
		return nil, ErrAlreadySettled
	}
	if c.IsDisputed() {
		return nil, ErrAlreadyDisputed
	}
	if disputer == c.Asserter {
		return nil, ErrSelfDispute
	}
	now := a.cfg.Clock()
	if !now.Before(c.LivenessDeadline) {
		return nil, ErrLivenessOver
	}

	c.Disputer = disputer
	c.DisputedAt = now

	if err := a.collectBond(ctx, c, disputer); err != nil {
		return nil, err
	}
	if a.cfg.Escalator != nil {
		if err := a.cfg.Escalator.Escalate(ctx, c); err != nil {
			a.refundBond(ctx, c, disputer)
			return nil, fmt.Errorf("failed to escalate dispute: %w", err)
		}
	}
	if err := a.conditions.Update(id, c); err != nil {
		a.refundBond(ctx, c, disputer)
		return nil, fmt.Errorf("failed to store condition: %w", err)
	}

	log.WithFields(log.Fields{
		"condition": id,
		"disputer":  disputer,
	}).Info("assertion disputed and escalated")

	return &c, nil
}

// SettleEscalation is the callback of the arbitration resolving a disputed
// condition. Both bonds go to the asserter if the arbitration confirms the
// assertion, to the disputer otherwise.
func (a *Adapter) SettleEscalation(
	ctx context.Context, id string, outcome bool,
) (*Condition, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	c, err := a.getCondition(id)
	if err != nil {
		return nil, err
	}
	if c.Settled {
		return nil, ErrAlreadySettled
	}
	if !c.IsDisputed() {
		return nil, ErrNotDisputed
	}

	winner := c.Disputer
	if outcome == c.AssertedOutcome {
		winner = c.Asserter
	}
	transfers := []ports.Transfer{{To: winner, Asset: c.BondAsset, Amount: 2 * c.Bond}}
	if err := a.settle(ctx, &c, outcome, domain.MaxConfidenceBp, transfers); err != nil {
		return nil, err
	}

	return &c, nil
}

// Settle resolves an undisputed condition to its asserted outcome once the
// liveness window is over and returns the bond to the asserter.
func (a *Adapter) Settle(ctx context.Context, id string) (*Condition, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	c, err := a.getCondition(id)
	if err != nil {
		return nil, err
	}
	if c.Settled {
		return nil, ErrAlreadySettled
	}
	if !c.IsAsserted() {
		return nil, ErrNotAsserted
	}
	if c.IsDisputed() {
		return nil, ErrAlreadyDisputed
	}
	if a.cfg.Clock().Before(c.LivenessDeadline) {
		return nil, ErrLivenessNotOver
	}

	transfers := []ports.Transfer{{To: c.Asserter, Asset: c.BondAsset, Amount: c.Bond}}
	err = a.settle(
		ctx, &c, c.AssertedOutcome, a.cfg.UndisputedConfidenceBp, transfers,
	)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (a *Adapter) Kind() ports.OracleKind {
	return ports.OracleKindOptimisticAssertion
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
	return c.Settled, nil
}

func (a *Adapter) GetOutcome(
	_ context.Context, id string,
) (ports.OracleOutcome, error) {
	c, err := a.GetCondition(id)
	if err != nil {
		return ports.OracleOutcome{}, err
	}
	if !c.Settled {
		return ports.OracleOutcome{}, domain.ErrConditionNotResolved
	}
	return ports.OracleOutcome{
		Outcome:      c.Outcome,
		ConfidenceBp: c.ConfidenceBp,
		ResolvedAt:   c.SettledAt,
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

// settle stores the settled condition and then pays out the bonds. The
// condition is restored if the payout fails.
func (a *Adapter) settle(
	ctx context.Context, c *Condition, outcome bool, confidenceBp uint16,
	transfers []ports.Transfer,
) error {
	prev := *c
	c.Settled = true
	c.Outcome = outcome
	c.ConfidenceBp = confidenceBp
	c.SettledAt = a.cfg.Clock()

	if err := a.conditions.Update(c.ID, *c); err != nil {
		*c = prev
		return fmt.Errorf("failed to store condition: %w", err)
	}
	if err := a.cfg.Custody.Disburse(ctx, transfers); err != nil {
		if rerr := a.conditions.Update(c.ID, prev); rerr != nil {
			log.WithError(rerr).Warnf("failed to restore condition %s", c.ID)
		}
		*c = prev
		return fmt.Errorf("%w: %w", domain.ErrAssetTransferFailed, err)
	}

	log.WithFields(log.Fields{
		"condition":  c.ID,
		"outcome":    outcome,
		"confidence": confidenceBp,
	}).Info("assertion settled")
	return nil
}

func (a *Adapter) collectBond(
	ctx context.Context, c Condition, from string,
) error {
	if c.Bond == 0 {
		return nil
	}
	if err := a.cfg.Custody.Collect(ctx, from, c.BondAsset, c.Bond); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAssetTransferFailed, err)
	}
	return nil
}

func (a *Adapter) refundBond(ctx context.Context, c Condition, to string) {
	if c.Bond == 0 {
		return
	}
	transfers := []ports.Transfer{{To: to, Asset: c.BondAsset, Amount: c.Bond}}
	if err := a.cfg.Custody.Disburse(ctx, transfers); err != nil {
		log.WithError(err).Warnf(
			"failed to return bond of %s for condition %s", to, c.ID,
		)
	}
}
