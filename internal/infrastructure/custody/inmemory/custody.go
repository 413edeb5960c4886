package custodyinmemory

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
)

// Custody keeps party balances and the funds held in escrow in memory.
// The native asset is always movable, fungible tokens must be registered
// first. Every operation either succeeds entirely or leaves the balances
// untouched.
type Custody struct {
	lock        *sync.Mutex
	nativeAsset string
	tokens      map[string]struct{}
	balances    map[string]map[string]uint64
	holdings    map[string]uint64
}

// NewCustody returns an empty custody for the given native asset and
// tokens.
func NewCustody(nativeAsset string, tokens ...string) *Custody {
	c := &Custody{
		lock:        &sync.Mutex{},
		nativeAsset: nativeAsset,
		tokens:      make(map[string]struct{}),
		balances:    make(map[string]map[string]uint64),
		holdings:    make(map[string]uint64),
	}
	for _, t := range tokens {
		c.tokens[t] = struct{}{}
	}
	return c
}

func (c *Custody) NativeAsset() string {
	return c.nativeAsset
}

// RegisterToken makes the given fungible token movable. Registering an
// already known token is a no-op.
func (c *Custody) RegisterToken(asset string) error {
	if asset == "" || asset == c.nativeAsset {
		return ErrInvalidTransfer
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	c.tokens[asset] = struct{}{}
	return nil
}

// Credit funds the balance of a party.
func (c *Custody) Credit(party, asset string, amount uint64) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if err := c.validateAsset(asset); err != nil {
		return err
	}
	if party == "" {
		return ErrInvalidTransfer
	}

	balance := c.balances[party][asset]
	if balance+amount < balance {
		return ErrAmountOverflow
	}
	c.setBalance(party, asset, balance+amount)
	return nil
}

// Balance returns the spendable balance of a party.
func (c *Custody) Balance(party, asset string) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.balances[party][asset]
}

// Holdings returns the amount of the given asset held in custody.
func (c *Custody) Holdings(asset string) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.holdings[asset]
}

func (c *Custody) Collect(
	_ context.Context, from, asset string, amount uint64,
) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if err := c.validateAsset(asset); err != nil {
		return err
	}
	if from == "" {
		return ErrInvalidTransfer
	}

	balance := c.balances[from][asset]
	if balance < amount {
		return fmt.Errorf(
			"%w: %s has %d %s, needs %d",
			ErrInsufficientBalance, from, balance, asset, amount,
		)
	}
	held := c.holdings[asset]
	if held+amount < held {
		return ErrAmountOverflow
	}

	c.setBalance(from, asset, balance-amount)
	c.holdings[asset] = held + amount

	log.WithFields(log.Fields{
		"from":   from,
		"asset":  asset,
		"amount": amount,
	}).Debug("custody: funds collected")
	return nil
}

// Disburse validates the whole batch against the current holdings before
// moving anything.
func (c *Custody) Disburse(_ context.Context, transfers []ports.Transfer) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	required := make(map[string]uint64)
	credits := make(map[string]map[string]uint64)
	for _, t := range transfers {
		if t.To == "" {
			return ErrInvalidTransfer
		}
		if err := c.validateAsset(t.Asset); err != nil {
			return err
		}
		sum := required[t.Asset]
		if sum+t.Amount < sum {
			return ErrAmountOverflow
		}
		required[t.Asset] = sum + t.Amount

		if credits[t.To] == nil {
			credits[t.To] = make(map[string]uint64)
		}
		credit := credits[t.To][t.Asset]
		balance := c.balances[t.To][t.Asset]
		if balance+credit+t.Amount < balance {
			return ErrAmountOverflow
		}
		credits[t.To][t.Asset] = credit + t.Amount
	}

	for asset, amount := range required {
		if c.holdings[asset] < amount {
			return fmt.Errorf(
				"%w: holds %d %s, needs %d",
				ErrInsufficientHoldings, c.holdings[asset], asset, amount,
			)
		}
	}

	for asset, amount := range required {
		c.holdings[asset] -= amount
	}
	for party, byAsset := range credits {
		for asset, amount := range byAsset {
			c.setBalance(party, asset, c.balances[party][asset]+amount)
		}
	}

	log.Debugf("custody: disbursed %d transfer(s)", len(transfers))
	return nil
}

func (c *Custody) validateAsset(asset string) error {
	if asset == c.nativeAsset {
		return nil
	}
	if _, ok := c.tokens[asset]; !ok {
		return fmt.Errorf("%w %s", ErrUnknownAsset, asset)
	}
	return nil
}

func (c *Custody) setBalance(party, asset string, amount uint64) {
	if c.balances[party] == nil {
		c.balances[party] = make(map[string]uint64)
	}
	c.balances[party][asset] = amount
}
