package domain

import (
	"fmt"
	"sort"
)

// Payout is an amount owed to a party by the escrow of a market.
type Payout struct {
	Party  string
	Amount uint64
}

// Escrow is the stake ledger account of a single market. Funds move from
// locked (stakes and bond) to claimable when the market is resolved, and
// leave the escrow either through a claim or through a refund.
type Escrow struct {
	MarketID  uint64
	Asset     string
	Locked    map[string]uint64
	Bonds     map[string]uint64
	Claimable map[string]uint64
	Claimed   map[string]bool
	Deposited uint64
	PaidOut   uint64
	Settled   bool
}

func NewEscrow(marketID uint64, asset string) *Escrow {
	return &Escrow{
		MarketID:  marketID,
		Asset:     asset,
		Locked:    make(map[string]uint64),
		Bonds:     make(map[string]uint64),
		Claimable: make(map[string]uint64),
		Claimed:   make(map[string]bool),
	}
}

// Lock adds the given stake to the locked funds of the party.
func (e *Escrow) Lock(party string, amount uint64) error {
	if e.Settled {
		return ErrMarketAlreadyResolved
	}
	e.init()
	e.Locked[party] += amount
	e.Deposited += amount
	return nil
}

// LockBond holds the challenge bond posted by the given party.
func (e *Escrow) LockBond(party string, amount uint64) error {
	if e.Settled {
		return ErrMarketAlreadyResolved
	}
	e.init()
	e.Bonds[party] += amount
	e.Deposited += amount
	return nil
}

func (e *Escrow) TotalLocked() uint64 {
	var total uint64
	for _, amount := range e.Locked {
		total += amount
	}
	for _, amount := range e.Bonds {
		total += amount
	}
	return total
}

// Settle turns every locked fund into claimable amounts according to the
// given allocation, which must release exactly what is locked.
func (e *Escrow) Settle(payouts map[string]uint64) error {
	if e.Settled {
		return ErrMarketAlreadyResolved
	}

	var total uint64
	for _, amount := range payouts {
		total += amount
	}
	if total != e.TotalLocked() {
		return fmt.Errorf(
			"%w: got %d, expected %d", ErrInvalidAllocation, total, e.TotalLocked(),
		)
	}

	e.init()
	for party, amount := range payouts {
		e.Claimable[party] += amount
	}
	e.Locked = make(map[string]uint64)
	e.Bonds = make(map[string]uint64)
	e.Settled = true
	return nil
}

// Release returns every locked fund to its depositor, sorted by party.
func (e *Escrow) Release() []Payout {
	amounts := make(map[string]uint64)
	for party, amount := range e.Locked {
		amounts[party] += amount
	}
	for party, amount := range e.Bonds {
		amounts[party] += amount
	}

	payouts := make([]Payout, 0, len(amounts))
	for party, amount := range amounts {
		if amount == 0 {
			continue
		}
		payouts = append(payouts, Payout{party, amount})
		e.PaidOut += amount
	}
	sort.Slice(payouts, func(i, j int) bool {
		return payouts[i].Party < payouts[j].Party
	})

	e.Locked = make(map[string]uint64)
	e.Bonds = make(map[string]uint64)
	e.Settled = true
	return payouts
}

// Claim pays out, once, the amount the party is entitled to. A party with
// nothing to claim gets zero.
func (e *Escrow) Claim(party string) (uint64, error) {
	if !e.Settled {
		return 0, ErrMarketNotResolved
	}
	if e.Claimed[party] {
		return 0, ErrAlreadyClaimed
	}
	e.init()

	amount := e.Claimable[party]
	delete(e.Claimable, party)
	e.Claimed[party] = true
	e.PaidOut += amount
	return amount, nil
}

// Balance returns the funds still held by the escrow.
func (e *Escrow) Balance() uint64 {
	return e.Deposited - e.PaidOut
}

// IsConserved returns whether every deposited unit is either still held or
// has been paid out exactly once.
func (e *Escrow) IsConserved() bool {
	var claimable uint64
	for _, amount := range e.Claimable {
		claimable += amount
	}
	return e.Deposited == e.TotalLocked()+claimable+e.PaidOut
}

// init makes sure every map is allocated, stores may decode empty maps as
// nil.
func (e *Escrow) init() {
	if e.Locked == nil {
		e.Locked = make(map[string]uint64)
	}
	if e.Bonds == nil {
		e.Bonds = make(map[string]uint64)
	}
	if e.Claimable == nil {
		e.Claimable = make(map[string]uint64)
	}
	if e.Claimed == nil {
		e.Claimed = make(map[string]bool)
	}
}
