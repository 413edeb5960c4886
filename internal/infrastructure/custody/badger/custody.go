package custodybadger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

const custodyDir = "custody"

type balance struct {
	Party  string
	Asset  string
	Amount uint64
}

type holding struct {
	Asset  string
	Amount uint64
}

type token struct {
	Asset string
}

// Custody keeps party balances and the funds held in escrow in a badger
// store so that escrowed stakes remain claimable across restarts. The
// native asset is always movable, fungible tokens must be registered
// first. Every operation runs in a single transaction.
type Custody struct {
	lock        *sync.Mutex
	nativeAsset string
	store       *badgerhold.Store
}

// NewCustody opens the custody store under the given datadir. An empty
// datadir keeps everything in memory.
func NewCustody(
	datadir string, logger badger.Logger, nativeAsset string, tokens ...string,
) (*Custody, error) {
	var dbDir string
	if len(datadir) > 0 {
		dbDir = filepath.Join(datadir, custodyDir)
	}

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	if len(dbDir) <= 0 {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	store, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open custody store: %w", err)
	}

	c := &Custody{
		lock:        &sync.Mutex{},
		nativeAsset: nativeAsset,
		store:       store,
	}
	for _, t := range tokens {
		if err := c.RegisterToken(t); err != nil {
			store.Close()
			return nil, err
		}
	}
	return c, nil
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

	return c.store.Upsert(asset, token{asset})
}

// Credit funds the balance of a party.
func (c *Custody) Credit(party, asset string, amount uint64) error {
	if party == "" {
		return ErrInvalidTransfer
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	return c.store.Badger().Update(func(tx *badger.Txn) error {
		if err := c.validateAsset(tx, asset); err != nil {
			return err
		}
		bal, err := c.getBalance(tx, party, asset)
		if err != nil {
			return err
		}
		if bal+amount < bal {
			return ErrAmountOverflow
		}
		return c.setBalance(tx, party, asset, bal+amount)
	})
}

// Balance returns the spendable balance of a party.
func (c *Custody) Balance(party, asset string) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	var bal uint64
	if err := c.store.Badger().View(func(tx *badger.Txn) error {
		var err error
		bal, err = c.getBalance(tx, party, asset)
		return err
	}); err != nil {
		log.WithError(err).Warnf("custody: failed to read balance of %s", party)
	}
	return bal
}

// Holdings returns the amount of the given asset held in custody.
func (c *Custody) Holdings(asset string) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	var held uint64
	if err := c.store.Badger().View(func(tx *badger.Txn) error {
		var err error
		held, err = c.getHolding(tx, asset)
		return err
	}); err != nil {
		log.WithError(err).Warnf("custody: failed to read %s holdings", asset)
	}
	return held
}

func (c *Custody) Collect(
	_ context.Context, from, asset string, amount uint64,
) error {
	if from == "" {
		return ErrInvalidTransfer
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	if err := c.store.Badger().Update(func(tx *badger.Txn) error {
		if err := c.validateAsset(tx, asset); err != nil {
			return err
		}
		bal, err := c.getBalance(tx, from, asset)
		if err != nil {
			return err
		}
		if bal < amount {
			return fmt.Errorf(
				"%w: %s has %d %s, needs %d",
				ErrInsufficientBalance, from, bal, asset, amount,
			)
		}
		held, err := c.getHolding(tx, asset)
		if err != nil {
			return err
		}
		if held+amount < held {
			return ErrAmountOverflow
		}

		if err := c.setBalance(tx, from, asset, bal-amount); err != nil {
			return err
		}
		return c.setHolding(tx, asset, held+amount)
	}); err != nil {
		return err
	}

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

	if err := c.store.Badger().Update(func(tx *badger.Txn) error {
		required := make(map[string]uint64)
		credits := make(map[balance]uint64)
		for _, t := range transfers {
			if t.To == "" {
				return ErrInvalidTransfer
			}
			if err := c.validateAsset(tx, t.Asset); err != nil {
				return err
			}
			sum := required[t.Asset]
			if sum+t.Amount < sum {
				return ErrAmountOverflow
			}
			required[t.Asset] = sum + t.Amount

			key := balance{Party: t.To, Asset: t.Asset}
			credit := credits[key]
			if credit+t.Amount < credit {
				return ErrAmountOverflow
			}
			credits[key] = credit + t.Amount
		}

		for asset, amount := range required {
			held, err := c.getHolding(tx, asset)
			if err != nil {
				return err
			}
			if held < amount {
				return fmt.Errorf(
					"%w: holds %d %s, needs %d",
					ErrInsufficientHoldings, held, asset, amount,
				)
			}
			if err := c.setHolding(tx, asset, held-amount); err != nil {
				return err
			}
		}
		for key, amount := range credits {
			bal, err := c.getBalance(tx, key.Party, key.Asset)
			if err != nil {
				return err
			}
			if bal+amount < bal {
				return ErrAmountOverflow
			}
			if err := c.setBalance(tx, key.Party, key.Asset, bal+amount); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	log.Debugf("custody: disbursed %d transfer(s)", len(transfers))
	return nil
}

func (c *Custody) Close() error {
	return c.store.Close()
}

func (c *Custody) validateAsset(tx *badger.Txn, asset string) error {
	if asset == c.nativeAsset {
		return nil
	}
	var t token
	if err := c.store.TxGet(tx, asset, &t); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("%w %s", ErrUnknownAsset, asset)
		}
		return err
	}
	return nil
}

func (c *Custody) getBalance(tx *badger.Txn, party, asset string) (uint64, error) {
	var b balance
	if err := c.store.TxGet(tx, balanceKey(party, asset), &b); err != nil {
		if err == badgerhold.ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	return b.Amount, nil
}

func (c *Custody) setBalance(
	tx *badger.Txn, party, asset string, amount uint64,
) error {
	return c.store.TxUpsert(
		tx, balanceKey(party, asset), balance{party, asset, amount},
	)
}

func (c *Custody) getHolding(tx *badger.Txn, asset string) (uint64, error) {
	var h holding
	if err := c.store.TxGet(tx, asset, &h); err != nil {
		if err == badgerhold.ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	return h.Amount, nil
}

func (c *Custody) setHolding(tx *badger.Txn, asset string, amount uint64) error {
	return c.store.TxUpsert(tx, asset, holding{asset, amount})
}

func balanceKey(party, asset string) string {
	return fmt.Sprintf("%s/%s", party, asset)
}
