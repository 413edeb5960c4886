package application

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
)

// Keeper periodically pokes the permissionless transitions of every open
// market: it cancels expired acceptance phases, finalizes unchallenged
// proposals and resolves pegged markets from their oracles.
type Keeper struct {
	markets     MarketService
	resolutions ResolutionService
	oracles     OracleService
	clock       func() time.Time
	interval    time.Duration

	lock     *sync.Mutex
	stopChan chan struct{}
	wg       *sync.WaitGroup
}

func newKeeper(
	markets MarketService,
	resolutions ResolutionService,
	oracles OracleService,
	clock func() time.Time,
	interval time.Duration,
) *Keeper {
	return &Keeper{
		markets:     markets,
		resolutions: resolutions,
		oracles:     oracles,
		clock:       clock,
		interval:    interval,
		lock:        &sync.Mutex{},
		wg:          &sync.WaitGroup{},
	}
}

// Start runs the sweep loop in background. It's a no-op if already started.
func (k *Keeper) Start() {
	k.lock.Lock()
	defer k.lock.Unlock()

	if k.stopChan != nil {
		return
	}
	k.stopChan = make(chan struct{})

	log.Debugf("keeper: starting with interval %s", k.interval)

	k.wg.Add(1)
	go func(stop chan struct{}) {
		defer k.wg.Done()

		ticker := time.NewTicker(k.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				k.Sweep(context.Background())
			case <-stop:
				return
			}
		}
	}(k.stopChan)
}

// Stop terminates the sweep loop and waits for the ongoing sweep, if any.
func (k *Keeper) Stop() {
	k.lock.Lock()
	if k.stopChan == nil {
		k.lock.Unlock()
		return
	}
	close(k.stopChan)
	k.stopChan = nil
	k.lock.Unlock()

	k.wg.Wait()
	log.Debug("keeper: stopped")
}

// Sweep makes a single pass over the open markets and returns the number of
// transitions committed.
func (k *Keeper) Sweep(ctx context.Context) int {
	markets, err := k.markets.ListMarkets(
		ctx,
		domain.MarketStatusPendingAcceptance,
		domain.MarketStatusPendingResolution,
		domain.MarketStatusActive,
	)
	if err != nil {
		log.WithError(err).Warn("keeper: failed to list open markets")
		return 0
	}

	now := k.clock().Unix()
	count := 0
	for _, m := range markets {
		var err error
		switch m.Status {
		case domain.MarketStatusPendingAcceptance:
			if now < m.AcceptanceDeadline {
				continue
			}
			_, err = k.markets.CancelExpired(ctx, m.ID)
		case domain.MarketStatusPendingResolution:
			if now < m.Pending.ChallengeDeadline {
				continue
			}
			_, err = k.resolutions.FinalizeResolution(ctx, m.ID)
		case domain.MarketStatusActive:
			if !m.IsPegged() {
				continue
			}
			_, err = k.oracles.ResolveFromOracle(ctx, m.ID)
			if errors.Is(err, domain.ErrConditionNotResolved) {
				continue
			}
		default:
			continue
		}

		if err != nil {
			log.WithError(err).WithField("market", m.ID).Warn(
				"keeper: failed to advance market",
			)
			continue
		}
		count++
	}

	if count > 0 {
		log.Debugf("keeper: advanced %d market(s)", count)
	}
	return count
}
