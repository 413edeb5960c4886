package application

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
)

// stakeLedger is the only component allowed to move value. Every method is
// expected to run inside a repository transaction and updates the escrow
// before moving any asset, so that a failing transfer makes the whole
// transaction to be discarded.
type stakeLedger struct {
	repoManager ports.RepoManager
	custody     ports.AssetCustody
}

func newStakeLedger(
	repoManager ports.RepoManager, custody ports.AssetCustody,
) *stakeLedger {
	return &stakeLedger{repoManager, custody}
}

func (l *stakeLedger) open(ctx context.Context, market *domain.Market) error {
	escrow := domain.NewEscrow(market.ID, market.StakeAsset)
	return l.repoManager.EscrowRepository().AddEscrow(ctx, escrow)
}

func (l *stakeLedger) deposit(
	ctx context.Context, market *domain.Market, party string, amount uint64,
) error {
	if err := l.repoManager.EscrowRepository().UpdateEscrow(
		ctx, market.ID, func(e *domain.Escrow) (*domain.Escrow, error) {
			if err := e.Lock(party, amount); err != nil {
				return nil, err
			}
			return e, nil
		},
	); err != nil {
		return err
	}

	return l.collect(ctx, party, market.StakeAsset, amount)
}

func (l *stakeLedger) postBond(
	ctx context.Context, market *domain.Market, party string, amount uint64,
) error {
	if amount == 0 {
		return nil
	}

	if err := l.repoManager.EscrowRepository().UpdateEscrow(
		ctx, market.ID, func(e *domain.Escrow) (*domain.Escrow, error) {
			if err := e.LockBond(party, amount); err != nil {
				return nil, err
			}
			return e, nil
		},
	); err != nil {
		return err
	}

	return l.collect(ctx, party, market.StakeAsset, amount)
}

// settle makes the locked funds claimable according to the resolution of
// the given market.
func (l *stakeLedger) settle(ctx context.Context, market *domain.Market) error {
	payouts, err := market.Payouts()
	if err != nil {
		return err
	}

	return l.repoManager.EscrowRepository().UpdateEscrow(
		ctx, market.ID, func(e *domain.Escrow) (*domain.Escrow, error) {
			if err := e.Settle(payouts); err != nil {
				return nil, err
			}
			return e, nil
		},
	)
}

// refund returns every locked fund of the given market to its depositor.
func (l *stakeLedger) refund(
	ctx context.Context, market *domain.Market,
) ([]domain.Payout, error) {
	var payouts []domain.Payout
	if err := l.repoManager.EscrowRepository().UpdateEscrow(
		ctx, market.ID, func(e *domain.Escrow) (*domain.Escrow, error) {
			payouts = e.Release()
			return e, nil
		},
	); err != nil {
		return nil, err
	}

	transfers := make([]ports.Transfer, 0, len(payouts))
	for _, p := range payouts {
		transfers = append(transfers, ports.Transfer{
			To:     p.Party,
			Asset:  market.StakeAsset,
			Amount: p.Amount,
		})
	}
	if err := l.disburse(ctx, transfers); err != nil {
		return nil, err
	}
	return payouts, nil
}

// claim pays out the entitlement of the given party, once.
func (l *stakeLedger) claim(
	ctx context.Context, market *domain.Market, party string,
) (uint64, error) {
	var amount uint64
	if err := l.repoManager.EscrowRepository().UpdateEscrow(
		ctx, market.ID, func(e *domain.Escrow) (*domain.Escrow, error) {
			a, err := e.Claim(party)
			if err != nil {
				return nil, err
			}
			amount = a
			return e, nil
		},
	); err != nil {
		return 0, err
	}

	if amount == 0 {
		return 0, nil
	}

	if err := l.disburse(ctx, []ports.Transfer{
		{To: party, Asset: market.StakeAsset, Amount: amount},
	}); err != nil {
		return 0, err
	}
	return amount, nil
}

func (l *stakeLedger) getEscrow(
	ctx context.Context, marketID uint64,
) (*domain.Escrow, error) {
	return l.repoManager.EscrowRepository().GetEscrow(ctx, marketID)
}

func (l *stakeLedger) collect(
	ctx context.Context, party, asset string, amount uint64,
) error {
	if err := l.custody.Collect(ctx, party, asset, amount); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrAssetTransferFailed, err)
	}
	return nil
}

func (l *stakeLedger) disburse(
	ctx context.Context, transfers []ports.Transfer,
) error {
	if len(transfers) == 0 {
		return nil
	}
	if err := l.custody.Disburse(withPayoutContext(ctx), transfers); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrAssetTransferFailed, err)
	}
	log.Debugf("disbursed %d transfer(s)", len(transfers))
	return nil
}
