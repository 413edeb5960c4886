package application

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
)

// MarketService creates markets and drives them through the acceptance
// phase.
type MarketService interface {
	CreateMarket(ctx context.Context, args CreateMarketArgs) (*domain.Market, error)
	Accept(
		ctx context.Context, marketID uint64, participant string, stake uint64,
	) (*domain.Market, error)
	CancelExpired(ctx context.Context, marketID uint64) (*domain.Market, error)
	GetMarket(ctx context.Context, marketID uint64) (*MarketInfo, error)
	ListMarkets(
		ctx context.Context, statuses ...domain.MarketStatus,
	) ([]domain.Market, error)
}

type marketService struct {
	repoManager ports.RepoManager
	ledger      *stakeLedger
	deployer    ports.InstrumentDeployer
	membership  ports.MembershipGate
	pubsub      PubSubService
	serializer  *serializer
	clock       func() time.Time

	defaultChallengeWindow time.Duration
	defaultChallengeBond   uint64
	instrumentLiquidity    uint64
	tradingPeriod          time.Duration
}

func newMarketService(
	repoManager ports.RepoManager,
	ledger *stakeLedger,
	deployer ports.InstrumentDeployer,
	membership ports.MembershipGate,
	pubsub PubSubService,
	serializer *serializer,
	clock func() time.Time,
	defaultChallengeWindow time.Duration,
	defaultChallengeBond, instrumentLiquidity uint64,
	tradingPeriod time.Duration,
) *marketService {
	return &marketService{
		repoManager:            repoManager,
		ledger:                 ledger,
		deployer:               deployer,
		membership:             membership,
		pubsub:                 pubsub,
		serializer:             serializer,
		clock:                  clock,
		defaultChallengeWindow: defaultChallengeWindow,
		defaultChallengeBond:   defaultChallengeBond,
		instrumentLiquidity:    instrumentLiquidity,
		tradingPeriod:          tradingPeriod,
	}
}

func (s *marketService) CreateMarket(
	ctx context.Context, args CreateMarketArgs,
) (*domain.Market, error) {
	unlock, err := s.serializer.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if s.membership != nil {
		ok, err := s.membership.CanCreateMarket(ctx, args.Creator)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrCreationNotAllowed
		}
	}

	now := s.clock()
	market, err := domain.NewMarket(args.toDomain(
		s.defaultChallengeWindow, s.defaultChallengeBond,
	), now)
	if err != nil {
		return nil, err
	}

	res, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			mkt, err := s.repoManager.MarketRepository().AddMarket(ctx, market)
			if err != nil {
				return nil, err
			}
			if err := s.ledger.open(ctx, mkt); err != nil {
				return nil, err
			}
			return mkt, nil
		},
	)
	if err != nil {
		return nil, err
	}

	mkt := res.(*domain.Market)
	log.WithFields(log.Fields{
		"market":       mkt.ID,
		"kind":         mkt.Kind,
		"policy":       mkt.Policy,
		"participants": len(mkt.Participants),
	}).Info("market created")
	s.pubsub.publish(newMarketEvent(TopicMarketCreated, mkt, now.Unix()))
	return mkt, nil
}

// Accept locks the stake of the participant. When the acceptance threshold
// is reached the conditional instrument is deployed and the market becomes
// Active. If deployment fails the market is refunded, the refund is
// committed and ErrInstrumentDeploymentFailed is returned along with the
// refunded market.
func (s *marketService) Accept(
	ctx context.Context, marketID uint64, participant string, stake uint64,
) (*domain.Market, error) {
	unlock, err := s.serializer.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.clock()
	var deployErr error

	res, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			deployErr = nil

			market, err := s.repoManager.MarketRepository().GetMarket(ctx, marketID)
			if err != nil {
				return nil, err
			}

			thresholdReached, err := market.Accept(participant, stake, now)
			if err != nil {
				return nil, err
			}

			if thresholdReached {
				instrumentID, err := s.deployer.Deploy(ctx, ports.InstrumentSpec{
					MarketID:         market.ID,
					CollateralAsset:  market.StakeAsset,
					CollateralAmount: market.TotalStaked(),
					Liquidity:        s.instrumentLiquidity,
					TradingPeriod:    s.tradingPeriod,
				})
				if err != nil {
					deployErr = err
					if err := market.Refund(now); err != nil {
						return nil, err
					}
				} else {
					if err := market.Activate(instrumentID, now); err != nil {
						return nil, err
					}
				}
			}

			if err := s.updateMarket(ctx, market); err != nil {
				return nil, err
			}

			if err := s.ledger.deposit(ctx, market, participant, stake); err != nil {
				return nil, err
			}
			if deployErr != nil {
				if _, err := s.ledger.refund(ctx, market); err != nil {
					return nil, err
				}
			}
			return market, nil
		},
	)
	if err != nil {
		return nil, err
	}

	market := res.(*domain.Market)
	logger := log.WithFields(log.Fields{
		"market":      market.ID,
		"participant": participant,
	})

	if deployErr != nil {
		logger.WithError(deployErr).Warn("instrument deployment failed, market refunded")
		s.pubsub.publish(newMarketEvent(TopicMarketRefunded, market, now.Unix()))
		return market, fmt.Errorf(
			"%w: %s", domain.ErrInstrumentDeploymentFailed, deployErr,
		)
	}

	logger.Debug("stake accepted")
	if market.Status == domain.MarketStatusActive {
		logger.WithField("instrument", market.InstrumentID).Info("market activated")
		s.pubsub.publish(newMarketEvent(TopicMarketActivated, market, now.Unix()))
	}
	return market, nil
}

// CancelExpired closes a market whose acceptance deadline elapsed below
// threshold and returns every stake. Calling it on an already closed market
// is a no-op.
func (s *marketService) CancelExpired(
	ctx context.Context, marketID uint64,
) (*domain.Market, error) {
	unlock, err := s.serializer.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.clock()
	var changed bool

	res, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			market, err := s.repoManager.MarketRepository().GetMarket(ctx, marketID)
			if err != nil {
				return nil, err
			}

			changed, err = market.CancelExpired(now)
			if err != nil {
				return nil, err
			}
			if !changed {
				return market, nil
			}

			if err := s.updateMarket(ctx, market); err != nil {
				return nil, err
			}
			if _, err := s.ledger.refund(ctx, market); err != nil {
				return nil, err
			}
			return market, nil
		},
	)
	if err != nil {
		return nil, err
	}

	market := res.(*domain.Market)
	if changed {
		log.WithFields(log.Fields{
			"market": market.ID,
			"status": market.Status,
		}).Info("expired market closed")

		topic := TopicMarketCancelled
		if market.Status == domain.MarketStatusRefunded {
			topic = TopicMarketRefunded
		}
		s.pubsub.publish(newMarketEvent(topic, market, now.Unix()))
	}
	return market, nil
}

func (s *marketService) GetMarket(
	ctx context.Context, marketID uint64,
) (*MarketInfo, error) {
	res, err := s.repoManager.RunTransaction(
		ctx, true, func(ctx context.Context) (interface{}, error) {
			market, err := s.repoManager.MarketRepository().GetMarket(ctx, marketID)
			if err != nil {
				return nil, err
			}
			escrow, err := s.ledger.getEscrow(ctx, marketID)
			if err != nil {
				return nil, err
			}
			return &MarketInfo{*market, *escrow}, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return res.(*MarketInfo), nil
}

func (s *marketService) ListMarkets(
	ctx context.Context, statuses ...domain.MarketStatus,
) ([]domain.Market, error) {
	res, err := s.repoManager.RunTransaction(
		ctx, true, func(ctx context.Context) (interface{}, error) {
			repo := s.repoManager.MarketRepository()
			if len(statuses) <= 0 {
				return repo.GetAllMarkets(ctx)
			}
			return repo.GetMarketsByStatus(ctx, statuses...)
		},
	)
	if err != nil {
		return nil, err
	}
	return res.([]domain.Market), nil
}

func (s *marketService) updateMarket(
	ctx context.Context, market *domain.Market,
) error {
	return s.repoManager.MarketRepository().UpdateMarket(
		ctx, market.ID, func(_ *domain.Market) (*domain.Market, error) {
			return market, nil
		},
	)
}
