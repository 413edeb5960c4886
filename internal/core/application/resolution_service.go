package application

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
)

// ResolutionService implements the optimistic resolution flow: proposal,
// challenge, finalization and dispute adjudication.
type ResolutionService interface {
	ProposeOutcome(
		ctx context.Context, marketID uint64, caller string, outcome bool,
	) (*domain.Market, error)
	Challenge(
		ctx context.Context, marketID uint64, caller string, bond uint64,
	) (*domain.Market, error)
	FinalizeResolution(ctx context.Context, marketID uint64) (*domain.Market, error)
	ResolveDispute(
		ctx context.Context, marketID uint64, caller string, outcome bool,
	) (*domain.Market, error)
}

type resolutionService struct {
	repoManager ports.RepoManager
	ledger      *stakeLedger
	pubsub      PubSubService
	serializer  *serializer
	clock       func() time.Time

	fallbackAuthority  string
	zeroBondChallenges bool
}

func newResolutionService(
	repoManager ports.RepoManager,
	ledger *stakeLedger,
	pubsub PubSubService,
	serializer *serializer,
	clock func() time.Time,
	fallbackAuthority string,
	zeroBondChallenges bool,
) *resolutionService {
	return &resolutionService{
		repoManager:        repoManager,
		ledger:             ledger,
		pubsub:             pubsub,
		serializer:         serializer,
		clock:              clock,
		fallbackAuthority:  fallbackAuthority,
		zeroBondChallenges: zeroBondChallenges,
	}
}

func (s *resolutionService) ProposeOutcome(
	ctx context.Context, marketID uint64, caller string, outcome bool,
) (*domain.Market, error) {
	now := s.clock()

	market, _, err := s.mutate(
		ctx, marketID, func(ctx context.Context, m *domain.Market) (bool, error) {
			if err := m.ProposeOutcome(caller, outcome, now); err != nil {
				return false, err
			}
			return true, nil
		},
	)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"market":   market.ID,
		"proposer": caller,
		"outcome":  outcome,
		"deadline": time.Unix(market.Pending.ChallengeDeadline, 0).UTC(),
	}).Info("outcome proposed")

	event := newMarketEvent(TopicOutcomeProposed, market, now.Unix())
	event.Party = caller
	event.Outcome = &outcome
	s.pubsub.publish(event)
	return market, nil
}

func (s *resolutionService) Challenge(
	ctx context.Context, marketID uint64, caller string, bond uint64,
) (*domain.Market, error) {
	now := s.clock()

	market, _, err := s.mutate(
		ctx, marketID, func(ctx context.Context, m *domain.Market) (bool, error) {
			if err := m.Challenge(caller, bond, s.zeroBondChallenges, now); err != nil {
				return false, err
			}
			return true, nil
		},
		func(ctx context.Context, m *domain.Market) error {
			return s.ledger.postBond(ctx, m, caller, bond)
		},
	)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"market":     market.ID,
		"challenger": caller,
		"bond":       bond,
	}).Info("proposal challenged")

	event := newMarketEvent(TopicOutcomeChallenged, market, now.Unix())
	event.Party = caller
	event.Amount = bond
	s.pubsub.publish(event)
	return market, nil
}

// FinalizeResolution settles an unchallenged proposal once its challenge
// deadline is reached. Finalizing an already finalized market is a no-op.
func (s *resolutionService) FinalizeResolution(
	ctx context.Context, marketID uint64,
) (*domain.Market, error) {
	now := s.clock()

	market, changed, err := s.mutate(
		ctx, marketID, func(ctx context.Context, m *domain.Market) (bool, error) {
			return m.FinalizeResolution(now)
		},
		s.ledger.settle,
	)
	if err != nil {
		return nil, err
	}

	if changed {
		log.WithFields(log.Fields{
			"market": market.ID,
			"winner": market.Resolution.Winner,
		}).Info("resolution finalized")
		s.pubsub.publish(newResolvedEvent(market))
	}
	return market, nil
}

func (s *resolutionService) ResolveDispute(
	ctx context.Context, marketID uint64, caller string, outcome bool,
) (*domain.Market, error) {
	now := s.clock()

	market, _, err := s.mutate(
		ctx, marketID, func(ctx context.Context, m *domain.Market) (bool, error) {
			if err := m.ResolveDispute(
				caller, s.fallbackAuthority, outcome, now,
			); err != nil {
				return false, err
			}
			return true, nil
		},
		s.ledger.settle,
	)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"market":         market.ID,
		"adjudicator":    caller,
		"outcome":        outcome,
		"bond_recipient": market.Resolution.BondRecipient,
	}).Info("dispute resolved")
	s.pubsub.publish(newResolvedEvent(market))
	return market, nil
}

// mutate applies the given transition to a market in a serialized
// transaction. If the transition changed the market, the new state is
// stored and then the given ledger operations are run in order.
func (s *resolutionService) mutate(
	ctx context.Context,
	marketID uint64,
	transition func(context.Context, *domain.Market) (bool, error),
	ledgerOps ...func(context.Context, *domain.Market) error,
) (*domain.Market, bool, error) {
	return mutateMarket(
		ctx, s.serializer, s.repoManager, marketID, transition, ledgerOps...,
	)
}

func mutateMarket(
	ctx context.Context,
	serializer *serializer,
	repoManager ports.RepoManager,
	marketID uint64,
	transition func(context.Context, *domain.Market) (bool, error),
	ledgerOps ...func(context.Context, *domain.Market) error,
) (*domain.Market, bool, error) {
	unlock, err := serializer.lock(ctx)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	var changed bool
	res, err := repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			repo := repoManager.MarketRepository()
			market, err := repo.GetMarket(ctx, marketID)
			if err != nil {
				return nil, err
			}

			changed, err = transition(ctx, market)
			if err != nil {
				return nil, err
			}
			if !changed {
				return market, nil
			}

			if err := repo.UpdateMarket(
				ctx, market.ID, func(_ *domain.Market) (*domain.Market, error) {
					return market, nil
				},
			); err != nil {
				return nil, err
			}

			for _, op := range ledgerOps {
				if err := op(ctx, market); err != nil {
					return nil, err
				}
			}
			return market, nil
		},
	)
	if err != nil {
		return nil, false, err
	}
	return res.(*domain.Market), changed, nil
}
