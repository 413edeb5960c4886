package application

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
)

// ClaimService pays out the entitlements of a resolved market. Every party
// can claim only once.
type ClaimService interface {
	Claim(ctx context.Context, marketID uint64, party string) (*ClaimResult, error)
}

type claimService struct {
	repoManager ports.RepoManager
	ledger      *stakeLedger
	pubsub      PubSubService
	serializer  *serializer
	clock       func() time.Time
}

func newClaimService(
	repoManager ports.RepoManager,
	ledger *stakeLedger,
	pubsub PubSubService,
	serializer *serializer,
	clock func() time.Time,
) *claimService {
	return &claimService{repoManager, ledger, pubsub, serializer, clock}
}

func (s *claimService) Claim(
	ctx context.Context, marketID uint64, party string,
) (*ClaimResult, error) {
	unlock, err := s.serializer.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var market *domain.Market
	res, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			m, err := s.repoManager.MarketRepository().GetMarket(ctx, marketID)
			if err != nil {
				return nil, err
			}
			if m.Status != domain.MarketStatusResolved {
				return nil, domain.ErrMarketNotResolved
			}
			if !canClaim(m, party) {
				return nil, domain.ErrNotParticipant
			}
			market = m

			return s.ledger.claim(ctx, m, party)
		},
	)
	if err != nil {
		return nil, err
	}

	amount := res.(uint64)
	log.WithFields(log.Fields{
		"market": marketID,
		"party":  party,
		"amount": amount,
	}).Info("stake claimed")

	event := newMarketEvent(TopicStakeClaimed, market, s.clock().Unix())
	event.Party = party
	event.Amount = amount
	s.pubsub.publish(event)

	return &ClaimResult{
		MarketID: marketID,
		Party:    party,
		Amount:   amount,
	}, nil
}

// canClaim returns whether the party locked a stake in the market or is
// owed the challenge bond.
func canClaim(m *domain.Market, party string) bool {
	if m.HasAccepted(party) {
		return true
	}
	return m.Resolution != nil && len(m.Resolution.BondRecipient) > 0 &&
		party == m.Resolution.BondRecipient
}
