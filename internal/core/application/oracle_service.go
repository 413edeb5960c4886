package application

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
)

// OracleService binds markets to oracle conditions and settles them with the
// oracle outcome, bypassing the proposal and challenge flow.
type OracleService interface {
	PegToOracleCondition(
		ctx context.Context, marketID uint64, caller, oracleID, conditionID string,
	) (*domain.Market, error)
	ResolveFromOracle(ctx context.Context, marketID uint64) (*domain.Market, error)
	GetCondition(
		ctx context.Context, oracleID, conditionID string,
	) (*ConditionInfo, error)
	ListOracles(ctx context.Context) []ports.OracleInfo
}

type oracleService struct {
	repoManager ports.RepoManager
	ledger      *stakeLedger
	oracles     ports.OracleRegistry
	pubsub      PubSubService
	serializer  *serializer
	clock       func() time.Time

	minConfidenceBp uint16
}

func newOracleService(
	repoManager ports.RepoManager,
	ledger *stakeLedger,
	oracles ports.OracleRegistry,
	pubsub PubSubService,
	serializer *serializer,
	clock func() time.Time,
	minConfidenceBp uint16,
) *oracleService {
	return &oracleService{
		repoManager:     repoManager,
		ledger:          ledger,
		oracles:         oracles,
		pubsub:          pubsub,
		serializer:      serializer,
		clock:           clock,
		minConfidenceBp: minConfidenceBp,
	}
}

func (s *oracleService) PegToOracleCondition(
	ctx context.Context, marketID uint64, caller, oracleID, conditionID string,
) (*domain.Market, error) {
	now := s.clock()

	market, _, err := mutateMarket(
		ctx, s.serializer, s.repoManager, marketID,
		func(ctx context.Context, m *domain.Market) (bool, error) {
			if err := m.PegToOracleCondition(
				caller, oracleID, conditionID, now,
			); err != nil {
				return false, err
			}

			adapter, err := s.oracles.Get(oracleID)
			if err != nil {
				return false, err
			}
			supported, err := adapter.IsConditionSupported(ctx, conditionID)
			if err != nil {
				return false, err
			}
			if !supported {
				return false, domain.ErrConditionNotSupported
			}
			resolved, err := adapter.IsConditionResolved(ctx, conditionID)
			if err != nil {
				return false, err
			}
			if resolved {
				return false, domain.ErrConditionAlreadyResolved
			}
			return true, nil
		},
	)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"market":    market.ID,
		"oracle":    oracleID,
		"condition": conditionID,
	}).Info("market pegged to oracle condition")
	return market, nil
}

// ResolveFromOracle settles a pegged market if its condition is resolved
// with enough confidence. Anyone can trigger it.
func (s *oracleService) ResolveFromOracle(
	ctx context.Context, marketID uint64,
) (*domain.Market, error) {
	var outcome ports.OracleOutcome

	market, _, err := mutateMarket(
		ctx, s.serializer, s.repoManager, marketID,
		func(ctx context.Context, m *domain.Market) (bool, error) {
			if !m.IsPegged() {
				return false, domain.ErrMarketNotPegged
			}
			if m.Status == domain.MarketStatusResolved {
				return false, domain.ErrMarketAlreadyResolved
			}
			if m.Status != domain.MarketStatusActive {
				return false, domain.ErrMarketNotActive
			}

			adapter, err := s.oracles.Get(m.Peg.OracleID)
			if err != nil {
				return false, err
			}
			resolved, err := adapter.IsConditionResolved(ctx, m.Peg.ConditionID)
			if err != nil {
				return false, err
			}
			if !resolved {
				return false, domain.ErrConditionNotResolved
			}
			outcome, err = adapter.GetOutcome(ctx, m.Peg.ConditionID)
			if err != nil {
				return false, err
			}
			if outcome.ConfidenceBp < s.minConfidenceBp {
				return false, domain.ErrOracleConfidenceTooLow
			}

			if err := m.ResolveFromOracle(
				outcome.Outcome, outcome.ResolvedAt,
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
		"market":     market.ID,
		"outcome":    outcome.Outcome,
		"confidence": outcome.ConfidenceBp,
	}).Info("market resolved from oracle")
	s.pubsub.publish(newResolvedEvent(market))
	return market, nil
}

func (s *oracleService) GetCondition(
	ctx context.Context, oracleID, conditionID string,
) (*ConditionInfo, error) {
	adapter, err := s.oracles.Get(oracleID)
	if err != nil {
		return nil, err
	}

	supported, err := adapter.IsConditionSupported(ctx, conditionID)
	if err != nil {
		return nil, err
	}
	if !supported {
		return nil, domain.ErrConditionNotSupported
	}

	metadata, err := adapter.GetConditionMetadata(ctx, conditionID)
	if err != nil {
		return nil, err
	}
	info := &ConditionInfo{
		OracleID:    oracleID,
		ConditionID: conditionID,
		Kind:        adapter.Kind(),
		Metadata:    metadata,
	}

	resolved, err := adapter.IsConditionResolved(ctx, conditionID)
	if err != nil {
		return nil, err
	}
	if resolved {
		outcome, err := adapter.GetOutcome(ctx, conditionID)
		if err != nil {
			return nil, err
		}
		info.Outcome = &outcome
	}
	return info, nil
}

func (s *oracleService) ListOracles(_ context.Context) []ports.OracleInfo {
	return s.oracles.List()
}
