package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tdex-network/wager-daemon/internal/core/application"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
)

type ParticipantJSON struct {
	Address  string `json:"address"`
	Position bool   `json:"position"`
}

type CreateMarketRequest struct {
	Kind                   string            `json:"kind" binding:"required"`
	Arbitrator             string            `json:"arbitrator"`
	Participants           []ParticipantJSON `json:"participants" binding:"required"`
	Policy                 string            `json:"policy" binding:"required"`
	StakeAmount            uint64            `json:"stake_amount"`
	StakeAsset             string            `json:"stake_asset" binding:"required"`
	AcceptanceThreshold    int               `json:"acceptance_threshold"`
	AcceptanceDeadline     int64             `json:"acceptance_deadline" binding:"required"`
	ChallengeWindowSeconds int64             `json:"challenge_window_seconds"`
	ChallengeBond          *uint64           `json:"challenge_bond"`
	Description            string            `json:"description"`
}

func (r CreateMarketRequest) toArgs(creator string) (application.CreateMarketArgs, error) {
	kind, ok := domain.MarketKindFromString(r.Kind)
	if !ok {
		return application.CreateMarketArgs{}, fmt.Errorf("unknown market kind %s", r.Kind)
	}
	policy, ok := domain.ResolutionPolicyFromString(r.Policy)
	if !ok {
		return application.CreateMarketArgs{}, fmt.Errorf("unknown resolution policy %s", r.Policy)
	}
	if r.ChallengeWindowSeconds < 0 {
		return application.CreateMarketArgs{}, fmt.Errorf("challenge window must not be negative")
	}

	participants := make([]domain.Participant, 0, len(r.Participants))
	for _, p := range r.Participants {
		participants = append(participants, domain.Participant{
			Address:  p.Address,
			Position: p.Position,
		})
	}

	return application.CreateMarketArgs{
		Kind:                kind,
		Creator:             creator,
		Arbitrator:          r.Arbitrator,
		Participants:        participants,
		Policy:              policy,
		StakeAmount:         r.StakeAmount,
		StakeAsset:          r.StakeAsset,
		AcceptanceThreshold: r.AcceptanceThreshold,
		AcceptanceDeadline:  time.Unix(r.AcceptanceDeadline, 0),
		ChallengeWindow:     time.Duration(r.ChallengeWindowSeconds) * time.Second,
		ChallengeBond:       r.ChallengeBond,
		Description:         []byte(r.Description),
	}, nil
}

type AmountRequest struct {
	Amount uint64 `json:"amount"`
}

type OutcomeRequest struct {
	Outcome *bool `json:"outcome" binding:"required"`
}

type PegRequest struct {
	OracleID    string `json:"oracle_id" binding:"required"`
	ConditionID string `json:"condition_id" binding:"required"`
}

type AcceptanceJSON struct {
	Participant string `json:"participant"`
	Amount      uint64 `json:"amount"`
	AcceptedAt  int64  `json:"accepted_at"`
}

type PendingResolutionJSON struct {
	Outcome           bool   `json:"outcome"`
	Proposer          string `json:"proposer"`
	ProposedAt        int64  `json:"proposed_at"`
	ChallengeDeadline int64  `json:"challenge_deadline"`
	Challenger        string `json:"challenger,omitempty"`
	ChallengedAt      int64  `json:"challenged_at,omitempty"`
	Bond              uint64 `json:"bond,omitempty"`
}

type ResolutionJSON struct {
	Outcome       bool     `json:"outcome"`
	Winner        string   `json:"winner,omitempty"`
	Winners       []string `json:"winners"`
	Draw          bool     `json:"draw"`
	Path          string   `json:"path"`
	BondRecipient string   `json:"bond_recipient,omitempty"`
	ResolvedAt    int64    `json:"resolved_at"`
}

type OraclePegJSON struct {
	OracleID    string `json:"oracle_id"`
	ConditionID string `json:"condition_id"`
	PeggedAt    int64  `json:"pegged_at"`
}

type MarketJSON struct {
	ID                     uint64                 `json:"id"`
	Kind                   string                 `json:"kind"`
	Creator                string                 `json:"creator"`
	Arbitrator             string                 `json:"arbitrator,omitempty"`
	Participants           []ParticipantJSON      `json:"participants"`
	Policy                 string                 `json:"policy"`
	StakeAmount            uint64                 `json:"stake_amount"`
	StakeAsset             string                 `json:"stake_asset"`
	AcceptanceThreshold    int                    `json:"acceptance_threshold"`
	AcceptanceDeadline     int64                  `json:"acceptance_deadline"`
	ChallengeWindowSeconds int64                  `json:"challenge_window_seconds"`
	ChallengeBond          uint64                 `json:"challenge_bond"`
	Description            string                 `json:"description,omitempty"`
	InstrumentID           string                 `json:"instrument_id,omitempty"`
	Status                 string                 `json:"status"`
	CreatedAt              int64                  `json:"created_at"`
	ActivatedAt            int64                  `json:"activated_at,omitempty"`
	ClosedAt               int64                  `json:"closed_at,omitempty"`
	Acceptances            []AcceptanceJSON       `json:"acceptances"`
	Pending                *PendingResolutionJSON `json:"pending,omitempty"`
	Resolution             *ResolutionJSON        `json:"resolution,omitempty"`
	Peg                    *OraclePegJSON         `json:"peg,omitempty"`
}

func newMarketJSON(m domain.Market) MarketJSON {
	participants := make([]ParticipantJSON, 0, len(m.Participants))
	for _, p := range m.Participants {
		participants = append(participants, ParticipantJSON{p.Address, p.Position})
	}
	acceptances := make([]AcceptanceJSON, 0, len(m.Acceptances))
	for _, a := range m.Acceptances {
		acceptances = append(acceptances, AcceptanceJSON{
			a.Participant, a.Amount, a.AcceptedAt,
		})
	}

	market := MarketJSON{
		ID:                     m.ID,
		Kind:                   m.Kind.String(),
		Creator:                m.Creator,
		Arbitrator:             m.Arbitrator,
		Participants:           participants,
		Policy:                 m.Policy.String(),
		StakeAmount:            m.StakeAmount,
		StakeAsset:             m.StakeAsset,
		AcceptanceThreshold:    m.AcceptanceThreshold,
		AcceptanceDeadline:     m.AcceptanceDeadline,
		ChallengeWindowSeconds: int64(m.ChallengeWindow / time.Second),
		ChallengeBond:          m.ChallengeBond,
		Description:            string(m.Description),
		InstrumentID:           m.InstrumentID,
		Status:                 m.Status.String(),
		CreatedAt:              m.CreatedAt,
		ActivatedAt:            m.ActivatedAt,
		ClosedAt:               m.ClosedAt,
		Acceptances:            acceptances,
	}
	if p := m.Pending; p != nil {
		market.Pending = &PendingResolutionJSON{
			Outcome:           p.Outcome,
			Proposer:          p.Proposer,
			ProposedAt:        p.ProposedAt,
			ChallengeDeadline: p.ChallengeDeadline,
			Challenger:        p.Challenger,
			ChallengedAt:      p.ChallengedAt,
			Bond:              p.Bond,
		}
	}
	if r := m.Resolution; r != nil {
		winners := r.Winners
		if winners == nil {
			winners = []string{}
		}
		market.Resolution = &ResolutionJSON{
			Outcome:       r.Outcome,
			Winner:        r.Winner,
			Winners:       winners,
			Draw:          r.Draw,
			Path:          r.Path.String(),
			BondRecipient: r.BondRecipient,
			ResolvedAt:    r.ResolvedAt,
		}
	}
	if p := m.Peg; p != nil {
		market.Peg = &OraclePegJSON{p.OracleID, p.ConditionID, p.PeggedAt}
	}
	return market
}

type EscrowJSON struct {
	Asset     string            `json:"asset"`
	Locked    map[string]uint64 `json:"locked"`
	Bonds     map[string]uint64 `json:"bonds"`
	Claimable map[string]uint64 `json:"claimable"`
	Claimed   map[string]bool   `json:"claimed"`
	Deposited uint64            `json:"deposited"`
	PaidOut   uint64            `json:"paid_out"`
	Balance   uint64            `json:"balance"`
	Settled   bool              `json:"settled"`
}

type MarketInfoJSON struct {
	Market MarketJSON `json:"market"`
	Escrow EscrowJSON `json:"escrow"`
}

func newMarketInfoJSON(info application.MarketInfo) MarketInfoJSON {
	e := info.Escrow
	return MarketInfoJSON{
		Market: newMarketJSON(info.Market),
		Escrow: EscrowJSON{
			Asset:     e.Asset,
			Locked:    e.Locked,
			Bonds:     e.Bonds,
			Claimable: e.Claimable,
			Claimed:   e.Claimed,
			Deposited: e.Deposited,
			PaidOut:   e.PaidOut,
			Balance:   e.Balance(),
			Settled:   e.Settled,
		},
	}
}

type OracleJSON struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

type OracleOutcomeJSON struct {
	Outcome      bool  `json:"outcome"`
	ConfidenceBp int   `json:"confidence_bp"`
	ResolvedAt   int64 `json:"resolved_at"`
}

type ConditionJSON struct {
	OracleID               string             `json:"oracle_id"`
	ConditionID            string             `json:"condition_id"`
	Kind                   string             `json:"kind"`
	Description            string             `json:"description"`
	ExpectedResolutionTime int64              `json:"expected_resolution_time,omitempty"`
	Outcome                *OracleOutcomeJSON `json:"outcome,omitempty"`
}

func newConditionJSON(info application.ConditionInfo) ConditionJSON {
	condition := ConditionJSON{
		OracleID:    info.OracleID,
		ConditionID: info.ConditionID,
		Kind:        info.Kind.String(),
		Description: info.Metadata.Description,
	}
	if t := info.Metadata.ExpectedResolutionTime; !t.IsZero() {
		condition.ExpectedResolutionTime = t.Unix()
	}
	if info.Outcome != nil {
		condition.Outcome = newOracleOutcomeJSON(*info.Outcome)
	}
	return condition
}

func newOracleOutcomeJSON(o ports.OracleOutcome) *OracleOutcomeJSON {
	return &OracleOutcomeJSON{
		Outcome:      o.Outcome,
		ConfidenceBp: int(o.ConfidenceBp),
		ResolvedAt:   o.ResolvedAt.Unix(),
	}
}

type ClaimJSON struct {
	MarketID uint64 `json:"market_id"`
	Party    string `json:"party"`
	Amount   uint64 `json:"amount"`
}

func parseMarketID(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid market id %s", c.Param("id"))
	}
	return id, nil
}
