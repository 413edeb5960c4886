package application

import (
	"time"

	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
)

// CreateMarketArgs are the arguments for creating a market. Challenge window
// and bond fall back to the configured defaults when not set.
type CreateMarketArgs struct {
	Kind                domain.MarketKind
	Creator             string
	Arbitrator          string
	Participants        []domain.Participant
	Policy              domain.ResolutionPolicy
	StakeAmount         uint64
	StakeAsset          string
	AcceptanceThreshold int
	AcceptanceDeadline  time.Time
	ChallengeWindow     time.Duration
	ChallengeBond       *uint64
	Description         []byte
}

func (a CreateMarketArgs) toDomain(
	defaultWindow time.Duration, defaultBond uint64,
) domain.MarketArgs {
	window := a.ChallengeWindow
	if window == 0 {
		window = defaultWindow
	}
	bond := defaultBond
	if a.ChallengeBond != nil {
		bond = *a.ChallengeBond
	}

	return domain.MarketArgs{
		Kind:                a.Kind,
		Creator:             a.Creator,
		Arbitrator:          a.Arbitrator,
		Participants:        a.Participants,
		Policy:              a.Policy,
		StakeAmount:         a.StakeAmount,
		StakeAsset:          a.StakeAsset,
		AcceptanceThreshold: a.AcceptanceThreshold,
		AcceptanceDeadline:  a.AcceptanceDeadline,
		ChallengeWindow:     window,
		ChallengeBond:       bond,
		Description:         a.Description,
	}
}

// MarketInfo is the full state of a market along with its stake ledger
// account.
type MarketInfo struct {
	Market domain.Market
	Escrow domain.Escrow
}

// ConditionInfo is the state of an oracle condition. Outcome is nil until the
// condition is resolved.
type ConditionInfo struct {
	OracleID    string
	ConditionID string
	Kind        ports.OracleKind
	Metadata    ports.ConditionMetadata
	Outcome     *ports.OracleOutcome
}

// ClaimResult is the amount paid out to a party by a claim.
type ClaimResult struct {
	MarketID uint64
	Party    string
	Amount   uint64
}
