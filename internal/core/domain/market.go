package domain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// MarketArgs holds the arguments required to create a new market.
type MarketArgs struct {
	Kind         MarketKind
	Creator      string
	Arbitrator   string
	Participants []Participant
	Policy       ResolutionPolicy
	StakeAmount  uint64
	StakeAsset   string
	// AcceptanceThreshold defaults to the number of participants if zero.
	AcceptanceThreshold int
	AcceptanceDeadline  time.Time
	ChallengeWindow     time.Duration
	ChallengeBond       uint64
	Description         []byte
}

// Market is the data structure representing a wager market entity. The
// records that refer to a market (acceptances, pending resolution,
// resolution and oracle peg) are keyed by the market id and never point back
// to it.
type Market struct {
	ID                  uint64
	Kind                MarketKind
	Creator             string
	Arbitrator          string
	Participants        []Participant
	Policy              ResolutionPolicy
	StakeAmount         uint64
	StakeAsset          string
	AcceptanceThreshold int
	AcceptanceDeadline  int64
	ChallengeWindow     time.Duration
	ChallengeBond       uint64
	Description         []byte
	InstrumentID        string
	Status              MarketStatus
	CreatedAt           int64
	ActivatedAt         int64
	ClosedAt            int64

	Acceptances []Acceptance
	Pending     *PendingResolution
	Resolution  *Resolution
	Peg         *OraclePeg
}

// NewMarket validates the given args and returns a market pending
// acceptance. The id is assigned by the repository.
func NewMarket(args MarketArgs, now time.Time) (*Market, error) {
	threshold, err := args.validate(now)
	if err != nil {
		return nil, err
	}

	participants := make([]Participant, len(args.Participants))
	copy(participants, args.Participants)

	return &Market{
		Kind:                args.Kind,
		Creator:             args.Creator,
		Arbitrator:          args.Arbitrator,
		Participants:        participants,
		Policy:              args.Policy,
		StakeAmount:         args.StakeAmount,
		StakeAsset:          args.StakeAsset,
		AcceptanceThreshold: threshold,
		AcceptanceDeadline:  args.AcceptanceDeadline.Unix(),
		ChallengeWindow:     args.ChallengeWindow,
		ChallengeBond:       args.ChallengeBond,
		Description:         args.Description,
		Status:              MarketStatusPendingAcceptance,
		CreatedAt:           now.Unix(),
	}, nil
}

func (a MarketArgs) validate(now time.Time) (int, error) {
	if a.Creator == "" {
		return -1, fmt.Errorf("%w: missing creator", ErrInvalidMarket)
	}
	if a.StakeAmount == 0 {
		return -1, fmt.Errorf("%w: stake amount must be positive", ErrInvalidMarket)
	}
	if a.StakeAsset == "" {
		return -1, fmt.Errorf("%w: missing stake asset", ErrInvalidMarket)
	}
	if !a.AcceptanceDeadline.After(now) {
		return -1, fmt.Errorf("%w: acceptance deadline must be in the future", ErrInvalidMarket)
	}
	if a.ChallengeWindow < MinChallengeWindow || a.ChallengeWindow > MaxChallengeWindow {
		return -1, fmt.Errorf(
			"%w: must be in range [%s, %s]",
			ErrInvalidChallengeWindow, MinChallengeWindow, MaxChallengeWindow,
		)
	}
	if _, ok := policyToString[a.Policy]; !ok {
		return -1, fmt.Errorf("%w: unknown resolution policy", ErrInvalidMarket)
	}

	seen := make(map[string]struct{}, len(a.Participants))
	sides := make(map[bool]int)
	for _, p := range a.Participants {
		if p.Address == "" {
			return -1, fmt.Errorf("%w: participant address must not be empty", ErrInvalidMarket)
		}
		if _, ok := seen[p.Address]; ok {
			return -1, fmt.Errorf("%w: duplicated participant %s", ErrInvalidMarket, p.Address)
		}
		seen[p.Address] = struct{}{}
		sides[p.Position]++
	}
	if _, ok := seen[a.Creator]; !ok {
		return -1, fmt.Errorf("%w: creator must be a participant", ErrInvalidMarket)
	}
	if sides[true] == 0 || sides[false] == 0 {
		return -1, fmt.Errorf("%w: both sides must be backed by a participant", ErrInvalidMarket)
	}

	threshold := a.AcceptanceThreshold
	if threshold == 0 {
		threshold = len(a.Participants)
	}

	switch a.Kind {
	case MarketKindBilateral:
		if len(a.Participants) != bilateralParticipants {
			return -1, fmt.Errorf("%w: bilateral market requires exactly 2 participants", ErrInvalidMarket)
		}
		if threshold != bilateralParticipants {
			return -1, fmt.Errorf("%w: bilateral market requires both acceptances", ErrInvalidMarket)
		}
	case MarketKindGroup:
		n := len(a.Participants)
		if n < minGroupParticipants || n > MaxGroupParticipants {
			return -1, fmt.Errorf(
				"%w: group market requires between %d and %d participants",
				ErrInvalidMarket, minGroupParticipants, MaxGroupParticipants,
			)
		}
		if threshold < minAcceptanceQuorum || threshold > n {
			return -1, fmt.Errorf(
				"%w: acceptance threshold must be in range [%d, %d]",
				ErrInvalidMarket, minAcceptanceQuorum, n,
			)
		}
	default:
		return -1, fmt.Errorf("%w: unknown market kind", ErrInvalidMarket)
	}

	if a.Policy == PolicyThirdParty {
		if a.Arbitrator == "" {
			return -1, fmt.Errorf("%w: third party policy requires an arbitrator", ErrInvalidMarket)
		}
		if _, ok := seen[a.Arbitrator]; !ok {
			return -1, fmt.Errorf("%w: arbitrator must be a participant", ErrInvalidMarket)
		}
	} else if a.Arbitrator != "" {
		return -1, fmt.Errorf("%w: arbitrator is only allowed with third party policy", ErrInvalidMarket)
	}

	return threshold, nil
}

// IsParticipant returns whether the given address belongs to the authorized
// participant set.
func (m *Market) IsParticipant(addr string) bool {
	_, ok := m.participant(addr)
	return ok
}

// HasAccepted returns whether the given participant locked its stake.
func (m *Market) HasAccepted(addr string) bool {
	_, ok := m.acceptance(addr)
	return ok
}

func (m *Market) AcceptedCount() int {
	return len(m.Acceptances)
}

// TotalStaked returns the sum of all accepted stakes.
func (m *Market) TotalStaked() uint64 {
	var total uint64
	for _, a := range m.Acceptances {
		total += a.Amount
	}
	return total
}

func (m *Market) IsPegged() bool {
	return m.Peg != nil
}

// Adjudicator returns who settles a challenged proposal: the arbitrator for
// third party markets, the fallback authority otherwise.
func (m *Market) Adjudicator(fallbackAuthority string) string {
	if m.Policy == PolicyThirdParty {
		return m.Arbitrator
	}
	return fallbackAuthority
}

// Accept records the stake of the given participant. It returns whether the
// acceptance threshold has been reached, in which case the market is ready
// to be activated.
func (m *Market) Accept(addr string, amount uint64, now time.Time) (bool, error) {
	if !m.IsParticipant(addr) {
		return false, ErrNotParticipant
	}
	if m.Status != MarketStatusPendingAcceptance {
		return false, ErrMarketNotPendingAcceptance
	}
	if m.HasAccepted(addr) {
		return false, ErrAlreadyAccepted
	}
	if now.Unix() >= m.AcceptanceDeadline {
		return false, ErrAcceptanceDeadlinePassed
	}
	if amount != m.StakeAmount {
		return false, ErrStakeMismatch
	}

	m.Acceptances = append(m.Acceptances, Acceptance{
		Participant: addr,
		Amount:      amount,
		AcceptedAt:  now.Unix(),
	})
	return m.AcceptedCount() >= m.AcceptanceThreshold, nil
}

// Activate brings a market that reached the acceptance threshold to the
// Active status and records the deployed instrument.
func (m *Market) Activate(instrumentID string, now time.Time) error {
	if m.Status == MarketStatusActive {
		return nil
	}
	if m.Status != MarketStatusPendingAcceptance ||
		m.AcceptedCount() < m.AcceptanceThreshold {
		return ErrMarketNotPendingAcceptance
	}

	m.InstrumentID = instrumentID
	m.ActivatedAt = now.Unix()
	m.Status = MarketStatusActive
	return nil
}

// Refund closes a market that never became active. It lands in Refunded if
// any stake has to be returned, in Cancelled otherwise.
func (m *Market) Refund(now time.Time) error {
	if m.Status != MarketStatusPendingAcceptance {
		return ErrMarketNotPendingAcceptance
	}

	m.Status = MarketStatusCancelled
	if m.AcceptedCount() > 0 {
		m.Status = MarketStatusRefunded
	}
	m.ClosedAt = now.Unix()
	return nil
}

// CancelExpired closes the market once the acceptance deadline elapsed
// below threshold. It returns false without error if the market was already
// cancelled or refunded.
func (m *Market) CancelExpired(now time.Time) (bool, error) {
	if m.Status == MarketStatusCancelled || m.Status == MarketStatusRefunded {
		return false, nil
	}
	if m.Status != MarketStatusPendingAcceptance {
		return false, ErrMarketNotPendingAcceptance
	}
	if now.Unix() < m.AcceptanceDeadline {
		return false, ErrAcceptanceDeadlineNotReached
	}

	if err := m.Refund(now); err != nil {
		return false, err
	}
	return true, nil
}

// ProposeOutcome opens the challenge window for the given outcome.
func (m *Market) ProposeOutcome(caller string, outcome bool, now time.Time) error {
	if err := m.canPropose(caller); err != nil {
		return err
	}
	if m.Status != MarketStatusActive {
		if m.Status.IsTerminal() {
			return ErrMarketAlreadyResolved
		}
		return ErrMarketNotActive
	}
	if m.IsPegged() {
		return ErrMarketPegged
	}

	proposedAt := now.Unix()
	m.Pending = &PendingResolution{
		Outcome:           outcome,
		Proposer:          caller,
		ProposedAt:        proposedAt,
		ChallengeDeadline: proposedAt + int64(m.ChallengeWindow/time.Second),
	}
	m.Status = MarketStatusPendingResolution
	return nil
}

// Challenge contests the pending proposal. The challenge window is half-open:
// a challenge is accepted strictly before the deadline.
func (m *Market) Challenge(
	caller string, bond uint64, zeroBondChallenges bool, now time.Time,
) error {
	if !m.IsParticipant(caller) {
		return ErrNotParticipant
	}
	if m.Status != MarketStatusPendingResolution {
		if m.Status == MarketStatusChallenged {
			return ErrMarketChallenged
		}
		return ErrMarketNotPendingResolution
	}
	if caller == m.Pending.Proposer {
		return ErrProposerCannotChallenge
	}
	if now.Unix() >= m.Pending.ChallengeDeadline {
		return ErrChallengePeriodOver
	}
	if m.ChallengeBond == 0 && !zeroBondChallenges {
		return ErrChallengeDisabled
	}
	if bond != m.ChallengeBond {
		return ErrBondMismatch
	}

	m.Pending.Challenger = caller
	m.Pending.ChallengedAt = now.Unix()
	m.Pending.Bond = bond
	m.Status = MarketStatusChallenged
	return nil
}

// FinalizeResolution settles an unchallenged proposal once the challenge
// deadline is reached. It returns false without error if the market was
// already finalized.
func (m *Market) FinalizeResolution(now time.Time) (bool, error) {
	if m.Status == MarketStatusResolved {
		if m.Resolution.Path == ResolutionPathFinalized {
			return false, nil
		}
		return false, ErrMarketAlreadyResolved
	}
	if m.Status == MarketStatusChallenged {
		return false, ErrMarketChallenged
	}
	if m.Status != MarketStatusPendingResolution {
		return false, ErrMarketNotPendingResolution
	}
	if now.Unix() < m.Pending.ChallengeDeadline {
		return false, ErrChallengePeriodNotOver
	}

	m.resolve(m.Pending.Outcome, ResolutionPathFinalized, now)
	return true, nil
}

// ResolveDispute makes the adjudicator outcome final and assigns the bond
// to the proposer if it was right, to the challenger otherwise.
func (m *Market) ResolveDispute(
	caller, fallbackAuthority string, outcome bool, now time.Time,
) error {
	adjudicator := m.Adjudicator(fallbackAuthority)
	if adjudicator == "" || caller != adjudicator {
		return ErrNotAdjudicator
	}
	if m.Status != MarketStatusChallenged {
		if m.Status == MarketStatusResolved {
			return ErrMarketAlreadyResolved
		}
		return ErrMarketNotChallenged
	}

	m.resolve(outcome, ResolutionPathAdjudicated, now)
	m.Resolution.BondRecipient = m.Pending.Challenger
	if outcome == m.Pending.Outcome {
		m.Resolution.BondRecipient = m.Pending.Proposer
	}
	return nil
}

// PegToOracleCondition binds the market to an oracle condition. Only the
// creator can do it, only once and only while the market is Active.
func (m *Market) PegToOracleCondition(
	caller, oracleID, conditionID string, now time.Time,
) error {
	if caller != m.Creator {
		return ErrNotCreator
	}
	if m.IsPegged() {
		return ErrMarketAlreadyPegged
	}
	if m.Status != MarketStatusActive {
		return ErrMarketNotActive
	}
	if oracleID == "" || conditionID == "" {
		return fmt.Errorf("%w: missing oracle or condition id", ErrInvalidMarket)
	}

	m.Peg = &OraclePeg{
		OracleID:    oracleID,
		ConditionID: conditionID,
		PeggedAt:    now.Unix(),
	}
	return nil
}

// ResolveFromOracle settles a pegged market with the outcome of its oracle
// condition, bypassing proposal and challenge. The resolution takes the
// timestamp at which the condition resolved.
func (m *Market) ResolveFromOracle(outcome bool, resolvedAt time.Time) error {
	if !m.IsPegged() {
		return ErrMarketNotPegged
	}
	if m.Status != MarketStatusActive {
		if m.Status == MarketStatusResolved {
			return ErrMarketAlreadyResolved
		}
		return ErrMarketNotActive
	}

	m.resolve(outcome, ResolutionPathOracle, resolvedAt)
	return nil
}

// Payouts returns the amounts each party is entitled to once the market is
// resolved. The staked pool goes to the accepted participants backing the
// outcome, pro-rata to their stake, with the integer remainder assigned to
// the first winner. Without winners every staker gets its stake back. The
// challenge bond, if any, goes to the bond recipient.
func (m *Market) Payouts() (map[string]uint64, error) {
	if m.Status != MarketStatusResolved {
		return nil, ErrMarketNotResolved
	}

	payouts := make(map[string]uint64)
	if m.Resolution.Draw {
		for _, a := range m.Acceptances {
			payouts[a.Participant] += a.Amount
		}
	} else {
		pool := decimalFromUint64(m.TotalStaked())
		winnersStake := decimal.Zero
		for _, w := range m.Resolution.Winners {
			a, _ := m.acceptance(w)
			winnersStake = winnersStake.Add(decimalFromUint64(a.Amount))
		}

		var distributed uint64
		for _, w := range m.Resolution.Winners {
			a, _ := m.acceptance(w)
			share, _ := pool.Mul(decimalFromUint64(a.Amount)).QuoRem(winnersStake, 0)
			amount := share.BigInt().Uint64()
			payouts[w] += amount
			distributed += amount
		}
		payouts[m.Resolution.Winner] += m.TotalStaked() - distributed
	}

	if m.Resolution.BondRecipient != "" && m.Pending != nil && m.Pending.Bond > 0 {
		payouts[m.Resolution.BondRecipient] += m.Pending.Bond
	}
	return payouts, nil
}

func (m *Market) resolve(outcome bool, path ResolutionPath, now time.Time) {
	winners := m.winners(outcome)
	resolution := &Resolution{
		Outcome:    outcome,
		Winners:    winners,
		Draw:       len(winners) == 0,
		Path:       path,
		ResolvedAt: now.Unix(),
	}
	if !resolution.Draw {
		resolution.Winner = winners[0]
	}

	m.Resolution = resolution
	m.Status = MarketStatusResolved
	m.ClosedAt = now.Unix()
}

// winners returns the accepted participants backing the given outcome in
// participant order.
func (m *Market) winners(outcome bool) []string {
	winners := make([]string, 0)
	for _, p := range m.Participants {
		if p.Position != outcome || !m.HasAccepted(p.Address) {
			continue
		}
		winners = append(winners, p.Address)
	}
	return winners
}

func (m *Market) canPropose(caller string) error {
	if !m.IsParticipant(caller) {
		return ErrNotParticipant
	}

	switch m.Policy {
	case PolicyEither:
		return nil
	case PolicyInitiatorOnly:
		if caller == m.Creator {
			return nil
		}
	case PolicyReceiverOnly:
		if caller != m.Creator {
			return nil
		}
	case PolicyThirdParty:
		if caller == m.Arbitrator {
			return nil
		}
	case PolicyAutoPegged:
		return ErrHumanResolutionDisabled
	}
	return ErrNotAuthorized
}

func (m *Market) participant(addr string) (Participant, bool) {
	for _, p := range m.Participants {
		if p.Address == addr {
			return p, true
		}
	}
	return Participant{}, false
}

func (m *Market) acceptance(addr string) (Acceptance, bool) {
	for _, a := range m.Acceptances {
		if a.Participant == addr {
			return a, true
		}
	}
	return Acceptance{}, false
}

func decimalFromUint64(n uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0)
}
