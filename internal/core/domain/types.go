package domain

// MarketStatus is the lifecycle stage of a market. Codes only ever grow, a
// market never moves back to a lower status.
type MarketStatus int

func (s MarketStatus) String() string {
	str, ok := statusToString[s]
	if !ok {
		return "UNKNOWN"
	}
	return str
}

// IsTerminal returns whether no further transition can happen.
func (s MarketStatus) IsTerminal() bool {
	return s >= MarketStatusResolved
}

func MarketStatusFromString(str string) (MarketStatus, bool) {
	s, ok := stringToStatus[str]
	return s, ok
}

type MarketKind int

func (k MarketKind) String() string {
	str, ok := kindToString[k]
	if !ok {
		return "UNKNOWN"
	}
	return str
}

func MarketKindFromString(str string) (MarketKind, bool) {
	k, ok := stringToKind[str]
	return k, ok
}

// ResolutionPolicy defines who may propose an outcome and who adjudicates a
// challenged proposal. It is fixed at creation.
type ResolutionPolicy int

func (p ResolutionPolicy) String() string {
	str, ok := policyToString[p]
	if !ok {
		return "UNKNOWN"
	}
	return str
}

func ResolutionPolicyFromString(str string) (ResolutionPolicy, bool) {
	p, ok := stringToPolicy[str]
	return p, ok
}

// ResolutionPath records which of the three settlement flows resolved a
// market.
type ResolutionPath int

func (p ResolutionPath) String() string {
	str, ok := pathToString[p]
	if !ok {
		return "UNKNOWN"
	}
	return str
}

// Participant is a member of the authorized set of a market along with the
// side of the proposition it backs.
type Participant struct {
	Address  string
	Position bool
}

// Acceptance is the stake locked by a participant joining the market.
type Acceptance struct {
	Participant string
	Amount      uint64
	AcceptedAt  int64
}

// PendingResolution is the optimistic proposal under challenge.
type PendingResolution struct {
	Outcome           bool
	Proposer          string
	ProposedAt        int64
	ChallengeDeadline int64
	Challenger        string
	ChallengedAt      int64
	Bond              uint64
}

func (p PendingResolution) IsChallenged() bool {
	return p.Challenger != ""
}

// Resolution is the final, immutable outcome of a market.
type Resolution struct {
	Outcome bool
	// Winner is the first winning participant, empty on a draw.
	Winner  string
	Winners []string
	Draw    bool
	Path    ResolutionPath
	// BondRecipient is set only for adjudicated disputes.
	BondRecipient string
	ResolvedAt    int64
}

// OraclePeg binds a market to an external oracle condition.
type OraclePeg struct {
	OracleID    string
	ConditionID string
	PeggedAt    int64
}
