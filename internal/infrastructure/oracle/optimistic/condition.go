package optimistic

import "time"

// Condition is a question answered by a bonded assertion that stands unless
// disputed within the liveness window.
type Condition struct {
	ID                     string
	Description            string
	ExpectedResolutionTime time.Time

	Asserter         string
	AssertedOutcome  bool
	Bond             uint64
	BondAsset        string
	AssertedAt       time.Time
	LivenessDeadline time.Time

	Disputer   string
	DisputedAt time.Time

	Settled      bool
	Outcome      bool
	ConfidenceBp uint16
	SettledAt    time.Time
}

func (c Condition) IsAsserted() bool {
	return len(c.Asserter) > 0
}

func (c Condition) IsDisputed() bool {
	return len(c.Disputer) > 0
}
