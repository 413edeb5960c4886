package domain

import "time"

const (
	MarketStatusUndefined MarketStatus = iota
	MarketStatusPendingAcceptance
	MarketStatusActive
	MarketStatusPendingResolution
	MarketStatusChallenged
	MarketStatusResolved
	MarketStatusCancelled
	MarketStatusRefunded
)

const (
	MarketKindBilateral MarketKind = iota
	MarketKindGroup
)

const (
	// PolicyEither lets any participant propose, disputes go to the fallback
	// authority.
	PolicyEither ResolutionPolicy = iota
	// PolicyInitiatorOnly lets only the creator propose.
	PolicyInitiatorOnly
	// PolicyReceiverOnly lets any participant but the creator propose.
	PolicyReceiverOnly
	// PolicyThirdParty makes the named arbitrator the only proposer and the
	// adjudicator.
	PolicyThirdParty
	// PolicyAutoPegged disables human proposals, the market can only settle
	// through an oracle peg.
	PolicyAutoPegged
)

const (
	ResolutionPathFinalized ResolutionPath = iota
	ResolutionPathAdjudicated
	ResolutionPathOracle
)

const (
	// MaxConfidenceBp is the confidence, in basis points, of a fully certain
	// oracle outcome.
	MaxConfidenceBp = 10000

	bilateralParticipants = 2
	minGroupParticipants  = 3
	minAcceptanceQuorum   = 2
)

var (
	// MinChallengeWindow and MaxChallengeWindow bound the challenge window
	// that can be configured for a market.
	MinChallengeWindow = time.Hour
	MaxChallengeWindow = 7 * 24 * time.Hour
	// MaxGroupParticipants caps the size of the participant set of a group
	// market.
	MaxGroupParticipants = 16
)

var (
	statusToString = map[MarketStatus]string{
		MarketStatusUndefined:         "UNDEFINED",
		MarketStatusPendingAcceptance: "PENDING_ACCEPTANCE",
		MarketStatusActive:            "ACTIVE",
		MarketStatusPendingResolution: "PENDING_RESOLUTION",
		MarketStatusChallenged:        "CHALLENGED",
		MarketStatusResolved:          "RESOLVED",
		MarketStatusCancelled:         "CANCELLED",
		MarketStatusRefunded:          "REFUNDED",
	}
	stringToStatus = reverse(statusToString)

	kindToString = map[MarketKind]string{
		MarketKindBilateral: "BILATERAL",
		MarketKindGroup:     "GROUP",
	}
	stringToKind = reverse(kindToString)

	policyToString = map[ResolutionPolicy]string{
		PolicyEither:        "EITHER",
		PolicyInitiatorOnly: "INITIATOR_ONLY",
		PolicyReceiverOnly:  "RECEIVER_ONLY",
		PolicyThirdParty:    "THIRD_PARTY",
		PolicyAutoPegged:    "AUTO_PEGGED",
	}
	stringToPolicy = reverse(policyToString)

	pathToString = map[ResolutionPath]string{
		ResolutionPathFinalized:   "FINALIZED",
		ResolutionPathAdjudicated: "ADJUDICATED",
		ResolutionPathOracle:      "ORACLE",
	}
)

func reverse[K comparable](m map[K]string) map[string]K {
	r := make(map[string]K, len(m))
	for k, v := range m {
		r[v] = k
	}
	return r
}
