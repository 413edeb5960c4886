package domain

import "errors"

// ErrorCategory groups protocol errors by how a caller can react to them.
type ErrorCategory int

const (
	CategoryUnknown ErrorCategory = iota
	// CategoryAuthorization errors are never retryable by the same caller.
	CategoryAuthorization
	// CategoryTemporal errors depend on a deadline and may succeed later.
	CategoryTemporal
	// CategoryState errors mean the market is not in the required status.
	CategoryState
	// CategoryValue errors can be retried with corrected input.
	CategoryValue
	// CategoryExternal errors come from a collaborator and can be retried
	// once its state changes.
	CategoryExternal
	// CategoryNotFound is returned for unknown markets or oracles.
	CategoryNotFound
)

var categoryToString = map[ErrorCategory]string{
	CategoryUnknown:       "UNKNOWN",
	CategoryAuthorization: "AUTHORIZATION",
	CategoryTemporal:      "TEMPORAL",
	CategoryState:         "STATE",
	CategoryValue:         "VALUE",
	CategoryExternal:      "EXTERNAL",
	CategoryNotFound:      "NOT_FOUND",
}

func (c ErrorCategory) String() string {
	return categoryToString[c]
}

var (
	// authorization

	// ErrNotParticipant is returned if the caller is not in the authorized set.
	ErrNotParticipant = errors.New("caller is not a participant of the market")
	// ErrNotAuthorized is returned if the resolution policy forbids the caller
	// to propose.
	ErrNotAuthorized = errors.New("caller is not authorized by the market resolution policy")
	// ErrHumanResolutionDisabled is returned when proposing on an auto-pegged
	// market.
	ErrHumanResolutionDisabled = errors.New("market can only be resolved by an oracle")
	// ErrProposerCannotChallenge ...
	ErrProposerCannotChallenge = errors.New("proposer cannot challenge its own proposal")
	// ErrNotAdjudicator ...
	ErrNotAdjudicator = errors.New("caller is not the adjudicator of the market")
	// ErrNotCreator ...
	ErrNotCreator = errors.New("caller is not the creator of the market")
	// ErrCreationNotAllowed is returned if the membership gate denies the
	// creator.
	ErrCreationNotAllowed = errors.New("creator is not allowed to create markets")

	// temporal

	// ErrAcceptanceDeadlinePassed ...
	ErrAcceptanceDeadlinePassed = errors.New("acceptance deadline has passed")
	// ErrAcceptanceDeadlineNotReached ...
	ErrAcceptanceDeadlineNotReached = errors.New("acceptance deadline not reached yet")
	// ErrChallengePeriodOver ...
	ErrChallengePeriodOver = errors.New("challenge period is over")
	// ErrChallengePeriodNotOver ...
	ErrChallengePeriodNotOver = errors.New("challenge period is not over yet")

	// state

	// ErrMarketNotPendingAcceptance ...
	ErrMarketNotPendingAcceptance = errors.New("market is not pending acceptance")
	// ErrMarketNotActive ...
	ErrMarketNotActive = errors.New("market is not active")
	// ErrMarketNotPendingResolution ...
	ErrMarketNotPendingResolution = errors.New("market has no pending resolution")
	// ErrMarketChallenged is returned when finalizing a challenged proposal.
	ErrMarketChallenged = errors.New("pending resolution has been challenged")
	// ErrMarketNotChallenged ...
	ErrMarketNotChallenged = errors.New("market is not challenged")
	// ErrMarketAlreadyResolved ...
	ErrMarketAlreadyResolved = errors.New("market is already resolved")
	// ErrMarketNotResolved ...
	ErrMarketNotResolved = errors.New("market is not resolved yet")
	// ErrMarketPegged is returned when proposing on a market bound to an
	// oracle condition.
	ErrMarketPegged = errors.New("market is pegged to an oracle condition")
	// ErrMarketAlreadyPegged ...
	ErrMarketAlreadyPegged = errors.New("market is already pegged")
	// ErrMarketNotPegged ...
	ErrMarketNotPegged = errors.New("market is not pegged to any oracle condition")
	// ErrAlreadyAccepted ...
	ErrAlreadyAccepted = errors.New("participant has already accepted")
	// ErrAlreadyClaimed ...
	ErrAlreadyClaimed = errors.New("payout already claimed")
	// ErrChallengeDisabled is returned when challenging a zero-bond market
	// while zero-bond challenges are turned off.
	ErrChallengeDisabled = errors.New("challenges are disabled for zero-bond markets")
	// ErrConditionAlreadyResolved is returned when pegging a market to an
	// oracle condition whose outcome is already known.
	ErrConditionAlreadyResolved = errors.New("oracle condition is already resolved")

	// value

	// ErrStakeMismatch ...
	ErrStakeMismatch = errors.New("stake does not match the required amount")
	// ErrBondMismatch ...
	ErrBondMismatch = errors.New("bond does not match the required amount")
	// ErrInvalidMarket is returned for malformed creation arguments.
	ErrInvalidMarket = errors.New("invalid market")
	// ErrInvalidChallengeWindow ...
	ErrInvalidChallengeWindow = errors.New("challenge window is out of range")
	// ErrInvalidAllocation is returned if a settlement does not release
	// exactly the locked funds.
	ErrInvalidAllocation = errors.New("settlement does not match locked funds")

	// external

	// ErrConditionNotResolved ...
	ErrConditionNotResolved = errors.New("oracle condition is not resolved yet")
	// ErrConditionNotSupported ...
	ErrConditionNotSupported = errors.New("oracle condition is not supported")
	// ErrOracleConfidenceTooLow ...
	ErrOracleConfidenceTooLow = errors.New("oracle outcome confidence is below the required threshold")
	// ErrInstrumentDeploymentFailed is returned along with a refunded market
	// when the conditional instrument could not be deployed on activation.
	ErrInstrumentDeploymentFailed = errors.New("instrument deployment failed, market refunded")
	// ErrAssetTransferFailed ...
	ErrAssetTransferFailed = errors.New("asset transfer failed")

	// not found

	// ErrMarketNotFound ...
	ErrMarketNotFound = errors.New("market not found")
	// ErrEscrowNotFound ...
	ErrEscrowNotFound = errors.New("escrow not found")
	// ErrOracleNotFound ...
	ErrOracleNotFound = errors.New("oracle not found")
)

var errorCategories = []struct {
	err      error
	category ErrorCategory
}{
	{ErrNotParticipant, CategoryAuthorization},
	{ErrNotAuthorized, CategoryAuthorization},
	{ErrHumanResolutionDisabled, CategoryAuthorization},
	{ErrProposerCannotChallenge, CategoryAuthorization},
	{ErrNotAdjudicator, CategoryAuthorization},
	{ErrNotCreator, CategoryAuthorization},
	{ErrCreationNotAllowed, CategoryAuthorization},
	{ErrAcceptanceDeadlinePassed, CategoryTemporal},
	{ErrAcceptanceDeadlineNotReached, CategoryTemporal},
	{ErrChallengePeriodOver, CategoryTemporal},
	{ErrChallengePeriodNotOver, CategoryTemporal},
	{ErrMarketNotPendingAcceptance, CategoryState},
	{ErrMarketNotActive, CategoryState},
	{ErrMarketNotPendingResolution, CategoryState},
	{ErrMarketChallenged, CategoryState},
	{ErrMarketNotChallenged, CategoryState},
	{ErrMarketAlreadyResolved, CategoryState},
	{ErrMarketNotResolved, CategoryState},
	{ErrMarketPegged, CategoryState},
	{ErrMarketAlreadyPegged, CategoryState},
	{ErrMarketNotPegged, CategoryState},
	{ErrAlreadyAccepted, CategoryState},
	{ErrAlreadyClaimed, CategoryState},
	{ErrChallengeDisabled, CategoryState},
	{ErrConditionAlreadyResolved, CategoryState},
	{ErrStakeMismatch, CategoryValue},
	{ErrBondMismatch, CategoryValue},
	{ErrInvalidMarket, CategoryValue},
	{ErrInvalidChallengeWindow, CategoryValue},
	{ErrInvalidAllocation, CategoryValue},
	{ErrConditionNotResolved, CategoryExternal},
	{ErrConditionNotSupported, CategoryExternal},
	{ErrOracleConfidenceTooLow, CategoryExternal},
	{ErrInstrumentDeploymentFailed, CategoryExternal},
	{ErrAssetTransferFailed, CategoryExternal},
	{ErrMarketNotFound, CategoryNotFound},
	{ErrEscrowNotFound, CategoryNotFound},
	{ErrOracleNotFound, CategoryNotFound},
}

// CategoryOf returns the category of the given error, following wrapped
// errors.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}
	for _, c := range errorCategories {
		if errors.Is(err, c.err) {
			return c.category
		}
	}
	return CategoryUnknown
}
