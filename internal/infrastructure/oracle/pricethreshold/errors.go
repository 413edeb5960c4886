package pricethreshold

import "errors"

var (
	// ErrConditionNotFound ...
	ErrConditionNotFound = errors.New("condition not found")
	// ErrConditionAlreadyExists ...
	ErrConditionAlreadyExists = errors.New("condition already exists")
	// ErrInvalidCondition ...
	ErrInvalidCondition = errors.New("invalid condition")
	// ErrDeadlineNotReached ...
	ErrDeadlineNotReached = errors.New("condition deadline not reached yet")
	// ErrStalePrice is returned if the latest price reading is older than the
	// configured staleness bound.
	ErrStalePrice = errors.New("price reading is stale")
	// ErrPriceBeforeDeadline is returned if the latest price reading was
	// taken before the condition deadline.
	ErrPriceBeforeDeadline = errors.New("price reading precedes condition deadline")
)
