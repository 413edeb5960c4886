package optimistic

import "errors"

var (
	// ErrConditionNotFound ...
	ErrConditionNotFound = errors.New("condition not found")
	// ErrConditionAlreadyExists ...
	ErrConditionAlreadyExists = errors.New("condition already exists")
	// ErrInvalidCondition ...
	ErrInvalidCondition = errors.New("invalid condition")
	// ErrAlreadyAsserted ...
	ErrAlreadyAsserted = errors.New("condition has already been asserted")
	// ErrNotAsserted ...
	ErrNotAsserted = errors.New("condition has not been asserted yet")
	// ErrBondTooLow ...
	ErrBondTooLow = errors.New("assertion bond is below the minimum")
	// ErrLivenessOver is returned when disputing after the liveness window.
	ErrLivenessOver = errors.New("assertion liveness is over")
	// ErrLivenessNotOver is returned when settling before the liveness window
	// elapsed.
	ErrLivenessNotOver = errors.New("assertion liveness is not over yet")
	// ErrAlreadyDisputed ...
	ErrAlreadyDisputed = errors.New("assertion has already been disputed")
	// ErrNotDisputed ...
	ErrNotDisputed = errors.New("assertion has not been disputed")
	// ErrSelfDispute ...
	ErrSelfDispute = errors.New("asserter cannot dispute its own assertion")
	// ErrMissingCustody ...
	ErrMissingCustody = errors.New("missing bond custody")
	// ErrMissingBondAsset ...
	ErrMissingBondAsset = errors.New("missing bond asset")
	// ErrAlreadySettled ...
	ErrAlreadySettled = errors.New("condition is already settled")
)
