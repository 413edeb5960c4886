package manual

import "errors"

var (
	// ErrInvalidAttesters ...
	ErrInvalidAttesters = errors.New("attester set must be non empty and without duplicates")
	// ErrInvalidQuorum ...
	ErrInvalidQuorum = errors.New("quorum must be between 1 and the number of attesters")
	// ErrConditionNotFound ...
	ErrConditionNotFound = errors.New("condition not found")
	// ErrConditionAlreadyExists ...
	ErrConditionAlreadyExists = errors.New("condition already exists")
	// ErrInvalidCondition ...
	ErrInvalidCondition = errors.New("invalid condition")
	// ErrNotAttester ...
	ErrNotAttester = errors.New("caller is not an attester")
	// ErrAlreadyAttested ...
	ErrAlreadyAttested = errors.New("attester has already voted")
	// ErrConditionResolved ...
	ErrConditionResolved = errors.New("condition is already resolved")
)
