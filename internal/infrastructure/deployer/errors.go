package deployer

import "errors"

var (
	// ErrMissingURL ...
	ErrMissingURL = errors.New("missing deployer url")
	// ErrEmptyInstrumentID is returned if the remote deployer replies without
	// an instrument id.
	ErrEmptyInstrumentID = errors.New("deployer returned an empty instrument id")
)
