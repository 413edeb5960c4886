package dbbadger

import "errors"

var (
	// ErrMarketInvalidRequest ...
	ErrMarketInvalidRequest = errors.New("requested market is null")
	// ErrMarketAlreadyExists ...
	ErrMarketAlreadyExists = errors.New("market already exists")
	// ErrEscrowAlreadyExists ...
	ErrEscrowAlreadyExists = errors.New("escrow already exists")
)
