package inmemory

import "errors"

var (
	// ErrMarketInvalidRequest ...
	ErrMarketInvalidRequest = errors.New("requested market is null")
	// ErrEscrowAlreadyExists ...
	ErrEscrowAlreadyExists = errors.New("escrow already exists")
)
