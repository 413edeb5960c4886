package custodyinmemory

import "errors"

var (
	// ErrUnknownAsset is returned when moving a fungible token that was never
	// registered.
	ErrUnknownAsset = errors.New("unknown asset")
	// ErrInsufficientBalance ...
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientHoldings is returned if custody does not hold enough of
	// an asset to cover a disbursement.
	ErrInsufficientHoldings = errors.New("custody does not hold enough funds")
	// ErrInvalidTransfer ...
	ErrInvalidTransfer = errors.New("invalid transfer")
	// ErrAmountOverflow ...
	ErrAmountOverflow = errors.New("amount overflows balance")
)
