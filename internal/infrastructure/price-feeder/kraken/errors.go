package krakenfeeder

import "errors"

var (
	// ErrPriceNotAvailable is returned if no price has been received yet for
	// the requested ticker.
	ErrPriceNotAvailable = errors.New("price not available for ticker")
	// ErrNoTickers ...
	ErrNoTickers = errors.New("at least one ticker must be subscribed")
)
