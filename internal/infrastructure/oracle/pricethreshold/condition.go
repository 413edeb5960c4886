package pricethreshold

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	GreaterOrEqual Comparison = iota
	LessOrEqual
)

// Comparison is how the observed price is compared with the target.
type Comparison int

func (c Comparison) String() string {
	switch c {
	case GreaterOrEqual:
		return ">="
	case LessOrEqual:
		return "<="
	default:
		return "UNKNOWN"
	}
}

func ComparisonFromString(str string) (Comparison, bool) {
	switch str {
	case ">=":
		return GreaterOrEqual, true
	case "<=":
		return LessOrEqual, true
	default:
		return 0, false
	}
}

// Condition resolves to true if the price of Ticker observed at Deadline
// satisfies the comparison with Target.
type Condition struct {
	ID          string
	Ticker      string
	Target      decimal.Decimal
	Comparison  Comparison
	Deadline    time.Time
	Description string

	Resolved      bool
	ObservedPrice decimal.Decimal
	Outcome       bool
	ResolvedAt    time.Time
}

func (c Condition) validate() error {
	if len(c.ID) <= 0 {
		return fmt.Errorf("%w: missing id", ErrInvalidCondition)
	}
	if len(c.Ticker) <= 0 {
		return fmt.Errorf("%w: missing ticker", ErrInvalidCondition)
	}
	if !c.Target.IsPositive() {
		return fmt.Errorf("%w: target must be positive", ErrInvalidCondition)
	}
	if c.Comparison != GreaterOrEqual && c.Comparison != LessOrEqual {
		return fmt.Errorf("%w: unknown comparison", ErrInvalidCondition)
	}
	if c.Deadline.IsZero() {
		return fmt.Errorf("%w: missing deadline", ErrInvalidCondition)
	}
	return nil
}

func (c Condition) evaluate(price decimal.Decimal) bool {
	if c.Comparison == LessOrEqual {
		return price.LessThanOrEqual(c.Target)
	}
	return price.GreaterThanOrEqual(c.Target)
}

func (c Condition) description() string {
	if len(c.Description) > 0 {
		return c.Description
	}
	return fmt.Sprintf(
		"%s %s %s at %s",
		c.Ticker, c.Comparison, c.Target, c.Deadline.UTC().Format(time.RFC3339),
	)
}
