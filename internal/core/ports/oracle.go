package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OracleKind is the closed set of oracle variants an adapter can implement.
type OracleKind int

const (
	OracleKindPriceThreshold OracleKind = iota
	OracleKindOptimisticAssertion
	OracleKindManual
)

var oracleKindToString = map[OracleKind]string{
	OracleKindPriceThreshold:      "PRICE_THRESHOLD",
	OracleKindOptimisticAssertion: "OPTIMISTIC_ASSERTION",
	OracleKindManual:              "MANUAL",
}

func (k OracleKind) String() string {
	str, ok := oracleKindToString[k]
	if !ok {
		return "UNKNOWN"
	}
	return str
}

// OracleOutcome is the point-in-time result of a resolved condition.
type OracleOutcome struct {
	Outcome      bool
	ConfidenceBp uint16
	ResolvedAt   time.Time
}

type ConditionMetadata struct {
	Description            string
	ExpectedResolutionTime time.Time
}

// OracleAdapter wraps one external truth source. Adapters settle their
// conditions on their own, callers only poll them.
type OracleAdapter interface {
	Kind() OracleKind
	IsConditionSupported(ctx context.Context, conditionID string) (bool, error)
	IsConditionResolved(ctx context.Context, conditionID string) (bool, error)
	GetOutcome(ctx context.Context, conditionID string) (OracleOutcome, error)
	GetConditionMetadata(
		ctx context.Context, conditionID string,
	) (ConditionMetadata, error)
}

// OracleInfo describes a registered oracle.
type OracleInfo struct {
	ID   string
	Kind OracleKind
}

// OracleRegistry dispatches an oracle identifier to its adapter.
type OracleRegistry interface {
	Get(oracleID string) (OracleAdapter, error)
	List() []OracleInfo
}

// PriceReading is the latest price observed for a ticker.
type PriceReading struct {
	Ticker     string
	Price      decimal.Decimal
	ObservedAt time.Time
}

// PriceSource provides the latest price of a ticker to price-threshold
// oracles.
type PriceSource interface {
	LatestPrice(ctx context.Context, ticker string) (PriceReading, error)
}
