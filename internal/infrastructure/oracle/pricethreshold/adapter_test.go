package pricethreshold_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
	"github.com/tdex-network/wager-daemon/internal/infrastructure/oracle/pricethreshold"
	oraclestore "github.com/tdex-network/wager-daemon/internal/infrastructure/oracle/store"
)

const ticker = "XBT/USDT"

var (
	ctx      = context.Background()
	deadline = time.Unix(1700000000, 0)
)

func newCondition(id string, cmp pricethreshold.Comparison) pricethreshold.Condition {
	return pricethreshold.Condition{
		ID:         id,
		Ticker:     ticker,
		Target:     decimal.NewFromInt(40000),
		Comparison: cmp,
		Deadline:   deadline,
	}
}

func TestAddCondition(t *testing.T) {
	t.Parallel()

	a := pricethreshold.NewAdapter(pricethreshold.NewStaticPriceSource(), 0, nil)
	require.NoError(t, a.AddCondition(newCondition("btc-40k", pricethreshold.GreaterOrEqual)))

	err := a.AddCondition(newCondition("btc-40k", pricethreshold.LessOrEqual))
	require.ErrorIs(t, err, pricethreshold.ErrConditionAlreadyExists)

	invalid := []pricethreshold.Condition{
		{},
		{ID: "a", Target: decimal.NewFromInt(1), Deadline: deadline},
		{ID: "a", Ticker: ticker, Deadline: deadline},
		{ID: "a", Ticker: ticker, Target: decimal.NewFromInt(1), Comparison: 5, Deadline: deadline},
		{ID: "a", Ticker: ticker, Target: decimal.NewFromInt(1)},
	}
	for _, c := range invalid {
		require.ErrorIs(t, a.AddCondition(c), pricethreshold.ErrInvalidCondition)
	}

	supported, err := a.IsConditionSupported(ctx, "btc-40k")
	require.NoError(t, err)
	require.True(t, supported)

	supported, err = a.IsConditionSupported(ctx, "unknown")
	require.NoError(t, err)
	require.False(t, supported)

	meta, err := a.GetConditionMetadata(ctx, "btc-40k")
	require.NoError(t, err)
	require.Equal(t, deadline, meta.ExpectedResolutionTime)
	require.Contains(t, meta.Description, "XBT/USDT >= 40000")
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		comparison      pricethreshold.Comparison
		price           int64
		observedAt      time.Time
		now             time.Time
		expectedOutcome bool
		expectedErr     error
	}{
		{
			name:            "above target",
			comparison:      pricethreshold.GreaterOrEqual,
			price:           41000,
			observedAt:      deadline.Add(time.Second),
			now:             deadline.Add(time.Minute),
			expectedOutcome: true,
		},
		{
			name:            "equal to target",
			comparison:      pricethreshold.GreaterOrEqual,
			price:           40000,
			observedAt:      deadline,
			now:             deadline,
			expectedOutcome: true,
		},
		{
			name:            "below target",
			comparison:      pricethreshold.GreaterOrEqual,
			price:           39000,
			observedAt:      deadline,
			now:             deadline.Add(time.Minute),
			expectedOutcome: false,
		},
		{
			name:            "less or equal",
			comparison:      pricethreshold.LessOrEqual,
			price:           39000,
			observedAt:      deadline,
			now:             deadline.Add(time.Minute),
			expectedOutcome: true,
		},
		{
			name:        "deadline not reached",
			comparison:  pricethreshold.GreaterOrEqual,
			price:       41000,
			observedAt:  deadline.Add(-time.Minute),
			now:         deadline.Add(-time.Second),
			expectedErr: pricethreshold.ErrDeadlineNotReached,
		},
		{
			name:        "stale price",
			comparison:  pricethreshold.GreaterOrEqual,
			price:       41000,
			observedAt:  deadline,
			now:         deadline.Add(pricethreshold.DefaultMaxStaleness + time.Second),
			expectedErr: pricethreshold.ErrStalePrice,
		},
		{
			name:        "price before deadline",
			comparison:  pricethreshold.GreaterOrEqual,
			price:       41000,
			observedAt:  deadline.Add(-time.Second),
			now:         deadline.Add(time.Second),
			expectedErr: pricethreshold.ErrPriceBeforeDeadline,
		},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			source := pricethreshold.NewStaticPriceSource()
			source.SetPrice(ticker, decimal.NewFromInt(tt.price), tt.observedAt)
			a := pricethreshold.NewAdapter(source, 0, func() time.Time { return tt.now })
			require.NoError(t, a.AddCondition(newCondition("c", tt.comparison)))

			outcome, err := a.Resolve(ctx, "c")
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)

				resolved, err := a.IsConditionResolved(ctx, "c")
				require.NoError(t, err)
				require.False(t, resolved)

				_, err = a.GetOutcome(ctx, "c")
				require.ErrorIs(t, err, domain.ErrConditionNotResolved)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expectedOutcome, outcome.Outcome)
			require.Equal(t, uint16(domain.MaxConfidenceBp), outcome.ConfidenceBp)
			require.Equal(t, tt.now, outcome.ResolvedAt)

			resolved, err := a.IsConditionResolved(ctx, "c")
			require.NoError(t, err)
			require.True(t, resolved)

			got, err := a.GetOutcome(ctx, "c")
			require.NoError(t, err)
			require.Equal(t, outcome, got)

			c, err := a.GetCondition("c")
			require.NoError(t, err)
			require.True(t, c.ObservedPrice.Equal(decimal.NewFromInt(tt.price)))
		})
	}
}

func TestResolveIsFinal(t *testing.T) {
	t.Parallel()

	now := deadline
	source := pricethreshold.NewStaticPriceSource()
	source.SetPrice(ticker, decimal.NewFromInt(41000), deadline)
	a := pricethreshold.NewAdapter(source, time.Hour, func() time.Time { return now })
	require.NoError(t, a.AddCondition(newCondition("c", pricethreshold.GreaterOrEqual)))

	first, err := a.Resolve(ctx, "c")
	require.NoError(t, err)
	require.True(t, first.Outcome)

	now = deadline.Add(time.Minute)
	source.SetPrice(ticker, decimal.NewFromInt(1), now)
	second, err := a.Resolve(ctx, "c")
	require.NoError(t, err)
	require.Equal(t, first, second)

	_, err = a.Resolve(ctx, "unknown")
	require.ErrorIs(t, err, pricethreshold.ErrConditionNotFound)
}

func TestResolutionSurvivesRestart(t *testing.T) {
	datadir := t.TempDir()
	now := deadline
	clock := func() time.Time { return now }
	source := pricethreshold.NewStaticPriceSource()

	store, err := oraclestore.NewBadgerStore[pricethreshold.Condition](datadir, nil)
	require.NoError(t, err)
	a := pricethreshold.NewAdapterWithStore(store, source, time.Hour, clock)
	require.NoError(t, a.AddCondition(newCondition("pending", pricethreshold.GreaterOrEqual)))
	require.NoError(t, a.AddCondition(newCondition("resolved", pricethreshold.GreaterOrEqual)))

	source.SetPrice(ticker, decimal.NewFromInt(41000), deadline)
	_, err = a.Resolve(ctx, "resolved")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	store, err = oraclestore.NewBadgerStore[pricethreshold.Condition](datadir, nil)
	require.NoError(t, err)
	a = pricethreshold.NewAdapterWithStore(store, source, time.Hour, clock)
	defer a.Close()

	supported, err := a.IsConditionSupported(ctx, "pending")
	require.NoError(t, err)
	require.True(t, supported)

	resolved, err := a.IsConditionResolved(ctx, "resolved")
	require.NoError(t, err)
	require.True(t, resolved)

	// a later reading must not change a resolved condition.
	now = deadline.Add(time.Minute)
	source.SetPrice(ticker, decimal.NewFromInt(1), now)
	outcome, err := a.GetOutcome(ctx, "resolved")
	require.NoError(t, err)
	require.True(t, outcome.Outcome)

	outcome, err = a.Resolve(ctx, "pending")
	require.NoError(t, err)
	require.False(t, outcome.Outcome)
}

func TestKind(t *testing.T) {
	a := pricethreshold.NewAdapter(pricethreshold.NewStaticPriceSource(), 0, nil)
	require.Equal(t, ports.OracleKindPriceThreshold, a.Kind())
}
