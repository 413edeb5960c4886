package manual_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
	"github.com/tdex-network/wager-daemon/internal/infrastructure/oracle/manual"
	oraclestore "github.com/tdex-network/wager-daemon/internal/infrastructure/oracle/store"
)

var (
	ctx       = context.Background()
	now       = time.Unix(1700000000, 0)
	attesters = []string{"a1", "a2", "a3", "a4"}
)

func TestNewAdapter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		attesters   []string
		quorum      int
		expectedErr error
	}{
		{"valid", attesters, 3, nil},
		{"unanimity", attesters, 4, nil},
		{"no attesters", nil, 1, manual.ErrInvalidAttesters},
		{"duplicate attester", []string{"a1", "a1"}, 1, manual.ErrInvalidAttesters},
		{"empty attester", []string{"a1", ""}, 1, manual.ErrInvalidAttesters},
		{"zero quorum", attesters, 0, manual.ErrInvalidQuorum},
		{"quorum too high", attesters, 5, manual.ErrInvalidQuorum},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a, err := manual.NewAdapter(tt.attesters, tt.quorum, nil)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				require.Nil(t, a)
				return
			}
			require.NoError(t, err)
			require.Equal(t, ports.OracleKindManual, a.Kind())
		})
	}
}

func TestAttest(t *testing.T) {
	t.Parallel()

	a, err := manual.NewAdapter(attesters, 3, func() time.Time { return now })
	require.NoError(t, err)
	require.NoError(t, a.AddCondition("match-1", "home team wins", now))
	require.ErrorIs(
		t, a.AddCondition("match-1", "", now), manual.ErrConditionAlreadyExists,
	)

	_, err = a.Attest(ctx, "match-1", "stranger", true)
	require.ErrorIs(t, err, manual.ErrNotAttester)

	_, err = a.Attest(ctx, "unknown", "a1", true)
	require.ErrorIs(t, err, manual.ErrConditionNotFound)

	c, err := a.Attest(ctx, "match-1", "a1", true)
	require.NoError(t, err)
	require.False(t, c.Resolved)

	_, err = a.Attest(ctx, "match-1", "a1", false)
	require.ErrorIs(t, err, manual.ErrAlreadyAttested)

	_, err = a.Attest(ctx, "match-1", "a2", false)
	require.NoError(t, err)
	_, err = a.Attest(ctx, "match-1", "a3", true)
	require.NoError(t, err)

	resolved, err := a.IsConditionResolved(ctx, "match-1")
	require.NoError(t, err)
	require.False(t, resolved)
	_, err = a.GetOutcome(ctx, "match-1")
	require.ErrorIs(t, err, domain.ErrConditionNotResolved)

	c, err = a.Attest(ctx, "match-1", "a4", true)
	require.NoError(t, err)
	require.True(t, c.Resolved)
	require.Len(t, c.Votes, 4)

	outcome, err := a.GetOutcome(ctx, "match-1")
	require.NoError(t, err)
	require.True(t, outcome.Outcome)
	require.Equal(t, uint16(7500), outcome.ConfidenceBp)
	require.Equal(t, now, outcome.ResolvedAt)

	meta, err := a.GetConditionMetadata(ctx, "match-1")
	require.NoError(t, err)
	require.Equal(t, "home team wins", meta.Description)
}

func TestAttestAfterResolution(t *testing.T) {
	t.Parallel()

	a, err := manual.NewAdapter(attesters, 2, nil)
	require.NoError(t, err)
	require.NoError(t, a.AddCondition("c", "", now))

	_, err = a.Attest(ctx, "c", "a1", false)
	require.NoError(t, err)
	c, err := a.Attest(ctx, "c", "a2", false)
	require.NoError(t, err)
	require.True(t, c.Resolved)
	require.False(t, c.Outcome)
	require.Equal(t, uint16(5000), c.ConfidenceBp)

	_, err = a.Attest(ctx, "c", "a3", true)
	require.ErrorIs(t, err, manual.ErrConditionResolved)

	supported, err := a.IsConditionSupported(ctx, "c")
	require.NoError(t, err)
	require.True(t, supported)
}

func TestAttestationsSurviveRestart(t *testing.T) {
	datadir := t.TempDir()

	store, err := oraclestore.NewBadgerStore[manual.Condition](datadir, nil)
	require.NoError(t, err)
	a, err := manual.NewAdapterWithStore(store, attesters, 2, nil)
	require.NoError(t, err)
	require.NoError(t, a.AddCondition("c", "", now))
	_, err = a.Attest(ctx, "c", "a1", true)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	store, err = oraclestore.NewBadgerStore[manual.Condition](datadir, nil)
	require.NoError(t, err)
	a, err = manual.NewAdapterWithStore(store, attesters, 2, nil)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Attest(ctx, "c", "a1", true)
	require.ErrorIs(t, err, manual.ErrAlreadyAttested)

	c, err := a.Attest(ctx, "c", "a2", true)
	require.NoError(t, err)
	require.True(t, c.Resolved)

	resolved, err := a.IsConditionResolved(ctx, "c")
	require.NoError(t, err)
	require.True(t, resolved)
}
