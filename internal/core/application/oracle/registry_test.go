package oracle_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/wager-daemon/internal/core/application/oracle"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
)

type stubAdapter struct {
	kind ports.OracleKind
}

func (s stubAdapter) Kind() ports.OracleKind { return s.kind }

func (stubAdapter) IsConditionSupported(context.Context, string) (bool, error) {
	return true, nil
}

func (stubAdapter) IsConditionResolved(context.Context, string) (bool, error) {
	return false, nil
}

func (stubAdapter) GetOutcome(context.Context, string) (ports.OracleOutcome, error) {
	return ports.OracleOutcome{}, domain.ErrConditionNotResolved
}

func (stubAdapter) GetConditionMetadata(
	context.Context, string,
) (ports.ConditionMetadata, error) {
	return ports.ConditionMetadata{}, nil
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := oracle.NewRegistry()
	require.Empty(t, r.List())

	require.NoError(t, r.Register("prices", stubAdapter{ports.OracleKindPriceThreshold}))
	require.NoError(t, r.Register("committee", stubAdapter{ports.OracleKindManual}))

	require.Error(t, r.Register("prices", stubAdapter{ports.OracleKindManual}))
	require.Error(t, r.Register("", stubAdapter{}))
	require.Error(t, r.Register("nil", nil))

	adapter, err := r.Get("prices")
	require.NoError(t, err)
	require.Equal(t, ports.OracleKindPriceThreshold, adapter.Kind())

	_, err = r.Get("unknown")
	require.ErrorIs(t, err, domain.ErrOracleNotFound)

	require.Equal(t, []ports.OracleInfo{
		{ID: "committee", Kind: ports.OracleKindManual},
		{ID: "prices", Kind: ports.OracleKindPriceThreshold},
	}, r.List())
}
