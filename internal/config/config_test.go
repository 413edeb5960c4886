package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/wager-daemon/internal/config"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
)

func TestInitConfig(t *testing.T) {
	datadir := t.TempDir()
	t.Setenv("WAGER_DATADIR", datadir)
	t.Setenv("WAGER_JWT_SECRET", "secret")
	t.Setenv("WAGER_FALLBACK_AUTHORITY", "authority")
	t.Setenv("WAGER_MAX_GROUP_PARTICIPANTS", "8")

	require.NoError(t, config.InitConfig())

	require.Equal(t, datadir, config.GetDatadir())
	require.Equal(t, "badger", config.GetString(config.DBTypeKey))
	require.Equal(t, 24*time.Hour, config.GetDuration(config.DefaultChallengeWindowKey))
	require.Equal(t, 9000, config.GetInt(config.MinOracleConfidenceBpKey))
	require.Equal(t, 8, domain.MaxGroupParticipants)
	require.DirExists(t, filepath.Join(datadir, config.DbLocation))
	require.DirExists(t, filepath.Join(datadir, config.WebhookLocation))
	require.NoDirExists(t, filepath.Join(datadir, config.ProfilerLocation))

	domain.MaxGroupParticipants = 16
}

func TestInitConfigFailing(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing jwt secret",
			env: map[string]string{
				"WAGER_FALLBACK_AUTHORITY": "authority",
			},
		},
		{
			name: "missing fallback authority",
			env: map[string]string{
				"WAGER_JWT_SECRET": "secret",
			},
		},
		{
			name: "unsupported db type",
			env: map[string]string{
				"WAGER_JWT_SECRET":         "secret",
				"WAGER_FALLBACK_AUTHORITY": "authority",
				"WAGER_DB_TYPE":            "postgres",
			},
		},
		{
			name: "default challenge window out of range",
			env: map[string]string{
				"WAGER_JWT_SECRET":               "secret",
				"WAGER_FALLBACK_AUTHORITY":       "authority",
				"WAGER_DEFAULT_CHALLENGE_WINDOW": "30m",
			},
		},
		{
			name: "confidence above max",
			env: map[string]string{
				"WAGER_JWT_SECRET":               "secret",
				"WAGER_FALLBACK_AUTHORITY":       "authority",
				"WAGER_MIN_ORACLE_CONFIDENCE_BP": "10001",
			},
		},
		{
			name: "manual quorum above attesters",
			env: map[string]string{
				"WAGER_JWT_SECRET":         "secret",
				"WAGER_FALLBACK_AUTHORITY": "authority",
				"WAGER_MANUAL_ATTESTERS":   "alice bob",
				"WAGER_MANUAL_QUORUM":      "3",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("WAGER_DATADIR", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			require.Error(t, config.InitConfig())
		})
	}
}
