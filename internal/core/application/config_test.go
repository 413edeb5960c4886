package application_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/wager-daemon/internal/core/application"
	"github.com/tdex-network/wager-daemon/internal/core/application/oracle"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/infrastructure/deployer"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *application.Config {
		return &application.Config{
			DBType:                 application.DBInMemory,
			Custody:                newTestCustody(),
			Deployer:               deployer.NewLocalDeployer(),
			Oracles:                oracle.NewRegistry(),
			DefaultChallengeWindow: time.Hour,
		}
	}

	tests := []struct {
		name        string
		config      func() *application.Config
		expectedErr error
	}{
		{
			name:        "unknown db type",
			config:      func() *application.Config { c := validConfig(); c.DBType = "pg"; return c },
			expectedErr: application.ErrUnknownDBType,
		},
		{
			name:        "missing custody",
			config:      func() *application.Config { c := validConfig(); c.Custody = nil; return c },
			expectedErr: application.ErrMissingCustody,
		},
		{
			name:        "missing deployer",
			config:      func() *application.Config { c := validConfig(); c.Deployer = nil; return c },
			expectedErr: application.ErrMissingDeployer,
		},
		{
			name:        "missing oracle registry",
			config:      func() *application.Config { c := validConfig(); c.Oracles = nil; return c },
			expectedErr: application.ErrMissingOracleRegistry,
		},
		{
			name: "challenge window out of range",
			config: func() *application.Config {
				c := validConfig()
				c.DefaultChallengeWindow = 8 * 24 * time.Hour
				return c
			},
			expectedErr: domain.ErrInvalidChallengeWindow,
		},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.config().Validate()
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		require.NoError(t, cfg.Validate())
		require.NotNil(t, cfg.RepoManagerService())
		require.Equal(t, cfg.MarketService(), cfg.MarketService())
		require.NotNil(t, cfg.Keeper())
	})

	t.Run("badger without datadir", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.DBType = application.DBBadger
		require.Error(t, cfg.Validate())

		cfg.DBConfig = t.TempDir()
		require.NoError(t, cfg.Validate())
		t.Cleanup(func() { cfg.RepoManagerService().Close() })
	})
}

func TestWebhookManagement(t *testing.T) {
	t.Parallel()

	cfg := &application.Config{}
	_, err := cfg.PubSubService().AddWebhook(ctx, "*", "http://localhost", "")
	require.ErrorIs(t, err, application.ErrPubSubNotInitialized)
}
