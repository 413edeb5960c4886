package permissions_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/wager-daemon/internal/interfaces/http/permissions"
)

var secret = []byte("secret")

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		role     string
		required string
		allowed  bool
	}{
		{permissions.RoleParticipant, permissions.RoleParticipant, true},
		{permissions.RoleOperator, permissions.RoleParticipant, true},
		{permissions.RoleOperator, permissions.RoleOperator, true},
		{permissions.RoleParticipant, permissions.RoleOperator, false},
		{"admin", permissions.RoleParticipant, false},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.role+"_"+tt.required, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.allowed, permissions.IsAllowed(tt.role, tt.required))
		})
	}
}

func TestNoOverlappingRoutes(t *testing.T) {
	restricted := permissions.AllPermissionsByRoute()
	for route := range permissions.Whitelist() {
		_, ok := restricted[route]
		require.False(t, ok, "route %s is both whitelisted and restricted", route)
	}
	for route, role := range restricted {
		require.True(t, permissions.IsValidRole(role), "invalid role for %s", route)
	}
}

func TestToken(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		token, err := permissions.NewToken(secret, "alice", permissions.RoleOperator, time.Hour)
		require.NoError(t, err)

		claims, err := permissions.ParseToken(secret, token)
		require.NoError(t, err)
		require.Equal(t, "alice", claims.Address)
		require.Equal(t, permissions.RoleOperator, claims.Role)
	})

	t.Run("invalid", func(t *testing.T) {
		token, err := permissions.NewToken(secret, "alice", permissions.RoleParticipant, time.Hour)
		require.NoError(t, err)
		expired, err := permissions.NewToken(secret, "alice", permissions.RoleParticipant, -time.Hour)
		require.NoError(t, err)

		_, err = permissions.ParseToken([]byte("other"), token)
		require.ErrorIs(t, err, permissions.ErrInvalidToken)
		_, err = permissions.ParseToken(secret, expired)
		require.ErrorIs(t, err, permissions.ErrInvalidToken)
		_, err = permissions.ParseToken(secret, "not-a-token")
		require.ErrorIs(t, err, permissions.ErrInvalidToken)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := permissions.NewToken(secret, "alice", "admin", time.Hour)
		require.ErrorIs(t, err, permissions.ErrUnknownRole)
	})
}
