package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.ServerPort)
	require.Equal(t, 24*time.Hour, cfg.TokenTTL)
	require.Equal(t, 20, cfg.MaxSessionsPerUser)
	require.Equal(t, int64(1048576), cfg.AvatarMaxBytes)
	require.Equal(t, "@hourly", cfg.SessionPruneSchedule)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_TTL_HOURS", "1")
	t.Setenv("MAX_SESSIONS_PER_USER", "5")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.ServerPort)
	require.Equal(t, time.Hour, cfg.TokenTTL)
	require.Equal(t, 5, cfg.MaxSessionsPerUser)
}

func TestLoad_RejectsBadPort(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
}
