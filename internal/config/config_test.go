package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "LOG_LEVEL", "SWEEP_INTERVAL", "JANITOR_INTERVAL",
		"HOLD_TTL", "MAX_TABLES", "MAX_SLACK", "JANITOR_BATCH",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, defaultDatabaseURL, cfg.DatabaseURL)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 5*time.Minute, cfg.SweepInterval)
	require.Equal(t, time.Minute, cfg.JanitorInterval)
	require.Equal(t, 180*time.Second, cfg.HoldTTL)
	require.Equal(t, 3, cfg.MaxTables)
	require.Equal(t, 0, cfg.MaxSlack)
	require.Equal(t, 100, cfg.JanitorBatch)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/engine")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SWEEP_INTERVAL", "15s")
	t.Setenv("HOLD_TTL", "2m")
	t.Setenv("MAX_TABLES", "2")
	t.Setenv("MAX_SLACK", "4")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "postgres://u:p@db:5432/engine", cfg.DatabaseURL)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 15*time.Second, cfg.SweepInterval)
	require.Equal(t, 2*time.Minute, cfg.HoldTTL)
	require.Equal(t, 2, cfg.MaxTables)
	require.Equal(t, 4, cfg.MaxSlack)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"SWEEP_INTERVAL": "soon",
		"MAX_TABLES":     "many",
		"HOLD_TTL":       "-10s",
		"LOG_LEVEL":      "loud",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load()
			require.Error(t, err)
		})
	}
}
