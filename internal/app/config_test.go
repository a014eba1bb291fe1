package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("BUSINESS_TZ", "Asia/Kolkata")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, 24*time.Hour, cfg.AuthTokenTTL)
	require.Equal(t, 10*time.Minute, cfg.ReportCacheTTL)
	require.Equal(t, 72*time.Hour, cfg.IdempotencyRetention)
	require.Equal(t, int32(10), cfg.PGMaxConns)
	require.Equal(t, "Asia/Kolkata", cfg.Location().String())
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsUnknownZone(t *testing.T) {
	t.Setenv("BUSINESS_TZ", "Mars/Olympus")

	_, err := LoadConfig()
	require.ErrorContains(t, err, "BUSINESS_TZ")
}

func TestNilConfigLocationIsUTC(t *testing.T) {
	var cfg *Config
	require.Equal(t, time.UTC, cfg.Location())
}
