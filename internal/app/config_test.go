package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, "Europe/Copenhagen", cfg.TimeZone)
	require.Equal(t, -720, cfg.ChargeValidityStartDays)
	require.Equal(t, 1095, cfg.ChargeValidityEndDays)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsInvertedValidityInterval(t *testing.T) {
	t.Setenv("CHARGE_VALIDITY_START_DAYS", "10")
	t.Setenv("CHARGE_VALIDITY_END_DAYS", "-10")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("TIME_ZONE", "UTC")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, "UTC", cfg.TimeZone)
	require.Equal(t, "json", cfg.LogFormat)
}
