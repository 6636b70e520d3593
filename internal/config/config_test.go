package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.AuthSecret)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, 7*time.Hour, cfg.Report.BusinessUTCOffset)
	assert.Equal(t, 2500, cfg.Report.BEYearThreshold)
	assert.Equal(t, 5, cfg.Report.TopServicesLimit)
	assert.Equal(t, "1000", cfg.Business.DailyTarget.String())
	assert.Equal(t, "30000", cfg.Business.MonthlyTarget.String())
	assert.Equal(t, 480*time.Minute, cfg.AccessTokenTTL())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BUSINESS_UTC_OFFSET", "-5h30m")
	t.Setenv("TOP_SERVICES_LIMIT", "10")
	t.Setenv("DAILY_TARGET", "2500.50")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Address())
	assert.Equal(t, -(5*time.Hour + 30*time.Minute), cfg.Report.BusinessUTCOffset)
	assert.Equal(t, 10, cfg.Report.TopServicesLimit)
	assert.Equal(t, "2500.5", cfg.Business.DailyTarget.String())
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 480, cfg.AccessTokenTTLMinutes)
}

func TestLoadRejectsBadTarget(t *testing.T) {
	t.Setenv("MONTHLY_TARGET", "lots")

	_, err := Load()
	assert.Error(t, err)
}
