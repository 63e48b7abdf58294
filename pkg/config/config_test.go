package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yieldcrest/invest_accrual/pkg/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0 1 * * *", cfg.AccrualSchedule)
	assert.Equal(t, 30, cfg.RetentionDays)
	assert.Equal(t, "https://api.resend.com", cfg.MailAPIBaseURL)
	assert.Equal(t, 15*time.Minute, cfg.RunLockTTL)
	assert.False(t, cfg.IsProduction)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PGSQL_URL", "postgres://localhost:5432/accrual_test")
	t.Setenv("RETENTION_DAYS", "7")
	t.Setenv("RUN_LOCK_TTL", "5m")
	t.Setenv("ACCRUAL_SCHEDULE", "30 2 * * *")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/accrual_test", cfg.DatabaseURL)
	assert.Equal(t, 7, cfg.RetentionDays)
	assert.Equal(t, 5*time.Minute, cfg.RunLockTTL)
	assert.Equal(t, "30 2 * * *", cfg.AccrualSchedule)
}

func TestLoadConfig_InvalidLockTTLFallsBack(t *testing.T) {
	t.Setenv("RUN_LOCK_TTL", "not-a-duration")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.RunLockTTL)
}
