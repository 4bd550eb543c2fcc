package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_TOKEN", "DATABASE_URL", "REPORT_INTERVAL_HOURS", "REMINDER_CHECK_SECONDS",
		"DAILY_REPORT_AT", "API_ADDR", "TIMEZONE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "task_planner.db", cfg.DatabaseURL)
	assert.Equal(t, 5*time.Hour, cfg.ReportInterval)
	assert.Equal(t, time.Minute, cfg.ReminderCheck)
	assert.Equal(t, ":8080", cfg.APIAddr)
	assert.Equal(t, time.Local, cfg.Location())
	assert.Error(t, cfg.RequireTelegram())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", " token ")
	t.Setenv("DATABASE_URL", ":memory:")
	t.Setenv("REPORT_INTERVAL_HOURS", "1.5")
	t.Setenv("REMINDER_CHECK_SECONDS", "15")
	t.Setenv("DAILY_REPORT_AT", "08:30")
	t.Setenv("API_ADDR", "127.0.0.1:9000")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "token", cfg.TelegramToken)
	assert.NoError(t, cfg.RequireTelegram())
	assert.Equal(t, ":memory:", cfg.DatabaseURL)
	assert.Equal(t, 90*time.Minute, cfg.ReportInterval)
	assert.Equal(t, 15*time.Second, cfg.ReminderCheck)
	assert.Equal(t, "08:30", cfg.DailyReportAt)
	assert.Equal(t, "127.0.0.1:9000", cfg.APIAddr)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadFallsBackOnBadNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("REPORT_INTERVAL_HOURS", "-2")
	t.Setenv("REMINDER_CHECK_SECONDS", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Hour, cfg.ReportInterval)
	assert.Equal(t, time.Minute, cfg.ReminderCheck)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIMEZONE", "Nowhere/City")
	_, err := Load()
	assert.ErrorContains(t, err, "TIMEZONE")

	clearEnv(t)
	t.Setenv("DAILY_REPORT_AT", "25:00")
	_, err = Load()
	assert.ErrorContains(t, err, "DAILY_REPORT_AT")
}
