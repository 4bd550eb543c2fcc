package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"task-planner/internal/timeparse"
)

// Config keeps runtime settings for the bot and the HTTP API.
type Config struct {
	TelegramToken  string
	DatabaseURL    string
	ReportInterval time.Duration
	ReminderCheck  time.Duration
	DailyReportAt  string
	APIAddr        string
	Timezone       string
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken:  strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ReportInterval: parseInterval(strings.TrimSpace(os.Getenv("REPORT_INTERVAL_HOURS"))),
		ReminderCheck:  parseSeconds(strings.TrimSpace(os.Getenv("REMINDER_CHECK_SECONDS"))),
		DailyReportAt:  strings.TrimSpace(os.Getenv("DAILY_REPORT_AT")),
		APIAddr:        strings.TrimSpace(os.Getenv("API_ADDR")),
		Timezone:       strings.TrimSpace(os.Getenv("TIMEZONE")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "task_planner.db"
	}
	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = 5 * time.Hour
	}
	if cfg.ReminderCheck == 0 {
		cfg.ReminderCheck = time.Minute
	}
	if cfg.APIAddr == "" {
		cfg.APIAddr = ":8080"
	}
	if cfg.DailyReportAt != "" {
		if _, _, err := timeparse.ParseClock(cfg.DailyReportAt); err != nil {
			return cfg, fmt.Errorf("DAILY_REPORT_AT: %w", err)
		}
	}
	if _, err := timeparse.LoadLocation(cfg.Timezone); err != nil {
		return cfg, fmt.Errorf("TIMEZONE: %w", err)
	}

	return cfg, nil
}

// RequireTelegram fails when the bot token is missing.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

// Location is the default time zone for users that did not pick one.
func (c Config) Location() *time.Location {
	loc, err := timeparse.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func parseSeconds(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
