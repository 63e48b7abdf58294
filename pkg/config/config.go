package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	IsProduction bool

	// AccrualSchedule is the cron spec used in daemon mode.
	AccrualSchedule string
	// RetentionDays is how long return ledger rows are kept.
	RetentionDays int

	MailAPIBaseURL string
	MailAPIKey     string
	MailFrom       string

	// RedisURL enables the cross-run lock when set.
	RedisURL   string
	RunLockKey string
	RunLockTTL time.Duration

	PosthogAPIKey   string
	PosthogEndpoint string
}

// LoadConfig loads configuration from environment variables and a .env file
// if one is present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ACCRUAL_SCHEDULE", "0 1 * * *") // daily at 01:00 UTC
	viper.SetDefault("RETENTION_DAYS", 30)
	viper.SetDefault("MAIL_API_BASE_URL", "https://api.resend.com")
	viper.SetDefault("MAIL_API_KEY", "")
	viper.SetDefault("MAIL_FROM", "YieldCrest <noreply@yieldcrest.io>")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("RUN_LOCK_KEY", "invest_accrual:run_lock")
	viper.SetDefault("RUN_LOCK_TTL", "15m")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("POSTHOG_ENDPOINT", "https://eu.i.posthog.com")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.MailAPIKey = viper.GetString("MAIL_API_KEY")
	if cfg.MailAPIKey == "" {
		log.Println("Warning: MAIL_API_KEY not set. Emails will fail to dispatch.")
	}

	lockTTLStr := viper.GetString("RUN_LOCK_TTL")
	lockTTL, err := time.ParseDuration(lockTTLStr)
	if err != nil {
		lockTTL = 15 * time.Minute
		if lockTTLStr != "" {
			log.Printf("Warning: Invalid value for RUN_LOCK_TTL ('%s'). Defaulting to %s.\n", lockTTLStr, lockTTL)
		}
	}

	retentionDays := viper.GetInt("RETENTION_DAYS")
	if retentionDays <= 0 {
		retentionDays = 30
		log.Printf("Warning: RETENTION_DAYS must be positive. Defaulting to %d.\n", retentionDays)
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.AccrualSchedule = viper.GetString("ACCRUAL_SCHEDULE")
	cfg.RetentionDays = retentionDays
	cfg.MailAPIBaseURL = viper.GetString("MAIL_API_BASE_URL")
	cfg.MailFrom = viper.GetString("MAIL_FROM")
	cfg.RedisURL = viper.GetString("REDIS_URL")
	cfg.RunLockKey = viper.GetString("RUN_LOCK_KEY")
	cfg.RunLockTTL = lockTTL
	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")
	cfg.PosthogEndpoint = viper.GetString("POSTHOG_ENDPOINT")

	return cfg, nil
}
