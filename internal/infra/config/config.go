package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // slim images ship without a zoneinfo database

	"github.com/joho/godotenv"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken   string
	AdminTelegramID int64 // 0 disables admin commands
	LogLevel        string
	Environment     string

	MessagesFile  string
	StorageDriver string
	ChatIDsFile   string
	IndexFile     string
	DatabaseURL   string

	DailySendTime   string // HH:MM
	Timezone        *time.Location
	SendRatePerSec  int
	DeliveryTimeout time.Duration
	PollTimeout     time.Duration
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	cfg.LogLevel = strings.ToLower(envOr("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(envOr("ENVIRONMENT", "development"))

	cfg.MessagesFile = envOr("MESSAGES_FILE", "gospel.csv")
	cfg.ChatIDsFile = envOr("CHAT_IDS_FILE", "chat_ids.txt")
	cfg.IndexFile = envOr("INDEX_FILE", "last_index.json")

	cfg.StorageDriver = strings.ToLower(envOr("STORAGE_DRIVER", StorageFile))
	switch cfg.StorageDriver {
	case StorageFile:
	case StoragePostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set (required for STORAGE_DRIVER=postgres)")
		}
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q: expected %q or %q", cfg.StorageDriver, StorageFile, StoragePostgres)
	}

	cfg.DailySendTime = envOr("DAILY_SEND_TIME", "06:00")
	if _, _, err := ParseClock(cfg.DailySendTime); err != nil {
		return nil, fmt.Errorf("invalid DAILY_SEND_TIME: %w", err)
	}

	tzName := envOr("TIMEZONE", "America/New_York")
	cfg.Timezone, err = time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}

	cfg.SendRatePerSec, err = strconv.Atoi(envOr("SEND_RATE_PER_SEC", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEND_RATE_PER_SEC: %w", err)
	}
	if cfg.SendRatePerSec <= 0 {
		return nil, fmt.Errorf("invalid SEND_RATE_PER_SEC: must be positive, got %d", cfg.SendRatePerSec)
	}

	cfg.DeliveryTimeout, err = positiveDuration("DELIVERY_TIMEOUT", "10m")
	if err != nil {
		return nil, err
	}
	cfg.PollTimeout, err = positiveDuration("POLL_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseClock parses a wall-clock time in HH:MM form.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%q is not in HH:MM format", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%q has an invalid hour", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%q has an invalid minute", s)
	}
	return hour, minute, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func positiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOr(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %s", key, d)
	}
	return d, nil
}
