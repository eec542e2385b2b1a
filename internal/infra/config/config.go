package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
type AppConfig struct {
	HTTPAddr        string
	BotID           string // the bot's own sender identity, used to drop echoes
	GatewayProvider string // "http" or "telegram"
	GatewayBaseURL  string
	GatewayToken    string
	GatewayAuthURL  string // optional credential refresh endpoint
	GatewayAPIKey   string
	TelegramToken   string
	StoreDriver     string // "file" or "postgres"
	StoreFilePath   string
	DatabaseURL     string
	ReminderCron    string // wall-clock spec for the daily scan
	ReminderLead    int    // days before an occurrence at which to remind
	MaxCacheSize    int
	PromoText       string
	SendTimeout     time.Duration
	LogLevel        string
	Environment     string
}

const defaultPromoText = "💡 BirthdayBot — never miss a birthday. Share me with your friends!"

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.HTTPAddr = envDefault("HTTP_ADDR", ":8000")
	cfg.BotID = os.Getenv("BOT_ID")

	cfg.GatewayProvider = strings.ToLower(envDefault("GATEWAY_PROVIDER", "http"))
	switch cfg.GatewayProvider {
	case "http":
		cfg.GatewayBaseURL = os.Getenv("GATEWAY_BASE_URL")
		if cfg.GatewayBaseURL == "" {
			return nil, fmt.Errorf("GATEWAY_BASE_URL is not set")
		}
		cfg.GatewayToken = os.Getenv("GATEWAY_TOKEN")
		cfg.GatewayAuthURL = os.Getenv("GATEWAY_AUTH_URL")
		cfg.GatewayAPIKey = os.Getenv("GATEWAY_API_KEY")
	case "telegram":
		cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
		if cfg.TelegramToken == "" {
			return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
		}
	default:
		return nil, fmt.Errorf("unknown GATEWAY_PROVIDER: %q", cfg.GatewayProvider)
	}

	cfg.StoreDriver = strings.ToLower(envDefault("STORE_DRIVER", "file"))
	switch cfg.StoreDriver {
	case "file":
		cfg.StoreFilePath = envDefault("STORE_FILE_PATH", "birthdays.json")
	case "postgres":
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER: %q", cfg.StoreDriver)
	}

	cfg.ReminderCron = envDefault("REMINDER_CRON", "0 9 * * *") // 9 AM daily

	var err error
	cfg.ReminderLead, err = envInt("REMINDER_LEAD_DAYS", 1)
	if err != nil {
		return nil, err
	}
	if cfg.ReminderLead < 0 {
		return nil, fmt.Errorf("REMINDER_LEAD_DAYS must not be negative")
	}

	cfg.MaxCacheSize, err = envInt("MAX_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	sendTimeoutSec, err := envInt("SEND_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	cfg.SendTimeout = time.Duration(sendTimeoutSec) * time.Second

	cfg.PromoText = envDefault("PROMO_TEXT", defaultPromoText)
	cfg.LogLevel = strings.ToLower(envDefault("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(envDefault("ENVIRONMENT", "development"))

	return cfg, nil
}

func envDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func envInt(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}
