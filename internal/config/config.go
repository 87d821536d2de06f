package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries all runtime settings, populated from environment variables.
type Config struct {
	AppEnv   string
	LogLevel string

	TelegramToken string

	// DatabaseURL is either a postgres:// URL or a path to a SQLite file.
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTLS      bool

	AppsFlyerBaseURL  string
	AppsFlyerAPIKey   string
	AppsFlyerTimeout  time.Duration
	AppsFlyerTimezone string
	ReportCacheTTL    time.Duration

	AdminID       int64
	AdminUsername string

	HTTPListenAddr   string
	MetricsNamespace string
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),

		DatabaseURL: getEnv("DATABASE_URL", "affibot.db"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AppsFlyerBaseURL:  getEnv("APPSFLYER_BASE_URL", "https://hq1.appsflyer.com/api/raw-data/export/app"),
		AppsFlyerAPIKey:   os.Getenv("APPSFLYER_API_KEY"),
		AppsFlyerTimezone: getEnv("APPSFLYER_TIMEZONE", "Europe/Moscow"),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),

		HTTPListenAddr:   getEnv("HTTP_LISTEN_ADDR", ":8080"),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "affibot"),
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	cfg.RedisTLS = getEnvBool("REDIS_TLS", false)

	if cfg.AppsFlyerTimeout, err = getEnvDuration("APPSFLYER_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ReportCacheTTL, err = getEnvDuration("REPORT_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}

	adminID, err := getEnvInt("ADMIN_ID", 0)
	if err != nil {
		return nil, err
	}
	cfg.AdminID = int64(adminID)
	if cfg.AdminID == 0 {
		return nil, fmt.Errorf("ADMIN_ID is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	return v == "1" || v == "true" || v == "yes"
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}
