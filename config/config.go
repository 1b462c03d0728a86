// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite    = "sqlite"
	DriverFirestore = "firestore"
)

type Config struct {
	Port             string        `mapstructure:"PORT"`
	JWTSecret        string        `mapstructure:"JWT_SECRET_KEY"`
	JWTRefreshSecret string        `mapstructure:"JWT_REFRESH_SECRET_KEY"`
	AccessTokenTTL   time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL  time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`

	StoreDriver         string `mapstructure:"STORE_DRIVER"`
	SQLitePath          string `mapstructure:"SQLITE_PATH"`
	FirestoreCredential string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirestoreProjectID  string `mapstructure:"FIRESTORE_PROJECT_ID"`

	RedisAddr    string        `mapstructure:"REDIS_ADDR"`
	UserCacheTTL time.Duration `mapstructure:"USER_CACHE_TTL"`

	AuthRateLimit float64 `mapstructure:"AUTH_RATE_LIMIT"`
	AuthRateBurst int     `mapstructure:"AUTH_RATE_BURST"`

	SeedFile        string        `mapstructure:"SEED_FILE"`
	APIBaseURL      string        `mapstructure:"API_BASE_URL"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var defaults = map[string]any{
	"PORT":                           "8080",
	"JWT_SECRET_KEY":                 "",
	"JWT_REFRESH_SECRET_KEY":         "",
	"ACCESS_TOKEN_TTL":               "60m",
	"REFRESH_TOKEN_TTL":              "168h",
	"STORE_DRIVER":                   DriverSQLite,
	"SQLITE_PATH":                    "taskboard.db",
	"GOOGLE_APPLICATION_CREDENTIALS": "",
	"FIRESTORE_PROJECT_ID":           "",
	"REDIS_ADDR":                     "",
	"USER_CACHE_TTL":                 "5m",
	"AUTH_RATE_LIMIT":                5,
	"AUTH_RATE_BURST":                10,
	"SEED_FILE":                      "",
	"API_BASE_URL":                   "http://localhost:8080/api/v1",
	"LOG_LEVEL":                      "info",
	"SHUTDOWN_TIMEOUT":               "30s",
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded, using process environment")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.JWTRefreshSecret == "" {
		cfg.JWTRefreshSecret = cfg.JWTSecret
	}
	cfg.StoreDriver = strings.ToLower(cfg.StoreDriver)
	return &cfg, nil
}

// Validate checks the settings needed to run the API server.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is not set")
	}
	switch c.StoreDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is not set")
		}
	case DriverFirestore:
		if c.FirestoreCredential == "" && c.FirestoreProjectID == "" {
			return fmt.Errorf("firestore needs GOOGLE_APPLICATION_CREDENTIALS or FIRESTORE_PROJECT_ID")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	return nil
}

// ParseLogLevel maps LOG_LEVEL onto slog levels, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
