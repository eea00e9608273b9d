package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Commission CommissionConfig
	Events     EventsConfig
	Admin      AdminConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type CommissionConfig struct {
	// PlaceholderRatePercent is the platform default assigned to products that
	// were never explicitly configured. Commissions at exactly this rate are
	// flagged for admin review.
	PlaceholderRatePercent float64
	// ReconcileTolerance absorbs rounding drift, in whole rupiah.
	ReconcileTolerance int64
}

type EventsConfig struct {
	// WebhookSecret signs order event deliveries (HMAC-SHA256). Empty disables
	// verification — development only.
	WebhookSecret string
}

type AdminConfig struct {
	Email    string
	Password string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         envOr("PORT", "8080"),
			Env:          envOr("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             envOr("DATABASE_DSN", "komisi:komisi@tcp(localhost:3306)/komisi?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  envOr("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: envOr("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "komisi",
		},
		Commission: CommissionConfig{
			PlaceholderRatePercent: envFloatOr("COMMISSION_PLACEHOLDER_RATE", 30),
			ReconcileTolerance:     envInt64Or("RECONCILE_TOLERANCE_IDR", 5),
		},
		Events: EventsConfig{
			WebhookSecret: os.Getenv("EVENTS_WEBHOOK_SECRET"),
		},
		Admin: AdminConfig{
			Email:    envOr("ADMIN_EMAIL", "admin@komisi.local"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64Or(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
