package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
)

const (
	defaultDSN        = "host=localhost user=postgres password=postgres dbname=rental port=5432 sslmode=disable"
	defaultCORSOrigin = "http://localhost:5173"
)

type Config struct {
	HTTPPort       string
	DatabaseDriver string // postgres | sqlite
	DatabaseDSN    string
	JWTSecret      string
	JWTTTL         time.Duration
	CORSOrigins    string
	LogLevel       string
	Timezone       string

	// Billing
	FreePropertyLimit  int
	BillingCheckoutURL string

	// Cron spec for the background payment sync, empty disables it
	PaymentSyncSchedule string
	PaymentSyncTimeout  time.Duration
}

func Load() *Config {
	return &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),
		DatabaseDSN:    getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTTTL:         getEnvDuration("JWT_TTL", 24*time.Hour),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigin),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Timezone:       getEnv("APP_TIMEZONE", "UTC"),

		FreePropertyLimit:  getEnvInt("FREE_PROPERTY_LIMIT", 2),
		BillingCheckoutURL: getEnv("BILLING_CHECKOUT_URL", ""),

		PaymentSyncSchedule: getEnv("PAYMENT_SYNC_SCHEDULE", ""),
		PaymentSyncTimeout:  getEnvDuration("PAYMENT_SYNC_TIMEOUT", 2*time.Minute),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.HTTPPort); err != nil {
		problems = append(problems, fmt.Sprintf("invalid HTTP_PORT '%s': must be a number", c.HTTPPort))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid HTTP_PORT %d: must be between 1 and 65535", port))
	}

	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("invalid DATABASE_DRIVER '%s': must be postgres or sqlite", c.DatabaseDriver))
	}
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		problems = append(problems, "DATABASE_DSN is required")
	}

	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	} else if len(c.JWTSecret) < 32 {
		problems = append(problems, "JWT_SECRET must be at least 32 characters")
	}
	if c.JWTTTL <= 0 {
		problems = append(problems, "JWT_TTL must be positive")
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("invalid APP_TIMEZONE '%s': %v", c.Timezone, err))
	}

	if c.FreePropertyLimit < 0 {
		problems = append(problems, "FREE_PROPERTY_LIMIT cannot be negative")
	}

	if c.PaymentSyncSchedule != "" {
		if _, err := cron.ParseStandard(c.PaymentSyncSchedule); err != nil {
			problems = append(problems, fmt.Sprintf("invalid PAYMENT_SYNC_SCHEDULE '%s': %v", c.PaymentSyncSchedule, err))
		}
		if c.PaymentSyncTimeout <= 0 {
			problems = append(problems, "PAYMENT_SYNC_TIMEOUT must be positive")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// Warnings lists settings left at development defaults.
func (c *Config) Warnings() []string {
	var out []string
	if c.DatabaseDriver == "postgres" && c.DatabaseDSN == defaultDSN {
		out = append(out, "DATABASE_DSN uses the default value, set your own Postgres connection for production")
	}
	if c.CORSOrigins == defaultCORSOrigin {
		out = append(out, "CORS_ALLOWED_ORIGINS uses the default value, set your own domain for production")
	}
	if c.BillingCheckoutURL == "" {
		out = append(out, "BILLING_CHECKOUT_URL is empty, upgrade requests will fail")
	}
	return out
}

// Location returns the configured time zone, UTC when it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AllowedOrigins splits CORSOrigins and trims each entry.
func (c *Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
