package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	RedisURL string

	// Stripe credentials are optional at boot; endpoints that need them
	// respond with 503 when absent.
	StripeSecretKey     string
	StripeWebhookSecret string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	FrontendURL string
	AdminURL    string
}

func LoadConfig() (*Config, error) {
	// .env is a local convenience; in deployment everything comes from the
	// process environment.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "3002"),
		Environment: getEnv("APP_ENV", "development"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_PHONE_NUMBER"),

		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		AdminURL:    getEnv("ADMIN_URL", "http://localhost:3001"),
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" {
		return nil, fmt.Errorf("missing required Postgres environment variables")
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// StripeConfigured reports whether a Stripe secret key was supplied.
func (c *Config) StripeConfigured() bool {
	return c.StripeSecretKey != ""
}

// TwilioConfigured reports whether full Twilio credentials were supplied.
func (c *Config) TwilioConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

// AllowedOrigins returns the CORS origin allow-list for the current environment.
func (c *Config) AllowedOrigins() []string {
	if c.IsProduction() {
		return []string{c.FrontendURL, c.AdminURL}
	}
	return []string{"http://localhost:3000", "http://localhost:3001"}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
