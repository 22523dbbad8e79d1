// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Integration fabric (external settlement system)
	FabricURL     string
	FabricTimeout time.Duration

	// Risk policy
	RiskChallengeThreshold float64 // score above which a transfer is challenged
	DefaultAnomalyLimit    float64 // anomaly baseline for unknown recipients
	LowBalanceFloor        float64 // balance below which the advisory fires

	// Observability
	OTLPEndpoint string // OTLP gRPC endpoint (empty = tracing disabled)

	// Security
	AdminSecret  string // guards the audit query endpoint
	RateLimitRPM int
}

// Defaults
const (
	DefaultPort          = "8080"
	DefaultEnv           = "development"
	DefaultLogLevel      = "info"
	DefaultFabricURL     = "http://127.0.0.1:5001"
	DefaultFabricTimeout = 10 * time.Second

	DefaultRiskChallengeThreshold = 50.0
	DefaultAnomalyLimit           = 10000.0
	DefaultLowBalanceFloor        = 500.0
	DefaultRateLimit              = 60
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                   getEnv("PORT", DefaultPort),
		Env:                    getEnv("ENV", DefaultEnv),
		LogLevel:               getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:            os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		FabricURL:              getEnv("FABRIC_URL", DefaultFabricURL),
		FabricTimeout:          getEnvDuration("FABRIC_TIMEOUT", DefaultFabricTimeout),
		RiskChallengeThreshold: getEnvFloat("RISK_CHALLENGE_THRESHOLD", DefaultRiskChallengeThreshold),
		DefaultAnomalyLimit:    getEnvFloat("DEFAULT_ANOMALY_LIMIT", DefaultAnomalyLimit),
		LowBalanceFloor:        getEnvFloat("LOW_BALANCE_FLOOR", DefaultLowBalanceFloor),
		OTLPEndpoint:           os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		AdminSecret:            os.Getenv("ADMIN_SECRET"),
		RateLimitRPM:           int(getEnvInt64("RATE_LIMIT_RPM", int64(DefaultRateLimit))),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and sane
func (c *Config) Validate() error {
	if c.FabricURL == "" {
		return fmt.Errorf("FABRIC_URL is required")
	}
	if c.FabricTimeout <= 0 {
		return fmt.Errorf("FABRIC_TIMEOUT must be positive")
	}
	if c.RiskChallengeThreshold < 0 || c.RiskChallengeThreshold > 100 {
		return fmt.Errorf("RISK_CHALLENGE_THRESHOLD must be in [0,100]")
	}
	if c.DefaultAnomalyLimit <= 0 {
		return fmt.Errorf("DEFAULT_ANOMALY_LIMIT must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
