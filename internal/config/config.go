// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Features holds feature flags resolved once at startup.
// The struct is read-only after Load returns; handlers receive it by value
// and cannot toggle flags at runtime.
type Features struct {
	Passkeys bool // WebAuthn/passkey login and registration
	OTP      bool // One-time-code login
	News     bool // Per-ticker news endpoints
}

// Config holds application configuration
type Config struct {
	DataDir           string // Base directory for all databases, always absolute
	Port              int
	LogLevel          string
	DevMode           bool
	SessionTTL        time.Duration
	FXBaseURL         string // Spot FX rate provider
	MarketDataBaseURL string // Quote/dividend data provider
	RPID              string // WebAuthn relying party ID
	RPOrigin          string // WebAuthn relying party origin
	RPDisplayName     string
	Features          Features
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("STACKFOLIO_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:           absDataDir,
		Port:              getEnvAsInt("PORT", 8080),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		SessionTTL:        time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 24*7)) * time.Hour,
		FXBaseURL:         getEnv("FX_BASE_URL", "https://api.frankfurter.app"),
		MarketDataBaseURL: getEnv("MARKET_DATA_BASE_URL", "https://query1.finance.yahoo.com"),
		RPID:              getEnv("WEBAUTHN_RP_ID", "localhost"),
		RPOrigin:          getEnv("WEBAUTHN_RP_ORIGIN", "http://localhost:8080"),
		RPDisplayName:     getEnv("WEBAUTHN_RP_DISPLAY_NAME", "Stackfolio"),
		Features: Features{
			Passkeys: getEnvAsBool("FEATURE_PASSKEYS", true),
			OTP:      getEnvAsBool("FEATURE_OTP", true),
			News:     getEnvAsBool("FEATURE_NEWS", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
