package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port            int
	LogLevel        string
	LogFormat       string
	Environment     string
	ServiceName     string
	Version         string
	CatalogPath     string
	StartingBalance int64
	APIKey          string // API key for the admin endpoints
	AuditDBURL      string // Postgres connection string for the audit log; empty disables persistence
	AuditRetention  int    // Days of audit history to keep
	TrustedProxies  []string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		Environment: getEnv("ENVIRONMENT", "dev"),
		ServiceName: getEnv("SERVICE_NAME", "caseforge"),
		Version:     getEnv("VERSION", "dev"),
		CatalogPath: getEnv("CATALOG_PATH", "configs/catalog.json"),
		APIKey:      getEnv("API_KEY", ""),
		AuditDBURL:  getEnv("AUDIT_DB_URL", ""),
	}

	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	startingBalance, err := getEnvInt("STARTING_BALANCE", 1000)
	if err != nil {
		return nil, err
	}
	if startingBalance < 0 {
		return nil, fmt.Errorf("STARTING_BALANCE must not be negative, got %d", startingBalance)
	}
	cfg.StartingBalance = int64(startingBalance)

	retention, err := getEnvInt("AUDIT_RETENTION_DAYS", 90)
	if err != nil {
		return nil, err
	}
	cfg.AuditRetention = retention

	if proxies := getEnv("TRUSTED_PROXIES", ""); proxies != "" {
		for _, p := range strings.Split(proxies, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cfg.TrustedProxies = append(cfg.TrustedProxies, trimmed)
			}
		}
	}

	// Validate API key is set
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY environment variable must be set for security")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return n, nil
}
