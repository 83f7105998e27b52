package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "LOG_FORMAT", "ENVIRONMENT", "SERVICE_NAME",
		"VERSION", "CATALOG_PATH", "STARTING_BALANCE", "API_KEY",
		"AUDIT_DB_URL", "AUDIT_RETENTION_DAYS", "TRUSTED_PROXIES",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads config with defaults when no env vars set", func(t *testing.T) {
		clearEnvVars(t)
		// Must set API_KEY or it fails validation
		t.Setenv("API_KEY", "test-key")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "INFO", cfg.LogLevel)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, "dev", cfg.Environment)
		assert.Equal(t, "configs/catalog.json", cfg.CatalogPath)
		assert.Equal(t, int64(1000), cfg.StartingBalance)
		assert.Equal(t, 90, cfg.AuditRetention)
		assert.Equal(t, "test-key", cfg.APIKey)
		assert.Empty(t, cfg.TrustedProxies)
	})

	t.Run("loads config from environment variables", func(t *testing.T) {
		clearEnvVars(t)

		t.Setenv("PORT", "3000")
		t.Setenv("API_KEY", "custom-api-key")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("LOG_FORMAT", "json")
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("CATALOG_PATH", "/etc/caseforge/catalog.json")
		t.Setenv("STARTING_BALANCE", "2500")
		t.Setenv("AUDIT_DB_URL", "postgres://audit:pw@db.example.com:5432/audit")
		t.Setenv("AUDIT_RETENTION_DAYS", "30")
		t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 10.0.0.2")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, "custom-api-key", cfg.APIKey)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, "production", cfg.Environment)
		assert.Equal(t, "/etc/caseforge/catalog.json", cfg.CatalogPath)
		assert.Equal(t, int64(2500), cfg.StartingBalance)
		assert.Equal(t, "postgres://audit:pw@db.example.com:5432/audit", cfg.AuditDBURL)
		assert.Equal(t, 30, cfg.AuditRetention)
		assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.TrustedProxies)
	})

	t.Run("returns error when API_KEY is missing", func(t *testing.T) {
		clearEnvVars(t)

		cfg, err := Load()

		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "API_KEY")
	})

	t.Run("rejects negative starting balance", func(t *testing.T) {
		clearEnvVars(t)
		t.Setenv("API_KEY", "test-key")
		t.Setenv("STARTING_BALANCE", "-100")

		cfg, err := Load()

		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("rejects non-numeric port", func(t *testing.T) {
		clearEnvVars(t)
		t.Setenv("API_KEY", "test-key")
		t.Setenv("PORT", "not-a-port")

		cfg, err := Load()

		assert.Error(t, err)
		assert.Nil(t, cfg)
	})
}
