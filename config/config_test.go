package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv removes keys for the duration of the test so defaults apply.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func mustFromEnv(t *testing.T) *Config {
	t.Helper()
	cfg, err := FromEnv()
	require.NoError(t, err)
	return cfg
}

var configKeys = []string{
	"APP_ENV", "PORT", "GIN_MODE", "DB_PORT", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS",
	"DB_CONN_MAX_LIFETIME", "DB_CONNECT_TIMEOUT", "API_KEY_HEADER", "AUTH_MODE",
	"ALLOW_UNAUTHENTICATED", "INFO_POLICY", "RATE_LIMIT", "RATE_LIMIT_WINDOW", "REDIS_DB",
	"CORS_ALLOWED_ORIGINS", "TRUSTED_PROXIES", "SERVE_STATIC", "ENABLE_SWAGGER",
}

func TestFromEnv_Defaults(t *testing.T) {
	unsetEnv(t, configKeys...)

	cfg := mustFromEnv(t)

	assert.Equal(t, uint16(3000), cfg.AppPort)
	assert.Equal(t, "x-api-key", cfg.APIKeyHeader)
	assert.Equal(t, AuthModeStrict, cfg.AuthMode)
	assert.Equal(t, InfoOptional, cfg.InfoPolicy)
	assert.Equal(t, 100, cfg.RateLimit)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.ServeStatic)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	unsetEnv(t, configKeys...)
	t.Setenv("PORT", "8081")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "intake")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("DB_NAME", "clinic")
	t.Setenv("API_KEY", "k-123")
	t.Setenv("AUTH_MODE", "Lenient")
	t.Setenv("INFO_POLICY", "required")
	t.Setenv("RATE_LIMIT", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "1m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("APP_ENV", "production")

	cfg := mustFromEnv(t)

	assert.Equal(t, uint16(8081), cfg.AppPort)
	assert.Equal(t, "k-123", cfg.APIKey)
	assert.Equal(t, AuthModeLenient, cfg.AuthMode)
	assert.Equal(t, InfoRequired, cfg.InfoPolicy)
	assert.Equal(t, 5, cfg.RateLimit)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "intake:s3cret@tcp(db.internal:3306)/clinic?parseTime=true&timeout=5s", cfg.DSN())
}

func TestValidate_RejectsUnknownValues(t *testing.T) {
	cases := map[string]func(c *Config){
		"auth mode":   func(c *Config) { c.AuthMode = "open" },
		"info policy": func(c *Config) { c.InfoPolicy = "sometimes" },
		"rate limit":  func(c *Config) { c.RateLimit = 0 },
		"window":      func(c *Config) { c.RateLimitWindow = 0 },
		"header":      func(c *Config) { c.APIKeyHeader = "" },
	}
	unsetEnv(t, configKeys...)
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := mustFromEnv(t)
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfig_Singleton(t *testing.T) {
	ResetConfigForTest()
	t.Cleanup(ResetConfigForTest)
	t.Setenv("APP_NAME", "intake-singleton")

	first, err := LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "intake-singleton", first.AppName)

	t.Setenv("APP_NAME", "changed")
	again, err := LoadConfig()
	require.NoError(t, err)
	assert.Same(t, first, again)
}

func TestFromEnv_MalformedValuesAreErrors(t *testing.T) {
	cases := map[string]struct {
		key, value, field string
	}{
		"letter in rate limit": {"RATE_LIMIT", "1O0", "RateLimit"},
		"port out of range":    {"PORT", "70000", "AppPort"},
		"window in words":      {"RATE_LIMIT_WINDOW", "15 minutes", "RateLimitWindow"},
		"bool typo":            {"SERVE_STATIC", "yes please", "ServeStatic"},
		"negative db port":     {"DB_PORT", "-1", "DBPort"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			unsetEnv(t, configKeys...)
			t.Setenv(tc.key, tc.value)

			cfg, err := FromEnv()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestLoadConfig_ReportsMalformedValues(t *testing.T) {
	ResetConfigForTest()
	t.Cleanup(ResetConfigForTest)
	unsetEnv(t, configKeys...)
	t.Setenv("RATE_LIMIT", "1O0")

	cfg, err := LoadConfig()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

// Test that the test environment connects to an in-memory SQLite database.
func TestConnectMySQL_TestEnv(t *testing.T) {
	cfg := mustFromEnv(t)
	cfg.AppEnv = EnvTest

	db, err := ConnectMySQL(cfg)
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.NoError(t, PingDatabase(context.Background(), cfg, db))
}

func TestConnectMySQL_UnreachableServerStillReturnsPool(t *testing.T) {
	cfg := mustFromEnv(t)
	cfg.AppEnv = "development"
	cfg.DBHost = "127.0.0.1"
	cfg.DBPort = 1
	cfg.DBConnectTimeout = 200 * time.Millisecond

	db, err := ConnectMySQL(cfg)
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.Error(t, PingDatabase(context.Background(), cfg, db))
}
