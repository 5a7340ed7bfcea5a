package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	vars := map[string]string{
		"CITYBUS_PRIMARY.ENV":                  "test",
		"CITYBUS_SERVER.PORT":                  "8080",
		"CITYBUS_SERVER.READ_TIMEOUT":          "30",
		"CITYBUS_SERVER.WRITE_TIMEOUT":         "60",
		"CITYBUS_SERVER.IDLE_TIMEOUT":          "120",
		"CITYBUS_SERVER.CORS_ALLOWED_ORIGINS":  "http://localhost:3000,https://citybus.vn",
		"CITYBUS_DATABASE.HOST":                "localhost",
		"CITYBUS_DATABASE.PORT":                "5432",
		"CITYBUS_DATABASE.USER":                "citybus",
		"CITYBUS_DATABASE.PASSWORD":            "secret",
		"CITYBUS_DATABASE.NAME":                "citybus",
		"CITYBUS_DATABASE.SSL_MODE":            "disable",
		"CITYBUS_DATABASE.MAX_OPEN_CONNS":      "25",
		"CITYBUS_DATABASE.MAX_IDLE_CONNS":      "5",
		"CITYBUS_DATABASE.CONN_MAX_LIFETIME":   "300",
		"CITYBUS_DATABASE.CONN_MAX_IDLE_TIME":  "60",
		"CITYBUS_REDIS.ADDRESS":                "localhost:6379",
		"CITYBUS_AUTH.ACCESS_SECRET":           "access-secret-0123456789",
		"CITYBUS_AUTH.REFRESH_SECRET":          "refresh-secret-0123456789",
		"CITYBUS_IMPORT.ACTING_USER_ID":        "4af43f97-b4c7-452f-8ece-bcdf00b57acb",
		"CITYBUS_OBSERVABILITY.LOGGING.FORMAT": "console",
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000", "https://citybus.vn"}, cfg.Server.CORSAllowedOrigins)

	assert.Equal(t, DefaultProvinceSourceURL, cfg.Import.SourceURL)
	assert.Equal(t, 10, cfg.Import.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Import.FetchTimeout)

	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, 6, cfg.Auth.OTPLength)

	require.NotNil(t, cfg.Observability)
	assert.Equal(t, ServiceName, cfg.Observability.ServiceName)
	assert.Equal(t, "test", cfg.Observability.Environment)
	assert.Equal(t, "console", cfg.Observability.Logging.Format)
	assert.Equal(t, "info", cfg.Observability.Logging.Level, "partial override keeps defaults")
	assert.Equal(t, []string{"database", "redis"}, cfg.Observability.HealthChecks.Checks)
}

func TestLoadConfig_DoubleUnderscoreNesting(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CITYBUS_IMPORT__CONCURRENCY", "4")
	t.Setenv("CITYBUS_IMPORT__SOURCE_URL", "http://mirror.local/api/p/")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Import.Concurrency)
	assert.Equal(t, "http://mirror.local/api/p/", cfg.Import.SourceURL)
}

func TestLoadConfig_ListsAndDurations(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CITYBUS_SERVER.CORS_ALLOWED_ORIGINS", "https://a.citybus.vn,https://b.citybus.vn,https://c.citybus.vn")
	t.Setenv("CITYBUS_OBSERVABILITY.HEALTH_CHECKS.CHECKS", "database,redis")
	t.Setenv("CITYBUS_IMPORT.FETCH_TIMEOUT", "45s")
	t.Setenv("CITYBUS_AUTH.ACCESS_TOKEN_TTL", "10m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.citybus.vn", "https://b.citybus.vn", "https://c.citybus.vn"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, []string{"database", "redis"}, cfg.Observability.HealthChecks.Checks)
	assert.Equal(t, 45*time.Second, cfg.Import.FetchTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Auth.AccessTokenTTL)

	t.Setenv("CITYBUS_OBSERVABILITY.HEALTH_CHECKS.CHECKS", "redis")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"redis"}, cfg.Observability.HealthChecks.Checks)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "acting user is not a uuid", key: "CITYBUS_IMPORT.ACTING_USER_ID", val: "admin"},
		{name: "concurrency above limit", key: "CITYBUS_IMPORT.CONCURRENCY", val: "1000"},
		{name: "refresh secret equals access secret", key: "CITYBUS_AUTH.REFRESH_SECRET", val: "access-secret-0123456789"},
		{name: "unknown environment", key: "CITYBUS_PRIMARY.ENV", val: "moon"},
		{name: "bad log level", key: "CITYBUS_OBSERVABILITY.LOGGING.LEVEL", val: "loud"},
		{name: "unknown health check", key: "CITYBUS_OBSERVABILITY.HEALTH_CHECKS.CHECKS", val: "database,kafka"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestObservabilityConfig_GetLogLevel(t *testing.T) {
	cfg := DefaultObservabilityConfig()
	cfg.Logging.Level = ""

	cfg.Environment = "production"
	assert.Equal(t, "info", cfg.GetLogLevel())

	cfg.Environment = "development"
	assert.Equal(t, "debug", cfg.GetLogLevel())

	cfg.Logging.Level = "warn"
	assert.Equal(t, "warn", cfg.GetLogLevel())
	assert.False(t, cfg.IsProduction())
}
