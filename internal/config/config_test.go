package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FIN_API_BASE", "FIN_API_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
		"FIN_SESSION_STORE", "FIN_SESSION_PATH", "REDIS_URL", "DATABASE_URL",
		"FIN_USE_MOCKS", "FIN_MOCK_DELAY", "OTEL_ENABLED", "FIN_FX_BASE",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_PROTOCOL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, DefaultAPIBase, cfg.APIBase)
		require.Equal(t, DefaultTimeout, cfg.Timeout)
		require.Equal(t, StoreFile, cfg.SessionStore)
		require.NotEmpty(t, cfg.SessionPath)
		require.False(t, cfg.UseMocks)
		require.Equal(t, DefaultMockDelay, cfg.MockDelay)
		require.False(t, cfg.OTelEnabled)
	})

	t.Run("loads values from env", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FIN_API_BASE", "https://fin.example.com/api/")
		t.Setenv("FIN_API_TIMEOUT", "3s")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("FIN_SESSION_STORE", "Memory")
		t.Setenv("FIN_USE_MOCKS", "true")
		t.Setenv("FIN_MOCK_DELAY", "0s")
		t.Setenv("OTEL_ENABLED", "true")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318")
		t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, "https://fin.example.com/api", cfg.APIBase)
		require.Equal(t, 3*time.Second, cfg.Timeout)
		require.Equal(t, "debug", cfg.LogLevel)
		require.Equal(t, StoreMemory, cfg.SessionStore)
		require.True(t, cfg.UseMocks)
		require.Equal(t, time.Duration(0), cfg.MockDelay)
		require.True(t, cfg.OTelEnabled)
		require.Equal(t, "http://collector:4318", cfg.OTelEndpoint)
		require.Equal(t, "grpc", cfg.OTelProtocol)
	})

	t.Run("ignores invalid timeout", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FIN_API_TIMEOUT", "soon")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, DefaultTimeout, cfg.Timeout)
	})

	t.Run("ignores non-positive timeout", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FIN_API_TIMEOUT", "-1s")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, DefaultTimeout, cfg.Timeout)
	})

	t.Run("redis store requires REDIS_URL", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FIN_SESSION_STORE", "redis")

		_, err := Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "REDIS_URL")
	})

	t.Run("postgres store requires DATABASE_URL", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FIN_SESSION_STORE", "postgres")

		_, err := Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "DATABASE_URL")
	})

	t.Run("rejects unknown store", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FIN_SESSION_STORE", "cookie")

		_, err := Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown FIN_SESSION_STORE")
	})

	t.Run("rejects non-http base URL", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FIN_API_BASE", "ftp://fin.example.com")

		_, err := Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "FIN_API_BASE")
	})

	t.Run("rejects non-http rates URL", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FIN_FX_BASE", "rates.example.com")

		_, err := Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "FIN_FX_BASE")
	})

	t.Run("rejects unknown otlp protocol", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "http/json")

		_, err := Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "OTEL_EXPORTER_OTLP_PROTOCOL")
	})

	t.Run("collects multiple validation errors", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FIN_API_BASE", "fin.example.com")
		t.Setenv("FIN_SESSION_STORE", "redis")

		_, err := Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "REDIS_URL")
		require.Contains(t, err.Error(), "FIN_API_BASE")
	})
}
