// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults used when the environment leaves a setting empty.
const (
	DefaultAPIBase   = "http://localhost:8080/api"
	DefaultTimeout   = 10 * time.Second
	DefaultMockDelay = 500 * time.Millisecond
	// DefaultExpiresIn is the session lifetime assumed when the backend omits it (24h).
	DefaultExpiresIn = 86400
	DefaultCurrency  = "BRL"
)

// Session storage keys.
const (
	KeyAccessToken  = "fin_access_token"
	KeyRefreshToken = "fin_refresh_token"
	KeyUser         = "fin_user"
	KeyTheme        = "fin_theme"
	KeySettings     = "fin_settings"
)

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Session store backends.
const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds all configuration for the application.
type Config struct {
	APIBase      string
	Timeout      time.Duration
	LogLevel     string
	LogFormat    string
	SessionStore string
	SessionPath  string
	RedisURL     string
	DatabaseURL  string
	UseMocks     bool
	MockDelay    time.Duration
	OTelEnabled  bool
	OTelEndpoint string
	OTelProtocol string
	FXBase       string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIBase:      strings.TrimRight(strings.TrimSpace(os.Getenv("FIN_API_BASE")), "/"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
		LogFormat:    os.Getenv("LOG_FORMAT"),
		SessionStore: strings.ToLower(strings.TrimSpace(os.Getenv("FIN_SESSION_STORE"))),
		SessionPath:  os.Getenv("FIN_SESSION_PATH"),
		RedisURL:     os.Getenv("REDIS_URL"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
	}

	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}

	cfg.Timeout = DefaultTimeout
	if raw := os.Getenv("FIN_API_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	cfg.UseMocks = os.Getenv("FIN_USE_MOCKS") == "true"
	cfg.MockDelay = DefaultMockDelay
	if raw := os.Getenv("FIN_MOCK_DELAY"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d >= 0 {
			cfg.MockDelay = d
		}
	}

	cfg.OTelEnabled = os.Getenv("OTEL_ENABLED") == "true"
	cfg.OTelEndpoint = strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	cfg.OTelProtocol = strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"))
	cfg.FXBase = strings.TrimRight(strings.TrimSpace(os.Getenv("FIN_FX_BASE")), "/")

	if cfg.SessionStore == "" {
		cfg.SessionStore = StoreFile
	}
	if cfg.SessionPath == "" {
		cfg.SessionPath = defaultSessionPath()
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".finadm", "session.json")
	}
	return filepath.Join(home, ".finadm", "session.json")
}

// validate checks that the selected backends have what they need.
func (c *Config) validate() error {
	var errs []string

	switch c.SessionStore {
	case StoreFile, StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, "REDIS_URL is required when FIN_SESSION_STORE=redis")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required when FIN_SESSION_STORE=postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown FIN_SESSION_STORE %q (want file, memory, redis or postgres)", c.SessionStore))
	}

	if !isHTTPURL(c.APIBase) {
		errs = append(errs, "FIN_API_BASE must be an http(s) URL")
	}
	if c.FXBase != "" && !isHTTPURL(c.FXBase) {
		errs = append(errs, "FIN_FX_BASE must be an http(s) URL")
	}
	switch c.OTelProtocol {
	case "", "grpc", "http/protobuf":
	default:
		errs = append(errs, fmt.Sprintf("unsupported OTEL_EXPORTER_OTLP_PROTOCOL %q (want grpc or http/protobuf)", c.OTelProtocol))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
