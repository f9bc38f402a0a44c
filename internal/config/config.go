package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv              string
	Port                string
	RedisURL            string
	LedgerBaseURL       string
	GatewayBaseURL      string
	GatewayAPISecret    string
	CORSAllowedOrigins  []string
	CurrencyCode        string
	PayMethod           string
	DefaultCancelReason string
	DefaultPageSize     int
	SessionTokenTTL     time.Duration
	CancelLockTTL       time.Duration
	GatewayPollInterval time.Duration
	SubmitRateWindow    time.Duration
	SubmitRateMax       int
	MaxBodyBytes        int64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:              valueOrDefault(k.String("APP_ENV"), "development"),
		Port:                valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:            k.String("REDIS_URL"),
		LedgerBaseURL:       strings.TrimRight(strings.TrimSpace(k.String("LEDGER_BASE_URL")), "/"),
		GatewayBaseURL:      strings.TrimRight(strings.TrimSpace(k.String("GATEWAY_BASE_URL")), "/"),
		GatewayAPISecret:    k.String("GATEWAY_API_SECRET"),
		CORSAllowedOrigins:  splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CurrencyCode:        valueOrDefault(k.String("CURRENCY_CODE"), "KRW"),
		PayMethod:           valueOrDefault(k.String("PAY_METHOD"), "CARD"),
		DefaultCancelReason: valueOrDefault(k.String("CANCEL_DEFAULT_REASON"), "customer request"),
		DefaultPageSize:     intOrDefault(k.Int("PAYMENTS_PAGE_SIZE"), 20),
		SessionTokenTTL:     parseDuration(k.String("SESSION_TOKEN_TTL"), "720h"),
		CancelLockTTL:       parseDuration(k.String("CANCEL_LOCK_TTL"), "2m"),
		GatewayPollInterval: parseDuration(k.String("GATEWAY_POLL_INTERVAL"), "2s"),
		SubmitRateWindow:    parseDuration(k.String("SUBMIT_RATE_WINDOW"), "1m"),
		SubmitRateMax:       intOrDefault(k.Int("SUBMIT_RATE_MAX"), 30),
		MaxBodyBytes:        int64(intOrDefault(k.Int("MAX_BODY_BYTES"), 1<<20)),
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.LedgerBaseURL == "" {
		return nil, errors.New("LEDGER_BASE_URL is required")
	}
	if cfg.GatewayBaseURL == "" {
		return nil, errors.New("GATEWAY_BASE_URL is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func intOrDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
