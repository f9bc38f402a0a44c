package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/payflow-kr/backend-payflow/internal/config"
)

func TestLoadRequiresCoreSettings(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"REDIS_URL":        "",
		"LEDGER_BASE_URL":  "",
		"GATEWAY_BASE_URL": "",
	})
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"REDIS_URL":             "redis://localhost:6379/0",
		"LEDGER_BASE_URL":       "http://localhost:8000/api",
		"GATEWAY_BASE_URL":      "https://checkout.example.test",
		"PORT":                  "",
		"CURRENCY_CODE":         "",
		"PAY_METHOD":            "",
		"CANCEL_DEFAULT_REASON": "",
		"CANCEL_LOCK_TTL":       "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "KRW", cfg.CurrencyCode)
	require.Equal(t, "CARD", cfg.PayMethod)
	require.Equal(t, "customer request", cfg.DefaultCancelReason)
	require.Equal(t, 2*time.Minute, cfg.CancelLockTTL)
	require.Equal(t, 20, cfg.DefaultPageSize)
}

func TestLoadTrimsBaseURLs(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"REDIS_URL":        "redis://localhost:6379/0",
		"LEDGER_BASE_URL":  "http://backend:8000/api/",
		"GATEWAY_BASE_URL": "https://checkout.example.test/",
	})
	require.NoError(t, err)
	require.Equal(t, "http://backend:8000/api", cfg.LedgerBaseURL)
	require.Equal(t, "https://checkout.example.test", cfg.GatewayBaseURL)
}
