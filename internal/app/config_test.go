package app

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "ledger.db")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Zero(t, cfg.DashboardCacheTTL)
	require.Equal(t, "USD", cfg.DisplayCurrency)
	require.Equal(t, "@hourly", cfg.ReconcileSweepCron)
	require.False(t, cfg.AllowOverpayment)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigReadsOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("PG_DSN", "postgres://u:p@db:5432/ledger")
	t.Setenv("ALLOW_OVERPAYMENT", "true")
	t.Setenv("DISPLAY_CURRENCY", "eur")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("DASHBOARD_CACHE_TTL", "90s")
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.AllowOverpayment)
	require.Equal(t, "EUR", cfg.DisplayCurrency)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 90*time.Second, cfg.DashboardCacheTTL)
	require.True(t, cfg.IsProduction())
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":   {"STORE_DRIVER": "mongo"},
		"unknown currency": {"STORE_DRIVER": "sqlite", "DISPLAY_CURRENCY": "ZZZ"},
		"negative ttl":     {"STORE_DRIVER": "sqlite", "DASHBOARD_CACHE_TTL": "-1s"},
		"bad level":        {"STORE_DRIVER": "sqlite", "LOG_LEVEL": "loud"},
		"empty sqlite":     {"STORE_DRIVER": "sqlite", "SQLITE_PATH": ""},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}

func TestLoggerHonoursLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{LogFormat: "json", LogLevel: "warn"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", slog.String("k", "v"))

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.True(t, strings.HasPrefix(out, "{"))
	require.Contains(t, out, `"msg":"shown"`)
}
