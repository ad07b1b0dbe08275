package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TODOKEEPER_CONFIG", "DATABASE_URL", "TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID",
		"REPORT_INTERVAL_HOURS", "REPORT_AT", "LOG_LEVEL", "METRICS_ADDR",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "todo_keeper.db", cfg.DatabaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.ReportInterval)
	assert.Error(t, cfg.RequireTelegram())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "data/todo.db")
	t.Setenv("TELEGRAM_TOKEN", " token ")
	t.Setenv("TELEGRAM_CHAT_ID", "4242")
	t.Setenv("REPORT_INTERVAL_HOURS", "6")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/todo.db", cfg.DatabaseURL)
	assert.Equal(t, "token", cfg.TelegramToken)
	assert.Equal(t, int64(4242), cfg.TelegramChatID)
	assert.Equal(t, 6*time.Hour, cfg.ReportInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NoError(t, cfg.RequireTelegram())
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "todo.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_url = "from-file.db"
report_at = "08:30"
metrics_addr = ":9090"
`), 0o600))
	t.Setenv("TODOKEEPER_CONFIG", path)
	t.Setenv("METRICS_ADDR", ":9191")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-file.db", cfg.DatabaseURL)
	assert.Equal(t, "08:30", cfg.ReportAt)
	assert.Equal(t, ":9191", cfg.MetricsAddr)
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "loud")

	_, err := Load()
	assert.Error(t, err)
}

func TestRequireTelegramNeedsChatForReports(t *testing.T) {
	cfg := Config{TelegramToken: "t", ReportInterval: time.Hour}
	assert.Error(t, cfg.RequireTelegram())

	cfg.TelegramChatID = 7
	assert.NoError(t, cfg.RequireTelegram())
}

func TestParseInterval(t *testing.T) {
	assert.Zero(t, parseInterval(""))
	assert.Zero(t, parseInterval("abc"))
	assert.Zero(t, parseInterval("-2"))
	assert.Equal(t, 90*time.Minute, parseInterval("1.5"))
}
