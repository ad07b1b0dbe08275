package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config keeps runtime settings for the service and the CLI.
type Config struct {
	DatabaseURL    string
	TelegramToken  string
	TelegramChatID int64
	ReportInterval time.Duration
	ReportAt       string
	LogLevel       string
	MetricsAddr    string
}

// Load reads configuration from an optional TOML file and environment variables.
// The file path comes from TODOKEEPER_CONFIG; env vars always win over the file.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("database_url", "todo_keeper.db")
	v.SetDefault("telegram_token", "")
	v.SetDefault("telegram_chat_id", 0)
	v.SetDefault("report_interval_hours", "")
	v.SetDefault("report_at", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_addr", "")

	for _, key := range []string{
		"database_url", "telegram_token", "telegram_chat_id",
		"report_interval_hours", "report_at", "log_level", "metrics_addr",
	} {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path := strings.TrimSpace(os.Getenv("TODOKEEPER_CONFIG")); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	cfg := Config{
		DatabaseURL:    strings.TrimSpace(v.GetString("database_url")),
		TelegramToken:  strings.TrimSpace(v.GetString("telegram_token")),
		TelegramChatID: v.GetInt64("telegram_chat_id"),
		ReportInterval: parseInterval(strings.TrimSpace(v.GetString("report_interval_hours"))),
		ReportAt:       strings.TrimSpace(v.GetString("report_at")),
		LogLevel:       strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		MetricsAddr:    strings.TrimSpace(v.GetString("metrics_addr")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "todo_keeper.db"
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	case "":
		cfg.LogLevel = "info"
	default:
		return cfg, fmt.Errorf("LOG_LEVEL %q must be debug, info, warn or error", cfg.LogLevel)
	}

	return cfg, nil
}

// RequireTelegram checks the settings the bot cannot run without.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if (c.ReportInterval > 0 || c.ReportAt != "") && c.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required for scheduled reports")
	}
	return nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
