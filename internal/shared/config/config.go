package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	groupDomain "github.com/reshetovitsme/post-normalizer/internal/modules/group/domain"
	apperrors "github.com/reshetovitsme/post-normalizer/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

type Config struct {
	TelegramBotToken string             `koanf:"telegram_bot_token"`
	TelegramAPIURL   string             `koanf:"telegram_api_url"`
	DatabasePath     string             `koanf:"database_path"`
	HTTPPort         string             `koanf:"http_port"`
	AppEnv           groupDomain.AppEnv `koanf:"app_env"`

	// Transport resilience.
	TransportTimeoutSeconds int `koanf:"transport_timeout_seconds"`
	RetryMaxAttempts        int `koanf:"retry_max_attempts"`
	RetryBackoffMS          int `koanf:"retry_backoff_ms"`

	// Batch pacing: minimum spacing between history reposts so batch jobs
	// stay under external API limits.
	BatchPaceSeconds int `koanf:"batch_pace_seconds"`

	// Sweep schedules (robfig/cron expressions).
	InviteSweepSpec    string `koanf:"invite_sweep_spec"`
	RetentionSweepSpec string `koanf:"retention_sweep_spec"`
}

// TransportTimeout returns the per-call transport timeout.
func (c *Config) TransportTimeout() time.Duration {
	if c.TransportTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TransportTimeoutSeconds) * time.Second
}

// BatchPace returns the spacing between batch reposts.
func (c *Config) BatchPace() time.Duration {
	if c.BatchPaceSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.BatchPaceSeconds) * time.Second
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try to load config file from various formats
	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	// Use lo.Find to find the first existing config file
	configFile, found := lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Environment variables override config file values
	// (TELEGRAM_BOT_TOKEN -> telegram_bot_token).
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	// Set defaults
	defaults := map[string]any{
		"telegram_api_url":          "https://api.telegram.org",
		"database_path":             "./data/normalizer.db",
		"http_port":                 "8080",
		"app_env":                   "production",
		"transport_timeout_seconds": 30,
		"retry_max_attempts":        3,
		"retry_backoff_ms":          500,
		"batch_pace_seconds":        3,
		"invite_sweep_spec":         "@hourly",
		"retention_sweep_spec":      "@daily",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	if appEnv, err := groupDomain.ParseAppEnv(k.String("app_env")); err == nil {
		cfg.AppEnv = appEnv
	} else {
		cfg.AppEnv = groupDomain.AppEnvProduction
	}

	// Validate required fields
	if cfg.TelegramBotToken == "" {
		return nil, apperrors.ErrMissingBotToken
	}

	return &cfg, nil
}
