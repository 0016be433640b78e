package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	groupDomain "github.com/reshetovitsme/post-normalizer/internal/modules/group/domain"
	apperrors "github.com/reshetovitsme/post-normalizer/internal/shared/errors"
)

// unsetenv clears a variable for the test while restoring the original value
// afterwards.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	unsetenv(t, "TELEGRAM_BOT_TOKEN")
	unsetenv(t, "HTTP_PORT")
	unsetenv(t, "APP_ENV")
}

func writeConfig(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(".", name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadRequiresBotToken(t *testing.T) {
	isolate(t)

	_, err := Load()
	if !errors.Is(err, apperrors.ErrMissingBotToken) {
		t.Fatalf("Load() error = %v, want ErrMissingBotToken", err)
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	isolate(t)
	writeConfig(t, "config.yaml", "telegram_bot_token: file-token\nhttp_port: \"9090\"\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TelegramBotToken != "file-token" {
		t.Fatalf("token = %q, want file-token", cfg.TelegramBotToken)
	}
	if cfg.HTTPPort != "9090" {
		t.Fatalf("port = %q, want 9090", cfg.HTTPPort)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)
	writeConfig(t, "config.yaml", "telegram_bot_token: file-token\nhttp_port: \"9090\"\n")
	t.Setenv("HTTP_PORT", "7777")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != "7777" {
		t.Fatalf("port = %q, env override lost", cfg.HTTPPort)
	}
	if cfg.TelegramBotToken != "file-token" {
		t.Fatalf("token = %q, file value lost", cfg.TelegramBotToken)
	}
}

func TestDefaultsApplied(t *testing.T) {
	isolate(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("port = %q, want default 8080", cfg.HTTPPort)
	}
	if cfg.DatabasePath != "./data/normalizer.db" {
		t.Fatalf("database path = %q", cfg.DatabasePath)
	}
	if cfg.AppEnv != groupDomain.AppEnvProduction {
		t.Fatalf("app env = %v, want production", cfg.AppEnv)
	}
	if cfg.TransportTimeout() != 30*time.Second {
		t.Fatalf("transport timeout = %v", cfg.TransportTimeout())
	}
	if cfg.BatchPace() != 3*time.Second {
		t.Fatalf("batch pace = %v", cfg.BatchPace())
	}
	if cfg.InviteSweepSpec != "@hourly" || cfg.RetentionSweepSpec != "@daily" {
		t.Fatalf("sweep specs = %q/%q", cfg.InviteSweepSpec, cfg.RetentionSweepSpec)
	}
}

func TestAppEnvParsed(t *testing.T) {
	isolate(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppEnv != groupDomain.AppEnvDevelopment {
		t.Fatalf("app env = %v, want development", cfg.AppEnv)
	}
}

func TestInvalidAppEnvFallsBackToProduction(t *testing.T) {
	isolate(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("APP_ENV", "staging")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppEnv != groupDomain.AppEnvProduction {
		t.Fatalf("app env = %v, want production fallback", cfg.AppEnv)
	}
}
