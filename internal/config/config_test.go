package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if got := cfg.Providers.Order; len(got) != 3 || got[0] != "gemini" {
		t.Errorf("unexpected default provider order: %v", got)
	}
	if cfg.TMDb.CacheTTL != 24*time.Hour {
		t.Errorf("unexpected default cache TTL: %v", cfg.TMDb.CacheTTL)
	}
	if cfg.Roulette.PreviewInterval != 150*time.Millisecond {
		t.Errorf("unexpected default preview interval: %v", cfg.Roulette.PreviewInterval)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("WTW_SERVER_PORT", "9090")
	t.Setenv("WTW_LOG_LEVEL", "debug")
	t.Setenv("WTW_TMDB_APIKEY", "secret")
	t.Setenv("WTW_PROVIDERS_GEMINI_APIKEY", "gem-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port override 9090, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.TMDb.APIKey != "secret" {
		t.Errorf("expected TMDb key override, got %q", cfg.TMDb.APIKey)
	}
	if cfg.Providers.Gemini.APIKey != "gem-key" {
		t.Errorf("expected gemini key override, got %q", cfg.Providers.Gemini.APIKey)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 3000
providers:
  order:
    - openai
tmdb:
  watchregions:
    - DE
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("expected port 3000 from file, got %d", cfg.Server.Port)
	}
	if len(cfg.Providers.Order) != 1 || cfg.Providers.Order[0] != "openai" {
		t.Errorf("expected file to replace provider order, got %v", cfg.Providers.Order)
	}
	if len(cfg.TMDb.WatchRegions) != 1 || cfg.TMDb.WatchRegions[0] != "DE" {
		t.Errorf("expected file to replace watch regions, got %v", cfg.TMDb.WatchRegions)
	}
	// Untouched values keep their defaults.
	if cfg.Server.RateLimit != 60 {
		t.Errorf("expected default rate limit, got %d", cfg.Server.RateLimit)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("WTW_SERVER_PORT", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for port 0")
	}
}
