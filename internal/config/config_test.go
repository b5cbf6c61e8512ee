package config

import (
	"os"
	"path/filepath"
	"testing"

	"libris/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
backend:
  base_url: "https://api.example.com"
cache:
  enabled: true
  redis:
    address: "localhost:6379"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Backend.BaseURL != "https://api.example.com" {
		t.Errorf("expected base_url https://api.example.com, got %s", cfg.Backend.BaseURL)
	}

	// defaults
	if cfg.Backend.TimeoutSeconds != models.DefaultRequestTimeout {
		t.Errorf("expected default timeout, got %d", cfg.Backend.TimeoutSeconds)
	}
	if cfg.Pagination.PageSize != models.DefaultPageSize {
		t.Errorf("expected default page size, got %d", cfg.Pagination.PageSize)
	}
	if cfg.Auth.RefreshCookie != "refresh_token" {
		t.Errorf("expected default refresh cookie name, got %s", cfg.Auth.RefreshCookie)
	}
	if cfg.Cache.TTLSeconds != models.DefaultCacheTTL {
		t.Errorf("expected default cache ttl, got %d", cfg.Cache.TTLSeconds)
	}
}

func TestLoadConfigEnvExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("LIBRIS_TEST_BASE_URL", "https://env.example.com")

	yamlContent := `
backend:
  base_url: "${LIBRIS_TEST_BASE_URL}"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Backend.BaseURL != "https://env.example.com" {
		t.Errorf("expected expanded base_url, got %s", cfg.Backend.BaseURL)
	}
}

func TestValidateConfig(t *testing.T) {
	t.Run("MissingBaseURL", func(t *testing.T) {
		cfg := &Config{}
		cfg.applyDefaults()
		cfg.Backend.BaseURL = ""
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for missing base_url")
		}
	})

	t.Run("CacheEnabledWithoutRedis", func(t *testing.T) {
		cfg := &Config{}
		cfg.applyDefaults()
		cfg.Backend.BaseURL = "https://api.example.com"
		cfg.Cache.Enabled = true
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for cache without redis address")
		}
	})

	t.Run("NegativeMaxAttempts", func(t *testing.T) {
		cfg := &Config{}
		cfg.applyDefaults()
		cfg.Backend.BaseURL = "https://api.example.com"
		cfg.Polling.MaxAttempts = -1
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for negative max_attempts")
		}
	})
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
