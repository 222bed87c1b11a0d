package server_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mgaraya/quickdraw/internal/server"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "STATIC_DIR", "ALLOWED_ORIGINS",
		"MAX_MESSAGE_SIZE", "RATE_LIMIT_BURST", "RATE_LIMIT_REFILL_INTERVAL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := server.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Port != ":3000" {
		t.Errorf("Expected default port :3000, got %q", cfg.Port)
	}
	if cfg.StaticDir != "public" {
		t.Errorf("Expected default static dir public, got %q", cfg.StaticDir)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("Expected all origins allowed by default, got %v", cfg.AllowedOrigins)
	}
	if cfg.MaxMessageSize != 512 {
		t.Errorf("Expected default max message size 512, got %d", cfg.MaxMessageSize)
	}
	if cfg.RateLimit.Burst != 10 || cfg.RateLimit.RefillInterval != time.Second {
		t.Errorf("Unexpected default rate limit: %+v", cfg.RateLimit)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "8081")
	t.Setenv("STATIC_DIR", "assets")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:8081, https://game.example.com")
	t.Setenv("MAX_MESSAGE_SIZE", "1024")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2")

	cfg, err := server.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Port != ":8081" {
		t.Errorf("Expected bare port number to be normalized to :8081, got %q", cfg.Port)
	}
	if cfg.StaticDir != "assets" {
		t.Errorf("Expected static dir assets, got %q", cfg.StaticDir)
	}
	want := []string{"http://localhost:8081", "https://game.example.com"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("Expected %d origins, got %v", len(want), cfg.AllowedOrigins)
	}
	for i, origin := range want {
		if cfg.AllowedOrigins[i] != origin {
			t.Errorf("Origin %d: expected %q, got %q", i, origin, cfg.AllowedOrigins[i])
		}
	}
	if cfg.MaxMessageSize != 1024 {
		t.Errorf("Expected max message size 1024, got %d", cfg.MaxMessageSize)
	}
	if cfg.RateLimit.Burst != 3 || cfg.RateLimit.RefillInterval != 2*time.Second {
		t.Errorf("Unexpected rate limit: %+v", cfg.RateLimit)
	}
}

func TestLoadConfigInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("MAX_MESSAGE_SIZE", "not-a-number")
	t.Setenv("RATE_LIMIT_BURST", "-4")

	cfg, err := server.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MaxMessageSize != 512 {
		t.Errorf("Invalid size must fall back to default, got %d", cfg.MaxMessageSize)
	}
	if cfg.RateLimit.Burst != 10 {
		t.Errorf("Invalid burst must fall back to default, got %d", cfg.RateLimit.Burst)
	}
}

func TestLoadConfigYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := "port: \"4000\"\nstatic_dir: web\nrate_limit:\n  burst: 7\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "")
	// Environment still wins over the file.
	t.Setenv("STATIC_DIR", "assets")

	cfg, err := server.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Port != ":4000" {
		t.Errorf("Expected port :4000 from file, got %q", cfg.Port)
	}
	if cfg.StaticDir != "assets" {
		t.Errorf("Expected env to override file static dir, got %q", cfg.StaticDir)
	}
	if cfg.RateLimit.Burst != 7 {
		t.Errorf("Expected burst 7 from file, got %d", cfg.RateLimit.Burst)
	}
	if cfg.RateLimit.RefillInterval != time.Second {
		t.Errorf("Unset file values must keep defaults, got %v", cfg.RateLimit.RefillInterval)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := server.LoadConfig(); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}
