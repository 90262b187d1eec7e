package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/iho/fintrack/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if !cfg.UseMemoryStore() {
		t.Fatalf("expected memory store with empty DATABASE_URL")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.LockTimeout != 3*time.Second {
		t.Fatalf("expected default lock timeout 3s, got %s", cfg.LockTimeout)
	}

	if !cfg.SeedDefaults {
		t.Fatalf("expected seeding to default on")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("LOCK_TIMEOUT", "500ms")
	t.Setenv("REJECT_ZERO_TOTAL", "true")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.UseMemoryStore() {
		t.Fatalf("expected postgres store with DATABASE_URL set")
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.LockTimeout != 500*time.Millisecond {
		t.Fatalf("expected lock timeout override, got %s", cfg.LockTimeout)
	}

	if !cfg.RejectZeroTotal {
		t.Fatalf("expected zero-total rejection to be enabled")
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
