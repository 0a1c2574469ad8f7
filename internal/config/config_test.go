package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTPAddr != ":3000" {
		t.Fatalf("expected default addr, got %q", cfg.HTTPAddr)
	}
	if cfg.DatabaseDriver != "sqlite" {
		t.Fatalf("expected sqlite default, got %q", cfg.DatabaseDriver)
	}
	if !cfg.SeedDemoData {
		t.Fatalf("expected demo seed enabled by default")
	}
	if cfg.IsProduction() {
		t.Fatalf("development default should not be production")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected env override, got %q", cfg.HTTPAddr)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production mode")
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestMetricsInterval(t *testing.T) {
	cfg := Config{PoolMetricsInterval: "10s"}
	if cfg.MetricsInterval() != 10*time.Second {
		t.Fatalf("expected 10s, got %v", cfg.MetricsInterval())
	}

	cfg = Config{PoolMetricsInterval: "garbage"}
	if cfg.MetricsInterval() != 30*time.Second {
		t.Fatalf("expected fallback 30s, got %v", cfg.MetricsInterval())
	}

	cfg = Config{PoolMetricsInterval: "-5s"}
	if cfg.MetricsInterval() != 30*time.Second {
		t.Fatalf("expected fallback for non-positive, got %v", cfg.MetricsInterval())
	}
}
