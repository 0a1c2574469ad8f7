// Package config loads app configuration from env and an optional .env file.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :3000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// Environment is the deploy environment (development, production).
	Environment string `mapstructure:"APP_ENV"`
	// DatabaseDriver selects the gorm driver: sqlite or postgres.
	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"`
	// DatabaseURL is the DSN; for sqlite this is the database file path.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// SeedDemoData seeds the demo pool and builders on startup when true.
	SeedDemoData bool `mapstructure:"SEED_DEMO_DATA"`
	// PoolMetricsInterval is how often pool demand gauges refresh (e.g. "30s").
	PoolMetricsInterval string `mapstructure:"POOL_METRICS_INTERVAL"`
}

// Load reads .env (if present), then builds Config from the environment.
// Missing .env is ignored; env vars override .env.
func Load() (Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":3000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_URL", "data/swimmeret.db")
	v.SetDefault("SEED_DEMO_DATA", true)
	v.SetDefault("POOL_METRICS_INTERVAL", "30s")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver)) {
	case "sqlite", "postgres":
	default:
		return Config{}, errors.New("config: DATABASE_DRIVER must be sqlite or postgres")
	}
	if cfg.HTTPAddr == "" {
		return Config{}, errors.New("config: HTTP_ADDR must be set")
	}

	return cfg, nil
}

// MetricsInterval parses PoolMetricsInterval, defaulting to 30s.
func (c Config) MetricsInterval() time.Duration {
	d, err := time.ParseDuration(c.PoolMetricsInterval)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// IsProduction reports whether the app runs in production mode.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
