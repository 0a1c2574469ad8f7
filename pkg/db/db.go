// Package db opens the record store and migrates the schema.
package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cedarforestgiant/swimmeret/internal/config"
	"github.com/cedarforestgiant/swimmeret/internal/events"
	guardraildomain "github.com/cedarforestgiant/swimmeret/internal/guardrail/domain"
	incidentdomain "github.com/cedarforestgiant/swimmeret/internal/incident/domain"
	pooldomain "github.com/cedarforestgiant/swimmeret/internal/pool/domain"
	telemetrydomain "github.com/cedarforestgiant/swimmeret/internal/telemetry/domain"
	userdomain "github.com/cedarforestgiant/swimmeret/internal/user/domain"
	verificationdomain "github.com/cedarforestgiant/swimmeret/internal/verification/domain"
)

var Module = fx.Module("db",
	fx.Provide(Open),
	fx.Invoke(AutoMigrate),
)

// Open connects to the configured database. Sqlite paths get their parent
// directory created so a fresh checkout boots without setup.
func Open(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}

	var (
		conn *gorm.DB
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver)) {
	case "postgres":
		conn, err = gorm.Open(postgres.Open(cfg.DatabaseURL), gormCfg)
	default:
		dsn := cfg.DatabaseURL
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		conn, err = gorm.Open(sqlite.Open(dsn), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	log.Info("database connected", zap.String("driver", cfg.DatabaseDriver))
	return conn, nil
}

// AutoMigrate creates or updates the record store schema.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&userdomain.User{},
		&incidentdomain.Incident{},
		&telemetrydomain.UsageSnapshot{},
		&verificationdomain.VerificationScore{},
		&pooldomain.Pool{},
		&pooldomain.Pledge{},
		&guardraildomain.GuardrailSetting{},
		&events.PoolEvent{},
	)
}
