package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/cedarforestgiant/swimmeret/internal/clock"
	"github.com/cedarforestgiant/swimmeret/internal/config"
	"github.com/cedarforestgiant/swimmeret/internal/events"
	"github.com/cedarforestgiant/swimmeret/internal/guardrail"
	"github.com/cedarforestgiant/swimmeret/internal/incident"
	"github.com/cedarforestgiant/swimmeret/internal/jitter"
	"github.com/cedarforestgiant/swimmeret/internal/observability"
	"github.com/cedarforestgiant/swimmeret/internal/pool"
	"github.com/cedarforestgiant/swimmeret/internal/pool/statsworker"
	"github.com/cedarforestgiant/swimmeret/internal/seed"
	"github.com/cedarforestgiant/swimmeret/internal/server"
	"github.com/cedarforestgiant/swimmeret/internal/telemetry"
	"github.com/cedarforestgiant/swimmeret/internal/verification"
	"github.com/cedarforestgiant/swimmeret/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		jitter.Module,
		events.Module,

		incident.Module,
		telemetry.Module,
		verification.Module,
		pool.Module,
		guardrail.Module,
		statsworker.Module,

		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			if !cfg.SeedDemoData {
				return nil
			}
			return seed.EnsureDemoData(conn)
		}),

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server) {
			s.RegisterAPIRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
