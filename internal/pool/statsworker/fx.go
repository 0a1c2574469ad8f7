package statsworker

import (
	"context"

	"go.uber.org/fx"

	"github.com/cedarforestgiant/swimmeret/internal/config"
)

var Module = fx.Module("pool.stats",
	fx.Provide(NewConfig),
	fx.Provide(NewWorker),
	fx.Invoke(runWorker),
)

// NewConfig derives the worker config from app configuration.
func NewConfig(cfg config.Config) Config {
	return Config{PollInterval: cfg.MetricsInterval()}
}

func runWorker(lc fx.Lifecycle, worker *Worker) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go worker.RunForever(context.Background())
			return nil
		},
	})
}
