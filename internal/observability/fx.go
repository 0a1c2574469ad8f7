// Package observability wires logging and metrics into the fx app.
package observability

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cedarforestgiant/swimmeret/internal/observability/logger"
	"github.com/cedarforestgiant/swimmeret/internal/observability/metrics"
)

var Module = fx.Module("observability",
	fx.Provide(logger.New),
	fx.Provide(metrics.NewHTTPMetrics),
	fx.Invoke(func(log *zap.Logger) {
		zap.ReplaceGlobals(log)
	}),
)
