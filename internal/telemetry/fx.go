package telemetry

import (
	"go.uber.org/fx"

	"github.com/cedarforestgiant/swimmeret/internal/telemetry/service"
)

var Module = fx.Module("telemetry.service",
	fx.Provide(service.NewService),
)
