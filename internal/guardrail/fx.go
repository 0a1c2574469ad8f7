package guardrail

import (
	"go.uber.org/fx"

	"github.com/cedarforestgiant/swimmeret/internal/guardrail/service"
)

var Module = fx.Module("guardrail.service",
	fx.Provide(service.NewService),
)
