package incident

import (
	"go.uber.org/fx"

	"github.com/cedarforestgiant/swimmeret/internal/incident/service"
)

var Module = fx.Module("incident.service",
	fx.Provide(service.NewService),
)
