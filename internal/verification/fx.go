package verification

import (
	"go.uber.org/fx"

	"github.com/cedarforestgiant/swimmeret/internal/verification/service"
)

var Module = fx.Module("verification.service",
	fx.Provide(service.NewService),
)
