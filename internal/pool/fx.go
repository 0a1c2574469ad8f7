package pool

import (
	"go.uber.org/fx"

	"github.com/cedarforestgiant/swimmeret/internal/pool/service"
)

var Module = fx.Module("pool.service",
	fx.Provide(service.NewService),
)
