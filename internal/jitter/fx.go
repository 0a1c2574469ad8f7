package jitter

import "go.uber.org/fx"

var Module = fx.Module("jitter",
	fx.Provide(NewSource),
)
