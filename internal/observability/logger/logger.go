// Package logger builds the root zap logger and the HTTP request logging
// middleware.
package logger

import (
	"go.uber.org/zap"

	"github.com/cedarforestgiant/swimmeret/internal/config"
)

// New builds the root logger. Production gets sampled JSON output;
// everything else gets the development console encoder.
func New(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
