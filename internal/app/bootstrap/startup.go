// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs after the schema is in place and before the handler is
// built. It starts the idle-session sweeper.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Cleanup != nil {
		deps.Cleanup.Start()
	}
	return nil
}
