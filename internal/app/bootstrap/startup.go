// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/oauthstate"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("operation timeouts overridden from environment", zap.Int("count", n))
	}

	// The TTL monitor eventually removes expired OAuth states on its own;
	// sweeping here just keeps restarts tidy.
	removed, err := oauthstate.New(deps.MongoDatabase).CleanupExpired(ctx)
	if err != nil {
		logger.Warn("expired OAuth state sweep failed", zap.Error(err))
	} else if removed > 0 {
		logger.Info("swept expired OAuth states", zap.Int64("removed", removed))
	}

	return nil
}
