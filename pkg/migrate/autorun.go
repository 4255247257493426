package migrate

import (
	"context"
	"fmt"

	"github.com/ashasetu/ashasetu-backend/pkg/config"
	"github.com/ashasetu/ashasetu-backend/pkg/db"
	"github.com/ashasetu/ashasetu-backend/pkg/db/models"
	"github.com/ashasetu/ashasetu-backend/pkg/logger"
)

// MaybeRun applies the schema at boot when the auto-migrate flag is set.
// Postgres runs the embedded goose migrations; SQLite, used for local runs,
// is brought up with GORM's AutoMigrate on the account model.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})

	if cfg.DB.IsSQLite() {
		logg.Info(ctx, "running gorm automigrate (sqlite)")
		if err := client.DB().WithContext(ctx).AutoMigrate(&models.Account{}); err != nil {
			return fmt.Errorf("automigrate accounts: %w", err)
		}
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	logg.Info(ctx, "running goose migrations (auto-run)")
	if err := RunEmbedded(ctx, sqlDB, Dialect(cfg.DB), "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "goose migrations completed")
	return nil
}
