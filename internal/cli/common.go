package cli

import (
	"context"

	"github.com/mrlokans/lessonstore/internal/config"
	"github.com/mrlokans/lessonstore/internal/entrypoint"
)

// openApp loads the environment configuration, applies the -db override and
// opens the data layer.
func openApp(ctx context.Context, dbPath string) (*entrypoint.App, *config.Config, error) {
	cfg := config.NewConfig()
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	app, err := entrypoint.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return app, cfg, nil
}
