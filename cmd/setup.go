package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ratingsync/internal/shared"
	"github.com/desertthunder/ratingsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the embedded example config to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		return fmt.Errorf("%w: --config", shared.ErrMissingArgument)
	}

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("%s\n", ui.Styles.Success("✓ Config written to "+configPath))
	r.writePlain("%s\n", ui.Styles.Help("Set credentials.email and credentials.password (or RATINGSYNC_EMAIL/RATINGSYNC_PASSWORD in .env)."))
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := shared.AppliedMigrations(db)
	if err != nil {
		return err
	}
	for _, m := range applied {
		r.logger.Debug("migration applied", "version", m.Version, "at", m.AppliedAt)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("%s\n", ui.Styles.Success(fmt.Sprintf("✓ Database ready at %s (%d migrations applied)", r.config.Database.Path, len(applied))))
	return nil
}
