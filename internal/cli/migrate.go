package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"walletstats/internal/config"
	applog "walletstats/internal/log"
	"walletstats/internal/storage"
	"walletstats/internal/storage/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the schema migrations of the configured SQL backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap(os.Stderr)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runMigrations(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrations(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	switch cfg.DataBackend {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.SQLiteDBPath), 0755); err != nil {
			return fmt.Errorf("create db directory: %w", err)
		}
		if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
			return err
		}
	case "postgres":
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.RunMigrations(db); err != nil {
			return err
		}
	default:
		return fmt.Errorf("backend %q has no schema to migrate", cfg.DataBackend)
	}

	logger.InfoContext(ctx, "Migrations applied", applog.FieldBackend, cfg.DataBackend, applog.FieldOperation, applog.OpMigrate)
	return nil
}
