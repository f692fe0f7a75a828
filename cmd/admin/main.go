package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/entreprenapp/backoffice/internal/app"
	"github.com/entreprenapp/backoffice/internal/config"
	"github.com/entreprenapp/backoffice/internal/database"
)

// env is opened by the root command before any subcommand runs.
type env struct {
	cfg *config.Config
	db  *sql.DB
}

func (e *env) services(ctx context.Context) (*app.Services, error) {
	return app.New(ctx, e.cfg, e.db)
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "admin",
		Short:         "Operator commands for the back office",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			logger, err := cfg.NewLogger(cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("building logger: %w", err)
			}

			slog.SetDefault(logger)

			db, err := database.New(cfg.ConnectionString())
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}

			e.cfg, e.db = cfg, db

			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if e.db == nil {
				return nil
			}

			return e.db.Close()
		},
	}

	root.AddCommand(
		newMigrateCmd(e),
		newCreateSuperuserCmd(e),
		newImportItemsCmd(e),
		newRenderCmd(e),
	)

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
