package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/entreprenapp/backoffice/internal/database"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := database.Migrate(cmd.Context(), e.db); err != nil {
				return err
			}

			slog.Info("schema applied")

			return nil
		},
	}
}
