package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/entreprenapp/backoffice/internal/audit"
)

func newImportItemsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "import-items [csv-file]",
		Short: "Import catalog items from a CSV file",
		Long: `Import catalog items from a CSV file.

The file needs a header row naming at least the label and the price
excluding tax. Nothing is stored when any row is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening file: %w", err)
			}
			defer f.Close()

			svc, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			items, err := svc.Importer.Import(cmd.Context(), audit.System, f)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d item(s)\n", len(items))

			return nil
		},
	}
}
