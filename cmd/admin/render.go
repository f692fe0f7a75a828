package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/entreprenapp/backoffice/internal/audit"
	"github.com/entreprenapp/backoffice/internal/render"
	"github.com/entreprenapp/backoffice/internal/sales"
)

func newRenderCmd(e *env) *cobra.Command {
	var (
		output string
		html   bool
	)

	cmd := &cobra.Command{
		Use:   "render [estimate|invoice] [id]",
		Short: "Render a document to PDF or HTML",
		Example: `  admin render invoice 3f1c... -o invoice.pdf
  admin render estimate 3f1c... --html`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := sales.ParseKind(args[0])
			if err != nil {
				return err
			}

			id, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("parsing id: %w", err)
			}

			svc, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			doc, err := svc.Sales.Get(cmd.Context(), audit.System, kind, id)
			if err != nil {
				return err
			}

			var out []byte

			if html {
				out, err = svc.Renderer.HTML(doc)
			} else {
				out, err = svc.Renderer.PDF(cmd.Context(), doc)
			}

			if err != nil {
				return err
			}

			if output == "" {
				if html {
					_, err = cmd.OutOrStdout().Write(out)
					return err
				}

				output = render.FileName(doc)
			}

			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (defaults to the document title)")
	cmd.Flags().BoolVar(&html, "html", false, "render HTML instead of PDF")

	return cmd
}
