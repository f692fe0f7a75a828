package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/entreprenapp/backoffice/internal/audit"
	"github.com/entreprenapp/backoffice/internal/user"
)

func newCreateSuperuserCmd(e *env) *cobra.Command {
	var params user.CreateParams

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create an administrator account",
		Long: `Create an administrator account.

The password is read from --password, then ADMIN_PASSWORD, and is
prompted for when neither is set.`,
		Example: `  admin createsuperuser --email boss@example.com --first-name Ada`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if params.Password == "" {
				params.Password = os.Getenv("ADMIN_PASSWORD")
			}

			if params.Password == "" {
				if err := promptPassword(&params.Password); err != nil {
					return err
				}
			}

			svc, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			params.Superuser = true

			u, err := svc.Users.CreateUser(cmd.Context(), audit.System, params)
			if err != nil {
				return fmt.Errorf("creating superuser: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "superuser %s created (%s)\n", u.Email, u.ID)

			return nil
		},
	}

	cmd.Flags().StringVar(&params.Email, "email", "", "login email")
	cmd.Flags().StringVar(&params.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&params.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&params.Password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func promptPassword(out *string) error {
	var confirm string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(out).
				Validate(user.ValidatePassword),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&confirm).
				Validate(func(s string) error {
					if s != *out {
						return fmt.Errorf("passwords do not match")
					}
					return nil
				}),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	return nil
}
