package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"pastpapers-go/internal/repository"
	"pastpapers-go/internal/service"
	"pastpapers-go/pkg/token"

	"github.com/spf13/cobra"
)

func newCreateSuperuserCmd(app *appContext) *cobra.Command {
	var email string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "createsuperuser <username>",
		Short: "Create an ADMIN user (password read from stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !passwordStdin {
				return fmt.Errorf("--password-stdin is required")
			}
			raw, err := io.ReadAll(os.Stdin)
			if err != nil {
				return err
			}
			password := strings.TrimSpace(string(raw))

			db, err := app.openDB()
			if err != nil {
				return err
			}
			jwtManager := token.NewJWTManager(app.cfg.JWT.Secret, app.cfg.JWT.AccessTokenExpireHours, app.cfg.JWT.RefreshTokenExpireDays)
			users := service.NewUserService(repository.NewUserRepository(db), repository.NewProfileRepository(db), nil, jwtManager)

			user, err := users.CreateSuperuser(args[0], email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Superuser %q created (id %d).\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}
