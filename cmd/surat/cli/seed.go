package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sekolah/surat/internal/model"
	"github.com/sekolah/surat/internal/service"
)

func newSeedCmd() *cobra.Command {
	var (
		email    string
		password string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the bootstrap admin account if it does not exist",
		Long: `Create the bootstrap admin account described by the bootstrap.* settings
(admin@sekolah.com / admin123 by default). An existing account with the same
email is left unchanged, so the command is safe to run repeatedly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			in := model.NewUser{
				Name:     cfg.Bootstrap.Name,
				Email:    cfg.Bootstrap.Email,
				Password: cfg.Bootstrap.Password,
			}
			if email != "" {
				in.Email = email
			}
			if password != "" {
				in.Password = password
			}
			if name != "" {
				in.Name = name
			}

			return withUsers(cmd.Context(), func(users *service.UserService) error {
				created, err := users.EnsureBootstrapAdmin(cmd.Context(), in)
				if err != nil {
					return describeError(err)
				}
				if created {
					fmt.Fprintf(cmd.OutOrStdout(), "Created admin %q\n", in.Email)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Admin %q already exists; left unchanged\n", in.Email)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Override bootstrap.email")
	cmd.Flags().StringVar(&password, "password", "", "Override bootstrap.password")
	cmd.Flags().StringVar(&name, "name", "", "Override bootstrap.name")

	return cmd
}
