package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sekolah/surat/internal/apperr"
	"github.com/sekolah/surat/internal/model"
	"github.com/sekolah/surat/internal/service"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users"},
		Short:   "Manage console accounts",
		Long:    "Create, list, update and delete the accounts that can sign in to the correspondence console.",
	}

	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserListCmd())
	cmd.AddCommand(newUserUpdateCmd())
	cmd.AddCommand(newUserDeleteCmd())

	return cmd
}

// withUsers opens the store, runs fn and closes the store again.
func withUsers(ctx context.Context, fn func(*service.UserService) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	users, _ := newServices(cfg, st, newLogger(cfg))
	return fn(users)
}

// describeError renders a service error with its field hints.
func describeError(err error) error {
	e := apperr.As(err)
	if len(e.Fields) == 0 {
		return fmt.Errorf("%s", e.Message)
	}
	hints := make([]string, 0, len(e.Fields))
	for _, f := range []string{"name", "email", "password", "role"} {
		if h, ok := e.Fields[f]; ok {
			hints = append(hints, f+": "+h)
		}
	}
	return fmt.Errorf("%s (%s)", e.Message, strings.Join(hints, "; "))
}

// ---------- user create ----------

func newUserCreateCmd() *cobra.Command {
	var (
		name     string
		email    string
		password string
		role     string
		inactive bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a console account",
		Example: `  surat user create --name "Tata Usaha" --email tu@sekolah.com --password rahasia1
  surat user create --name Kepala --email kepsek@sekolah.com --role admin  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				pw, err := promptNewPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				password = pw
			}
			in := model.NewUser{Name: name, Email: email, Password: password, Role: role}
			if inactive {
				in.IsActive = new(bool)
			}
			return withUsers(cmd.Context(), func(users *service.UserService) error {
				u, err := users.Create(cmd.Context(), in)
				if err != nil {
					return describeError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %q (id %s, role %s)\n", u.Email, u.ID, u.Role)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&email, "email", "", "Login email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted if omitted)")
	cmd.Flags().StringVar(&role, "role", model.DefaultRole, "Role: admin or user")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "Create the account disabled")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("name")

	return cmd
}

func promptNewPassword(in io.Reader, out io.Writer) (string, error) {
	r := newSecretReader(in, out)
	pw, err := r.read("Password: ")
	if err != nil {
		return "", err
	}
	confirm, err := r.read("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	if pw != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return pw, nil
}

// ---------- user list ----------

func newUserListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all console accounts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(cmd.Context(), func(users *service.UserService) error {
				list, err := users.List(cmd.Context())
				if err != nil {
					return describeError(err)
				}
				return printUsers(cmd.OutOrStdout(), list, jsonOutput)
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func printUsers(w io.Writer, users []model.AdminUser, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(users)
	}

	if len(users) == 0 {
		fmt.Fprintln(w, "No users. Use 'surat user create' or 'surat seed' to add one.")
		return nil
	}

	fmt.Fprintf(w, "%-36s %-30s %-24s %-6s %-6s\n", "ID", "EMAIL", "NAME", "ROLE", "ACTIVE")
	fmt.Fprintf(w, "%-36s %-30s %-24s %-6s %-6s\n", "--", "-----", "----", "----", "------")
	for _, u := range users {
		active := "yes"
		if !u.IsActive {
			active = "no"
		}
		fmt.Fprintf(w, "%-36s %-30s %-24s %-6s %-6s\n", u.ID, u.Email, u.Name, u.Role, active)
	}
	return nil
}

// ---------- user update ----------

func newUserUpdateCmd() *cobra.Command {
	var (
		name     string
		email    string
		password string
		role     string
		active   bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a console account",
		Long: `Update a console account. Only the flags you pass are changed; an empty
--password keeps the current password.`,
		Example: `  surat user update 0192f3... --active=false
  surat user update 0192f3... --password newsecret`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.UserPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("email") {
				patch.Email = &email
			}
			if flags.Changed("password") {
				patch.Password = &password
			}
			if flags.Changed("role") {
				patch.Role = &role
			}
			if flags.Changed("active") {
				patch.IsActive = &active
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to update: pass at least one of --name, --email, --password, --role, --active")
			}

			return withUsers(cmd.Context(), func(users *service.UserService) error {
				u, err := users.Update(cmd.Context(), args[0], patch)
				if err != nil {
					return describeError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated user %q\n", u.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().StringVar(&email, "email", "", "New login email")
	cmd.Flags().StringVar(&password, "password", "", "New password")
	cmd.Flags().StringVar(&role, "role", "", "New role: admin or user")
	cmd.Flags().BoolVar(&active, "active", true, "Enable or disable sign-in")

	return cmd
}

// ---------- user delete ----------

func newUserDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a console account permanently",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(cmd.Context(), func(users *service.UserService) error {
				if err := users.Delete(cmd.Context(), args[0]); err != nil {
					return describeError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s\n", args[0])
				return nil
			})
		},
	}
	return cmd
}
