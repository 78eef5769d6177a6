package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sekolah/surat/internal/apperr"
	"github.com/sekolah/surat/internal/client"
	"github.com/sekolah/surat/internal/session"
)

// defaultServerURL points at a local `surat serve` using the configured port.
func defaultServerURL() string {
	if env := os.Getenv("SURAT_SERVER_URL"); env != "" {
		return env
	}
	port := 8080
	if cfg, err := loadConfig(); err == nil {
		port = cfg.Server.Port
	}
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

// newHolder returns a session holder persisting to the data directory.
func newHolder(serverURL string) *session.Holder {
	h := session.New(client.New(serverURL), session.NewFileStore(resolveDataDir()))
	h.Init()
	return h
}

// ---------- login ----------

func newLoginCmd() *cobra.Command {
	var (
		serverURL string
		email     string
		password  string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to a running server and remember the identity",
		Example: `  surat login --email admin@sekolah.com
  surat login --server http://surat.sekolah.local:8080 --email tu@sekolah.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if serverURL == "" {
				serverURL = defaultServerURL()
			}
			if password == "" {
				pw, err := newSecretReader(cmd.InOrStdin(), cmd.ErrOrStderr()).read("Password: ")
				if err != nil {
					return err
				}
				password = pw
			}

			h := newHolder(serverURL)
			if err := h.SignIn(cmd.Context(), email, password); err != nil {
				e := apperr.As(err)
				if hint, ok := e.Fields["email"]; ok {
					return fmt.Errorf("%s: %s", e.Message, hint)
				}
				if hint, ok := e.Fields["password"]; ok {
					return fmt.Errorf("%s: %s", e.Message, hint)
				}
				return fmt.Errorf("%s", e.Message)
			}

			id := h.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s, role %s)\n", id.Email, id.Name, id.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Server base URL (default http://127.0.0.1:<server.port>, or SURAT_SERVER_URL)")
	cmd.Flags().StringVar(&email, "email", "", "Login email")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted if omitted)")

	return cmd
}

// ---------- logout ----------

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the remembered identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			h := newHolder(defaultServerURL())
			h.SignOut()
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

// ---------- whoami ----------

func newWhoamiCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the remembered identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			h := newHolder(defaultServerURL())
			id := h.Current()
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(id)
			}
			if id == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in. Use 'surat login'.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", id.Name, id.Email)
			fmt.Fprintf(cmd.OutOrStdout(), "  id:     %s\n", id.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "  role:   %s\n", id.Role)
			fmt.Fprintf(cmd.OutOrStdout(), "  active: %v\n", id.IsActive)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
