package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sekolah/surat/internal/openapi"
)

func newOpenAPICmd() *cobra.Command {
	var (
		outputFile   string
		baseURL      string
		protectUsers bool
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate the OpenAPI specification",
		Long: `Generate the OpenAPI 3 document for the login and account management API.
The same document is served by a running server at /openapi.json.`,
		Example: `  surat openapi                                  # print to stdout
  surat openapi -o openapi.json --base-url https://surat.sekolah.local`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("protect-users") {
				if cfg, err := loadConfig(); err == nil {
					protectUsers = cfg.Auth.ProtectUsersAPI
				}
			}
			doc := openapi.Generate(openapi.Options{
				BaseURL:      baseURL,
				Version:      versionString(),
				ProtectUsers: protectUsers,
			})
			b, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal openapi document: %w", err)
			}

			if outputFile == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}
			if err := os.WriteFile(outputFile, append(b, '\n'), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outputFile, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write spec to file instead of stdout")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Server URL to list in the document")
	cmd.Flags().BoolVar(&protectUsers, "protect-users", false, "Document HTTP Basic auth on /api/users (default from auth.protect_users_api)")

	return cmd
}
