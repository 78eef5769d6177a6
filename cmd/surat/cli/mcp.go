package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	smcp "github.com/sekolah/surat/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for account management",
		Long: `Start a Model Context Protocol (MCP) server that exposes account management
as tools: surat_list_users, surat_get_user, surat_create_user,
surat_update_user and surat_delete_user. Supports stdio (default) and
streamable HTTP transports.

The MCP tools are not gated by credentials; only expose the HTTP transport
on a trusted network.`,
		Example: `  surat mcp                                # stdio mode
  surat mcp --transport http --port 3001   # streamable HTTP`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd)
		},
	}

	cmd.Flags().String("transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().Int("port", 3001, "HTTP port (only used with --transport http)")

	viper.BindPFlag("mcp.transport", cmd.Flags().Lookup("transport"))
	viper.BindPFlag("mcp.port", cmd.Flags().Lookup("port"))

	return cmd
}

func runMCP(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	users, _ := newServices(cfg, st, logger)
	mcpSrv := smcp.NewMCPServer(users, versionString(), logger)

	switch cfg.MCP.Transport {
	case "", "stdio":
		return mcpSrv.ServeStdio()
	case "http":
		return mcpSrv.ServeHTTP(fmt.Sprintf(":%d", cfg.MCP.Port))
	default:
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", cfg.MCP.Transport)
	}
}
