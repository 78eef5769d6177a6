package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sekolah/surat/internal/model"
	"github.com/sekolah/surat/internal/server"
)

const banner = `
 ___ _   _ ____      _  _____
/ __| | | |  _ \    / \|_   _|
\__ \ |_| | |_) |  / _ \ | |
|___/\___/|_| \_\ /_/ \_\|_|
`

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP server for login (/api/auth/login) and account management
(/api/users). On first start the bootstrap admin account is created unless
bootstrap.enabled is false.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().Bool("protect-users", false, "Require admin HTTP Basic credentials on /api/users")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	viper.BindPFlag("auth.protect_users_api", cmd.Flags().Lookup("protect-users"))

	return cmd
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	shutdown, err := cfg.ShutdownTimeout()
	if err != nil {
		return err
	}

	fmt.Print(banner)
	fmt.Println()

	logger := newLogger(cfg)

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("credential store ready", "driver", st.Driver(), "data_dir", resolveDataDir())

	users, auth := newServices(cfg, st, logger)

	if cfg.Bootstrap.Enabled {
		created, err := users.EnsureBootstrapAdmin(ctx, model.NewUser{
			Name:     cfg.Bootstrap.Name,
			Email:    cfg.Bootstrap.Email,
			Password: cfg.Bootstrap.Password,
		})
		if err != nil {
			st.Close()
			return fmt.Errorf("seed bootstrap admin: %w", err)
		}
		if created {
			logger.Warn("bootstrap admin created; change its password", "email", cfg.Bootstrap.Email)
		}
	}

	srv := server.New(server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: shutdown,
		CORSOrigins:     cfg.Server.CORS.Origins,
		ProtectUsers:    cfg.Auth.ProtectUsersAPI,
		Version:         versionString(),
	}, st, users, auth, logger)

	fmt.Printf("→ surat %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Login:      POST http://%s:%d/api/auth/login\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Health:     http://%s:%d/healthz\n", cfg.Server.Host, cfg.Server.Port)
	if cfg.Auth.ProtectUsersAPI {
		fmt.Println("→ /api/users requires admin Basic credentials")
	}
	fmt.Println()

	// ListenAndServe closes the store on shutdown.
	return srv.ListenAndServe()
}
