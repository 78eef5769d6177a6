package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sekolah/surat/internal/config"
)

var (
	cfgFile    string
	devMode    bool
	appVersion string // set in Execute, used by serve, mcp and openapi

	configPath string // config file actually read, if any
	configErr  error
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "surat",
		Short: "Admin accounts and login for the school correspondence system",
		Long: `surat runs the login and administrator account backend of the school
correspondence ("surat menyurat") system.

It stores console accounts with bcrypt-hashed passwords, answers login
requests, exposes account management over HTTP and MCP, and can keep a
signed-in identity on this machine for the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./surat.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the SQLite store and session file (default: ~/.surat)")
	cmd.PersistentFlags().BoolVar(&devMode, "dev", false, "Enable development mode (debug logging)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newUserCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)
	config.BindEnv(v)

	configErr = nil
	configPath = config.FindConfigFile(cfgFile)
	if configPath == "" {
		return // config file is optional
	}
	if err := config.ReadExpanded(v, configPath); err != nil {
		configErr = err
	}
}

// loadConfig returns the effective configuration: defaults, then the config
// file, then SURAT_* variables, then bound flags.
func loadConfig() (*config.YAMLConfig, error) {
	if configErr != nil {
		return nil, configErr
	}
	return config.FromViper(viper.GetViper())
}
