package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. SURAT_DATABASE_DSN.
const EnvPrefix = "SURAT"

// SetDefaults registers every key of DefaultYAMLConfig on v. Registering the
// keys is what lets AutomaticEnv pick up nested settings during Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := DefaultYAMLConfig()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.cors.origins", d.Server.CORS.Origins)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("auth.bcrypt_cost", d.Auth.BcryptCost)
	v.SetDefault("auth.min_password_length", d.Auth.MinPasswordLength)
	v.SetDefault("auth.protect_users_api", d.Auth.ProtectUsersAPI)
	v.SetDefault("bootstrap.enabled", d.Bootstrap.Enabled)
	v.SetDefault("bootstrap.email", d.Bootstrap.Email)
	v.SetDefault("bootstrap.password", d.Bootstrap.Password)
	v.SetDefault("bootstrap.name", d.Bootstrap.Name)
	v.SetDefault("mcp.transport", d.MCP.Transport)
	v.SetDefault("mcp.port", d.MCP.Port)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// BindEnv enables SURAT_* overrides for nested keys (server.port becomes
// SURAT_SERVER_PORT).
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// FromViper decodes the effective configuration held by v.
func FromViper(v *viper.Viper) (*YAMLConfig, error) {
	cfg := DefaultYAMLConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile returns explicit if set, otherwise the first of
// ./surat.yaml and $HOME/.surat/surat.yaml that exists, otherwise "".
func FindConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	candidates := []string{"surat.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".surat", "surat.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// ReadExpanded loads the YAML file at path into v after expanding ${VAR}
// references, the same way LoadYAMLConfig does.
func ReadExpanded(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(os.ExpandEnv(string(data)))); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}
