package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/sekolah/surat/internal/config"
	"github.com/sekolah/surat/internal/password"
	"github.com/sekolah/surat/internal/service"
	"github.com/sekolah/surat/internal/store"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from --data-dir flag,
// SURAT_DATA_DIR env var, or ~/.surat as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("SURAT_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".surat")
}

// newLogger builds the process logger. Logs go to stderr so command output
// on stdout stays machine-readable.
func newLogger(cfg *config.YAMLConfig) *slog.Logger {
	return config.NewLogger(os.Stderr, cfg.Logging, devMode)
}

// openStore opens the configured credential store. The sqlite driver with
// no DSN uses surat.db under the data directory.
func openStore(ctx context.Context, cfg *config.YAMLConfig) (*store.Store, error) {
	opts := store.Options{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN}
	if isSQLite(opts.Driver) && opts.DSN == "" {
		opts.DSN = filepath.Join(resolveDataDir(), "surat.db")
	}
	st, err := store.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	return st, nil
}

func isSQLite(driver string) bool {
	switch strings.ToLower(driver) {
	case "", store.DriverSQLite, "sqlite3":
		return true
	}
	return false
}

// newServices wires the account and login services over st.
func newServices(cfg *config.YAMLConfig, st *store.Store, logger *slog.Logger) (*service.UserService, *service.AuthService) {
	hasher := password.New(cfg.Auth.BcryptCost)
	return service.NewUserService(st, hasher, cfg.Auth.MinPasswordLength, logger),
		service.NewAuthService(st, hasher, logger)
}

// secretReader prompts for passwords. Input is read without echo when it is
// a terminal, line by line otherwise.
type secretReader struct {
	in   io.Reader
	out  io.Writer
	tty  int
	isTT bool
	buf  *bufio.Reader
}

func newSecretReader(in io.Reader, out io.Writer) *secretReader {
	r := &secretReader{in: in, out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.tty, r.isTT = int(f.Fd()), true
	} else {
		r.buf = bufio.NewReader(in)
	}
	return r
}

func (r *secretReader) read(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	if r.isTT {
		b, err := term.ReadPassword(r.tty)
		fmt.Fprintln(r.out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	line, err := r.buf.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
