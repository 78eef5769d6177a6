package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	mssql "github.com/microsoft/go-mssqldb"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Supported values for Options.Driver.
const (
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
	DriverSQLServer = "sqlserver"
)

// dialect captures what differs between backends: the database/sql driver
// name, the DDL, DSN preparation, and how a unique violation is reported.
type dialect struct {
	name        string
	driverName  string
	migrations  []string
	singleConn  bool
	prepareDSN  func(dsn string) (string, error)
	isDuplicate func(err error) bool
}

var dialects = map[string]*dialect{
	DriverSQLite: {
		name:        DriverSQLite,
		driverName:  "sqlite",
		migrations:  sqliteMigrations,
		singleConn:  true, // SQLite doesn't support concurrent writes
		prepareDSN:  sqliteDSN,
		isDuplicate: sqliteDuplicate,
	},
	DriverPostgres: {
		name:        DriverPostgres,
		driverName:  "pgx",
		migrations:  postgresMigrations,
		prepareDSN:  passthroughDSN,
		isDuplicate: postgresDuplicate,
	},
	DriverMySQL: {
		name:        DriverMySQL,
		driverName:  "mysql",
		migrations:  mysqlMigrations,
		prepareDSN:  mysqlDSN,
		isDuplicate: mysqlDuplicate,
	},
	DriverSQLServer: {
		name:        DriverSQLServer,
		driverName:  "sqlserver",
		migrations:  sqlserverMigrations,
		prepareDSN:  passthroughDSN,
		isDuplicate: sqlserverDuplicate,
	},
}

// Drivers returns the supported driver names.
func Drivers() []string {
	return []string{DriverSQLite, DriverPostgres, DriverMySQL, DriverSQLServer}
}

func lookupDialect(driver string) (*dialect, error) {
	if driver == "" {
		driver = DriverSQLite
	}
	switch driver {
	case "pgx", "postgresql":
		driver = DriverPostgres
	case "mssql":
		driver = DriverSQLServer
	case "sqlite3":
		driver = DriverSQLite
	}
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q (supported: %s)", driver, strings.Join(Drivers(), ", "))
	}
	return d, nil
}

func passthroughDSN(dsn string) (string, error) {
	if dsn == "" {
		return "", errors.New("dsn is required")
	}
	return dsn, nil
}

// sqliteDSN turns a file path into a modernc DSN with WAL and a busy
// timeout. Empty means a private in-memory database.
func sqliteDSN(dsn string) (string, error) {
	if dsn == "" || dsn == ":memory:" {
		return ":memory:", nil
	}
	if strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, "?") {
		return dsn, nil
	}
	if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return dsn + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", nil
}

// mysqlDSN forces parseTime so DATETIME scans into time.Time, and
// clientFoundRows so an UPDATE that matches a row always reports it.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

func sqliteDuplicate(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

func postgresDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

func mysqlDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062 // ER_DUP_ENTRY
	}
	return false
}

func sqlserverDuplicate(err error) bool {
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		// 2627: unique constraint, 2601: unique index
		return msErr.Number == 2627 || msErr.Number == 2601
	}
	return false
}
