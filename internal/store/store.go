// Package store persists admin accounts. SQLite is the default backend;
// Postgres, MySQL and SQL Server are selected by driver name.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sekolah/surat/internal/model"
)

// Options selects and tunes the backing database.
type Options struct {
	Driver string // sqlite (default), postgres, mysql, sqlserver
	DSN    string // for sqlite, a file path; empty means in-memory

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store is the credential store for AdminUser records.
type Store struct {
	db      *sqlx.DB
	dialect *dialect
}

// NewStore opens a SQLite store under dataDir. Pass empty string for in-memory.
func NewStore(dataDir string) (*Store, error) {
	dsn := ""
	if dataDir != "" {
		dsn = filepath.Join(dataDir, "surat.db")
	}
	return Open(context.Background(), Options{Driver: DriverSQLite, DSN: dsn})
}

// Open connects to the database described by opts and applies migrations.
func Open(ctx context.Context, opts Options) (*Store, error) {
	d, err := lookupDialect(opts.Driver)
	if err != nil {
		return nil, err
	}
	dsn, err := d.prepareDSN(opts.DSN)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s database: %w", d.name, err)
	}

	if d.singleConn {
		db.SetMaxOpenConns(1)
	} else {
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(opts.MaxIdleConns)
		}
		if opts.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(opts.ConnMaxLifetime)
		}
	}

	s := &Store{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s database: %w", d.name, err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the configured driver name.
func (s *Store) Driver() string {
	return s.dialect.name
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const userColumns = `id, name, email, password_hash, role, is_active, created_at, updated_at`

// now is truncated to microseconds so what we hand back matches what every
// backend can round-trip.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// CreateUser inserts a new account. ID, CreatedAt and UpdatedAt are assigned
// here. A taken email returns ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, u *model.AdminUser) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate user id: %w", err)
	}
	ts := now()
	u.ID = id.String()
	u.CreatedAt = ts
	u.UpdatedAt = ts

	const q = `INSERT INTO admin_users
		(id, name, email, password_hash, role, is_active, created_at, updated_at)
		VALUES
		(:id, :name, :email, :password_hash, :role, :is_active, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, q, u); err != nil {
		return s.classify("insert user", err)
	}
	return nil
}

// GetUser returns the account with the given id.
func (s *Store) GetUser(ctx context.Context, id string) (*model.AdminUser, error) {
	var u model.AdminUser
	q := s.db.Rebind("SELECT " + userColumns + " FROM admin_users WHERE id = ?")
	if err := s.db.GetContext(ctx, &u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail returns the account with exactly this email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.AdminUser, error) {
	var u model.AdminUser
	q := s.db.Rebind("SELECT " + userColumns + " FROM admin_users WHERE email = ?")
	if err := s.db.GetContext(ctx, &u, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// ListUsers returns all accounts, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]model.AdminUser, error) {
	users := []model.AdminUser{}
	q := "SELECT " + userColumns + " FROM admin_users ORDER BY created_at DESC, id DESC"
	if err := s.db.SelectContext(ctx, &users, q); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// CountUsers returns the number of stored accounts.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM admin_users"); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// UpdateUser writes every mutable column of u and refreshes UpdatedAt.
// CreatedAt and ID are never changed.
func (s *Store) UpdateUser(ctx context.Context, u *model.AdminUser) error {
	u.UpdatedAt = now()

	const q = `UPDATE admin_users SET
		name = :name,
		email = :email,
		password_hash = :password_hash,
		role = :role,
		is_active = :is_active,
		updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, u)
	if err != nil {
		return s.classify("update user", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the account with the given id.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM admin_users WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// classify turns a unique violation into ErrDuplicate and wraps everything
// else with op.
func (s *Store) classify(op string, err error) error {
	if s.dialect.isDuplicate(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrDuplicate, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
