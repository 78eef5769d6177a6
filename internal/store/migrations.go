package store

import (
	"context"
	"fmt"
	"strings"
)

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS admin_users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_admin_users_created_at ON admin_users(created_at)`,
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS admin_users (
		id VARCHAR(36) PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role VARCHAR(64) NOT NULL DEFAULT 'user',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_admin_users_created_at ON admin_users(created_at)`,
}

// MySQL has no CREATE INDEX IF NOT EXISTS, so the index lives in the table DDL.
var mysqlMigrations = []string{
	`CREATE TABLE IF NOT EXISTS admin_users (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(64) NOT NULL DEFAULT 'user',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_admin_users_email (email),
		INDEX idx_admin_users_created_at (created_at)
	) CHARACTER SET utf8mb4`,
}

var sqlserverMigrations = []string{
	`IF OBJECT_ID(N'admin_users', N'U') IS NULL
	CREATE TABLE admin_users (
		id NVARCHAR(36) NOT NULL PRIMARY KEY,
		name NVARCHAR(255) NOT NULL DEFAULT '',
		email NVARCHAR(255) NOT NULL CONSTRAINT uq_admin_users_email UNIQUE,
		password_hash NVARCHAR(255) NOT NULL,
		role NVARCHAR(64) NOT NULL DEFAULT 'user',
		is_active BIT NOT NULL DEFAULT 1,
		created_at DATETIME2 NOT NULL,
		updated_at DATETIME2 NOT NULL
	)`,
	`IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = 'idx_admin_users_created_at')
	CREATE INDEX idx_admin_users_created_at ON admin_users(created_at)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for _, m := range s.dialect.migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			// Re-running an ALTER TABLE ADD COLUMN is a no-op.
			if strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
