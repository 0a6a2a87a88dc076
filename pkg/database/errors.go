package database

import "errors"

var (
	// ErrNotReady indicates the database connection has not been established.
	ErrNotReady = errors.New("database not ready")
	// ErrNoMigrations indicates Migrate was called on a system created without a migration source.
	ErrNoMigrations = errors.New("no migration source configured")
)
