// Package migrations embeds the PostgreSQL schema as golang-migrate SQL files.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed *.sql
var files embed.FS

// FS returns the migration files rooted at the migration directory.
func FS() fs.FS {
	return files
}
