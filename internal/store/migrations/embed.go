// Package migrations embeds the schema for each storage dialect.
package migrations

import "embed"

// FS holds the SQL files, one directory per dialect.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

// Dialects.
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)
