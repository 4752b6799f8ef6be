// Package migrations embeds the SQL schema for both storage drivers.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)
