package migrations

import "embed"

// FS embeds the SQL migration files for the SQLite storage layer.
//
//go:embed *.sql
var FS embed.FS

// PostgresFiles embeds the SQL migration files for the Postgres storage layer.
//
//go:embed postgres/*.sql
var PostgresFiles embed.FS
