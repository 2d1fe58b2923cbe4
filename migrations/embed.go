// Package migrations embeds the goose SQL migrations for the trips,
// activity_logs and geocode_cache tables.
package migrations

import "embed"

// FS holds the migration files. The server applies them at startup and
// testutil applies them before integration tests.
//
//go:embed *.sql
var FS embed.FS
