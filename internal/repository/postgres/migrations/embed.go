// Package migrations holds the storefront's PostgreSQL schema.
package migrations

import "embed"

// FS contains every *.up.sql file, applied in name order by
// database.RunMigrations.
//
//go:embed *.sql
var FS embed.FS
