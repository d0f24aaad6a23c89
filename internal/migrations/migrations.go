// Package migrations embeds the goose SQL migrations of the cinepos schema.
// The statements are portable between SQLite and PostgreSQL.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
