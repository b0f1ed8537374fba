// Package migrations embeds the goose SQL migrations for the sandbox schema:
// tables, stored procedures and the materialized rank views.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
