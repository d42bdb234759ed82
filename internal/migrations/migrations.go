// AngelaMos | 2026
// migrations.go

// Package migrations embeds the goose SQL migrations for the users,
// messages and refresh_tokens tables.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
