// Package migrations embeds the goose SQL migrations for the rail tickets
// schema. The API server applies them with --migrate; integration tests
// apply them in TestMain.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
