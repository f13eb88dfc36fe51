// Package migrations embeds the SQL migration files applied by goose
// when a store opens.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
