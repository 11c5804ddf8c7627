// Package migrations holds the sqlite schema, applied in file-name order.
package migrations

import "embed"

// FS contains the NNN_name.sql migration files
//
//go:embed *.sql
var FS embed.FS
