// Package migrations carries the state repository schema, applied in
// filename order at store open.
package migrations

import "embed"

// FS holds the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS
