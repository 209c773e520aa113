// Package migrations contains embedded SQL migrations for the SQLite store.
package migrations

import "embed"

//go:embed transfers/*.sql
var TransfersFS embed.FS
