package migrations

import "embed"

// FS contains embedded SQLite migrations for contract desk records.
//
//go:embed *.sql
var FS embed.FS
