package migrations

import "embed"

// FS contains the embedded Postgres schema for contract desk records.
//
//go:embed *.sql
var FS embed.FS
