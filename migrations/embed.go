// Package migrations embeds the SQL schema so the server can migrate on startup.
package migrations

import "embed"

// Postgres holds the golang-migrate files for the relational ledger.
//
//go:embed postgres/*.sql
var Postgres embed.FS

// ClickHouse holds the statements for the sponsor payment audit table.
//
//go:embed clickhouse/*.sql
var ClickHouse embed.FS
