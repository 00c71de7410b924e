package migrations

import "embed"

// PostgresFS embeds the deployment history schema.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the round snapshot schema.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
