package database

import _ "embed"

// Schema is a snapshot of the fully migrated schema, regenerated from the
// migration files. Tests apply it directly to in-memory databases instead
// of running migrations.
//
//go:embed schema.sql
var Schema string

//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"
