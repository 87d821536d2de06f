package migrations

import "embed"

// Files exposes embedded SQL migration files, one subdirectory per backend.
//
//go:embed sqlite/*.sql postgres/*.sql
var Files embed.FS
