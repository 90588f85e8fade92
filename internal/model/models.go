package model

import (
	"database/sql"
	"time"
)

// CatalogEntry represents one cataloged video file.
type CatalogEntry struct {
	ID          string    // UUID, assigned on creation, never changes
	Path        string    // Absolute path on host; unique among live entries
	SizeBytes   int64     // Size at time of scan
	Fingerprint string    // SHA-256 hex digest of the full file contents, set once
	AddedAt     time.Time // When the entry was cataloged
	// DuplicateOf is the canonical entry ID, or empty. Denormalized display
	// bookkeeping rewritten on every grouping pass; never a grouping input.
	DuplicateOf string
}

// Operation records one CLI invocation that mutated the catalog.
type Operation struct {
	ID         int64
	Operation  string // CLI command, e.g. "Scan", "Dedupe"
	Parameters string
	Status     string // "success" or "error"
	StartedAt  time.Time
	FinishedAt sql.NullTime
}
