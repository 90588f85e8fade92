package catalog

import "vv-go/internal/model"

// Store provides an interface for catalog persistence.
// Lookups that find nothing return (nil, nil) rather than an error.
type Store interface {
	// Entry operations

	// GetAllEntries returns every live catalog entry.
	GetAllEntries() ([]*model.CatalogEntry, error)

	// FindEntryByPath returns the entry with an exact path match.
	FindEntryByPath(path string) (*model.CatalogEntry, error)

	// EntryExists reports whether a live entry exists for the given path.
	EntryExists(path string) (bool, error)

	// CreateEntry persists a new entry. The caller assigns ID, Fingerprint
	// and AddedAt; the store enforces path uniqueness.
	CreateEntry(entry *model.CatalogEntry) error

	// RemoveEntry deletes the entry with the given ID.
	RemoveEntry(id string) error

	// MarkDuplicates rewrites the denormalized duplicate bookkeeping:
	// every entry ID present in canonicalByID gets its canonical entry ID
	// recorded, every other entry is cleared.
	MarkDuplicates(canonicalByID map[string]string) error

	// Operation log

	// CreateOperation records the start of a mutating CLI invocation.
	CreateOperation(operation, parameters string) (*model.Operation, error)

	// FinishOperation stamps the finish time and final status.
	FinishOperation(id int64, status string) error

	// ListOperations returns the most recent operations, newest first.
	ListOperations(limit int) ([]*model.Operation, error)

	// MaxOperationID returns the highest recorded operation ID, or 0.
	// Used as the snapshot version for vault consistency checks.
	MaxOperationID() (int64, error)

	// Lifecycle

	// CheckMigrations verifies the schema is at the latest version.
	CheckMigrations() error

	// BackupTo writes a consistent snapshot of the store to the given path.
	BackupTo(path string) error

	// Close closes the underlying connection.
	Close() error
}
