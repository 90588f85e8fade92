package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vv-go/internal/database/migrations"
	"vv-go/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements the catalog.Store interface using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite store connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, path: ""}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Entry operations

const entryColumns = "id, path, size_bytes, fingerprint, added_at, duplicate_of"

// scanEntry reads one catalog entry row.
func scanEntry(row interface{ Scan(...any) error }) (*model.CatalogEntry, error) {
	var entry model.CatalogEntry
	var duplicateOf sql.NullString
	err := row.Scan(&entry.ID, &entry.Path, &entry.SizeBytes, &entry.Fingerprint, &entry.AddedAt, &duplicateOf)
	if err != nil {
		return nil, err
	}
	entry.DuplicateOf = duplicateOf.String
	return &entry, nil
}

func (s *SQLiteStore) GetAllEntries() ([]*model.CatalogEntry, error) {
	rows, err := s.db.Query("SELECT " + entryColumns + " FROM catalog_entries ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.CatalogEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading entries: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStore) FindEntryByPath(path string) (*model.CatalogEntry, error) {
	row := s.db.QueryRow("SELECT "+entryColumns+" FROM catalog_entries WHERE path = ?", path)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding entry by path: %w", err)
	}
	return entry, nil
}

func (s *SQLiteStore) EntryExists(path string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM catalog_entries WHERE path = ?", path).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("checking entry existence: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) CreateEntry(entry *model.CatalogEntry) error {
	duplicateOf := sql.NullString{String: entry.DuplicateOf, Valid: entry.DuplicateOf != ""}
	_, err := s.db.Exec(
		"INSERT INTO catalog_entries (id, path, size_bytes, fingerprint, added_at, duplicate_of) VALUES (?, ?, ?, ?, ?, ?)",
		entry.ID, entry.Path, entry.SizeBytes, entry.Fingerprint, entry.AddedAt, duplicateOf,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("entry already exists for path %s: %w", entry.Path, err)
		}
		return fmt.Errorf("creating entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RemoveEntry(id string) error {
	result, err := s.db.Exec("DELETE FROM catalog_entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("removing entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking removal result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no entry with id %s", id)
	}
	return nil
}

// MarkDuplicates rewrites the duplicate bookkeeping in one transaction:
// entries named in canonicalByID point at their canonical entry, every
// other entry is cleared.
func (s *SQLiteStore) MarkDuplicates(canonicalByID map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("UPDATE catalog_entries SET duplicate_of = NULL WHERE duplicate_of IS NOT NULL"); err != nil {
		return fmt.Errorf("clearing duplicate bookkeeping: %w", err)
	}

	for id, canonicalID := range canonicalByID {
		if _, err := tx.Exec("UPDATE catalog_entries SET duplicate_of = ? WHERE id = ?", canonicalID, id); err != nil {
			return fmt.Errorf("marking entry %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Operation tracking

func (s *SQLiteStore) CreateOperation(operation string, parameters string) (*model.Operation, error) {
	startedAt := time.Now()
	result, err := s.db.Exec(
		"INSERT INTO catalog_operations (operation, parameters, status, started_at) VALUES (?, ?, 'success', ?)",
		operation, parameters, startedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading operation id: %w", err)
	}

	return &model.Operation{
		ID:         id,
		Operation:  operation,
		Parameters: parameters,
		Status:     "success",
		StartedAt:  startedAt,
	}, nil
}

func (s *SQLiteStore) FinishOperation(id int64, status string) error {
	_, err := s.db.Exec(
		"UPDATE catalog_operations SET finished_at = ?, status = ? WHERE id = ?",
		time.Now(), status, id,
	)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListOperations(limit int) ([]*model.Operation, error) {
	rows, err := s.db.Query(
		"SELECT id, operation, parameters, status, started_at, finished_at FROM catalog_operations ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*model.Operation
	for rows.Next() {
		var op model.Operation
		if err := rows.Scan(&op.ID, &op.Operation, &op.Parameters, &op.Status, &op.StartedAt, &op.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading operations: %w", err)
	}
	return ops, nil
}

func (s *SQLiteStore) MaxOperationID() (int64, error) {
	var id int64
	err := s.db.QueryRow("SELECT COALESCE(MAX(id), 0) FROM catalog_operations").Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("getting max operation id: %w", err)
	}
	return id, nil
}

// Lifecycle

// CheckMigrations verifies the schema is at the latest migration version.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo writes a consistent snapshot of the database to the given path
// using VACUUM INTO, which is safe against concurrent readers.
func (s *SQLiteStore) BackupTo(path string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteStore) Path() string {
	return s.path
}
