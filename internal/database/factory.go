package database

import (
	"fmt"
	"os"
	"path/filepath"

	"vv-go/internal/catalog"
	"vv-go/internal/config"
	"vv-go/internal/database/migrations"
)

// NewStoreFromConfig creates a Store implementation based on the database config type.
func NewStoreFromConfig(cfg config.DatabaseConfig, hostID string) (catalog.Store, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dbPath := filepath.Join(cfg.DataDir, hostID+".db")
		return NewSQLiteStore(dbPath)
	case "memory":
		db, err := OpenConnection(":memory:")
		if err != nil {
			return nil, err
		}
		// In-memory databases start empty every time; migrate immediately.
		if err := migrations.MigrateUp(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating in-memory database: %w", err)
		}
		return NewSQLiteStoreFromDB(db), nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}

// Migrate brings the on-disk catalog database to the latest schema
// version, creating it if necessary. Used by `vv config init` and
// `vv migrate`; only valid for sqlite databases.
func Migrate(cfg config.DatabaseConfig, hostID string) error {
	dbPath, err := StorePath(cfg, hostID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	db, err := OpenConnection(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	return migrations.MigrateUp(db)
}

// StorePath returns the on-disk path of the sqlite catalog for a host.
// Used by snapshot restore, which replaces the file while no store is open.
func StorePath(cfg config.DatabaseConfig, hostID string) (string, error) {
	if cfg.Type != "sqlite" {
		return "", fmt.Errorf("database type %q has no file path", cfg.Type)
	}
	if cfg.DataDir == "" {
		return "", fmt.Errorf("data_dir required for sqlite database")
	}
	return filepath.Join(cfg.DataDir, hostID+".db"), nil
}

// Compile-time check that SQLiteStore implements catalog.Store interface
var _ catalog.Store = (*SQLiteStore)(nil)
