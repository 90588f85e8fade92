package database_test

import (
	"os"
	"testing"

	"vv-go/internal/config"
	"vv-go/internal/database"
)

func TestNewStoreFromConfig(t *testing.T) {
	t.Run("memory store is migrated and ready", func(t *testing.T) {
		store, err := database.NewStoreFromConfig(config.DatabaseConfig{Type: "memory"}, "host-1")
		if err != nil {
			t.Fatalf("NewStoreFromConfig() error = %v", err)
		}
		defer store.Close()

		if err := store.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() error = %v", err)
		}
		if _, err := store.GetAllEntries(); err != nil {
			t.Errorf("GetAllEntries() error = %v", err)
		}
	})

	t.Run("sqlite store creates the data directory", func(t *testing.T) {
		dataDir := t.TempDir() + "/db"
		cfg := config.DatabaseConfig{Type: "sqlite", DataDir: dataDir}

		if err := database.Migrate(cfg, "host-1"); err != nil {
			t.Fatalf("Migrate() error = %v", err)
		}

		store, err := database.NewStoreFromConfig(cfg, "host-1")
		if err != nil {
			t.Fatalf("NewStoreFromConfig() error = %v", err)
		}
		defer store.Close()

		if err := store.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() error = %v", err)
		}

		path, err := database.StorePath(cfg, "host-1")
		if err != nil {
			t.Fatalf("StorePath() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("database file missing: %v", err)
		}
	})

	t.Run("sqlite without data_dir is rejected", func(t *testing.T) {
		_, err := database.NewStoreFromConfig(config.DatabaseConfig{Type: "sqlite"}, "host-1")
		if err == nil {
			t.Fatal("NewStoreFromConfig() succeeded without data_dir")
		}
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		_, err := database.NewStoreFromConfig(config.DatabaseConfig{Type: "postgres"}, "host-1")
		if err == nil {
			t.Fatal("NewStoreFromConfig() succeeded for unknown type")
		}
	})
}

func TestStorePath(t *testing.T) {
	_, err := database.StorePath(config.DatabaseConfig{Type: "memory"}, "host-1")
	if err == nil {
		t.Fatal("StorePath() succeeded for memory database")
	}
}
