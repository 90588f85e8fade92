package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		HostID:  "test-host-abc",
		BaseDir: "/home/user/.local/share/vv",
		LogDir:  "/home/user/.local/share/vv/log",
		Vaults: []VaultConfig{
			{Type: "filesystem", Name: "local", FSVaultRoot: "/backup/vault"},
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  "/home/user/.local/share/vv/keys/vv.pub",
			PrivateKeyPath: "/home/user/.local/share/vv/keys/vv.key",
		},
		Database: DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/vv/db"},
		Scanner: ScannerConfig{
			Extensions: []string{".mp4", ".mkv"},
			Ignore:     []string{"*.part", ".stfolder"},
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.HostID != original.HostID {
		t.Errorf("HostID = %q, want %q", got.HostID, original.HostID)
	}
	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if len(got.Vaults) != 1 {
		t.Fatalf("len(Vaults) = %d, want 1", len(got.Vaults))
	}
	if got.Vaults[0].Type != "filesystem" {
		t.Errorf("Vault.Type = %q, want %q", got.Vaults[0].Type, "filesystem")
	}
	if got.Vaults[0].FSVaultRoot != "/backup/vault" {
		t.Errorf("Vault.FSVaultRoot = %q, want %q", got.Vaults[0].FSVaultRoot, "/backup/vault")
	}
	if got.Encryption.Type != "age" {
		t.Errorf("Encryption.Type = %q, want %q", got.Encryption.Type, "age")
	}
	if got.Encryption.PublicKeyPath != original.Encryption.PublicKeyPath {
		t.Errorf("Encryption.PublicKeyPath = %q, want %q", got.Encryption.PublicKeyPath, original.Encryption.PublicKeyPath)
	}
	if got.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want %q", got.Database.Type, "sqlite")
	}
	if len(got.Scanner.Extensions) != 2 {
		t.Fatalf("len(Scanner.Extensions) = %d, want 2", len(got.Scanner.Extensions))
	}
	if len(got.Scanner.Ignore) != 2 {
		t.Fatalf("len(Scanner.Ignore) = %d, want 2", len(got.Scanner.Ignore))
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("host-1", "/data/vv")

	if cfg.HostID != "host-1" {
		t.Errorf("HostID = %q, want %q", cfg.HostID, "host-1")
	}
	if cfg.BaseDir != "/data/vv" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/vv")
	}
	if cfg.LogDir != "/data/vv/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/vv/log")
	}
	if cfg.Database.Type != "sqlite" || cfg.Database.DataDir != "/data/vv/db" {
		t.Errorf("Database = %+v, want sqlite under /data/vv/db", cfg.Database)
	}
	if len(cfg.Vaults) != 1 || cfg.Vaults[0].FSVaultRoot != "/data/vv/vault" {
		t.Errorf("Vaults = %+v, want one filesystem vault under /data/vv/vault", cfg.Vaults)
	}
	if cfg.Encryption.PublicKeyPath != "/data/vv/keys/vv.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q, want %q", cfg.Encryption.PublicKeyPath, "/data/vv/keys/vv.pub")
	}
	if cfg.Encryption.PrivateKeyPath != "/data/vv/keys/vv.key" {
		t.Errorf("Encryption.PrivateKeyPath = %q, want %q", cfg.Encryption.PrivateKeyPath, "/data/vv/keys/vv.key")
	}
	if cfg.Encryption.Type != "" {
		t.Errorf("Encryption.Type = %q, want disabled by default", cfg.Encryption.Type)
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "vv.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "vv.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "vv.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.HostID != "read-test" {
			t.Errorf("HostID = %q, want %q", got.HostID, "read-test")
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/vv.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
