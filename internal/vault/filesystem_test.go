package vault

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSystemVault_PutGetRoundTrip(t *testing.T) {
	v, err := NewFileSystemVault("test", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	data := []byte("sqlite snapshot bytes")
	if err := v.PutSnapshot("host-1", bytes.NewReader(data), int64(len(data)), 7); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}

	var buf bytes.Buffer
	if err := v.GetSnapshot("host-1", &buf); err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if !bytes.Equal(buf.Bytes(), data) {
		t.Errorf("GetSnapshot() = %q, want %q", buf.Bytes(), data)
	}

	version, err := v.SnapshotVersion("host-1")
	if err != nil {
		t.Fatalf("SnapshotVersion() error = %v", err)
	}
	if version != 7 {
		t.Errorf("SnapshotVersion() = %d, want 7", version)
	}
}

func TestFileSystemVault_ReplacesPreviousSnapshot(t *testing.T) {
	v, err := NewFileSystemVault("test", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	first := []byte("version one")
	if err := v.PutSnapshot("host-1", bytes.NewReader(first), int64(len(first)), 1); err != nil {
		t.Fatalf("first PutSnapshot() error = %v", err)
	}
	second := []byte("version two, longer")
	if err := v.PutSnapshot("host-1", bytes.NewReader(second), int64(len(second)), 2); err != nil {
		t.Fatalf("second PutSnapshot() error = %v", err)
	}

	var buf bytes.Buffer
	if err := v.GetSnapshot("host-1", &buf); err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if !bytes.Equal(buf.Bytes(), second) {
		t.Errorf("GetSnapshot() = %q, want the replacement", buf.Bytes())
	}

	version, err := v.SnapshotVersion("host-1")
	if err != nil {
		t.Fatalf("SnapshotVersion() error = %v", err)
	}
	if version != 2 {
		t.Errorf("SnapshotVersion() = %d, want 2", version)
	}
}

func TestFileSystemVault_SizeMismatchRejected(t *testing.T) {
	root := t.TempDir()
	v, err := NewFileSystemVault("test", root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	data := []byte("short")
	err = v.PutSnapshot("host-1", bytes.NewReader(data), int64(len(data))+10, 1)
	if err == nil {
		t.Fatal("PutSnapshot() with wrong size succeeded")
	}
	if !strings.Contains(err.Error(), "size mismatch") {
		t.Errorf("error = %v, want size mismatch", err)
	}

	// The torn write must not leave a snapshot behind.
	if _, statErr := os.Stat(filepath.Join(root, "snapshots", "host-1.db")); !os.IsNotExist(statErr) {
		t.Error("snapshot file left behind after failed put")
	}
}

func TestFileSystemVault_MissingSnapshot(t *testing.T) {
	v, err := NewFileSystemVault("test", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	version, err := v.SnapshotVersion("nobody")
	if err != nil {
		t.Fatalf("SnapshotVersion() error = %v", err)
	}
	if version != 0 {
		t.Errorf("SnapshotVersion() = %d, want 0 for missing snapshot", version)
	}

	var buf bytes.Buffer
	if err := v.GetSnapshot("nobody", &buf); err == nil {
		t.Fatal("GetSnapshot() for missing host succeeded")
	}
}

func TestFileSystemVault_ValidateSetup(t *testing.T) {
	root := t.TempDir()
	v, err := NewFileSystemVault("test", root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	if err := v.ValidateSetup(); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}

	if err := os.RemoveAll(filepath.Join(root, "snapshots")); err != nil {
		t.Fatalf("removing snapshots dir: %v", err)
	}
	if err := v.ValidateSetup(); err == nil {
		t.Error("ValidateSetup() succeeded with snapshots dir missing")
	}
}
