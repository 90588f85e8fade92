package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vv-go/internal/catalog"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestOSFilesystem_Resolve(t *testing.T) {
	m := NewOSFilesystem(nil)

	t.Run("resolves a regular file", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "a.mp4")
		writeFile(t, file, []byte("content"))

		p, err := m.Resolve(file)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if p.IsDir() {
			t.Error("IsDir() = true for a file")
		}
		if p.Info().Size() != int64(len("content")) {
			t.Errorf("Size() = %d, want %d", p.Info().Size(), len("content"))
		}
	})

	t.Run("resolves a directory", func(t *testing.T) {
		dir := t.TempDir()

		p, err := m.Resolve(dir)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if !p.IsDir() {
			t.Error("IsDir() = false for a directory")
		}
	})

	t.Run("fails for a missing path", func(t *testing.T) {
		_, err := m.Resolve(filepath.Join(t.TempDir(), "nope"))
		if err == nil {
			t.Fatal("Resolve() succeeded for missing path")
		}
	})
}

func TestOSFilesystem_FindFiles(t *testing.T) {
	t.Run("recursive walk finds nested regular files", func(t *testing.T) {
		m := NewOSFilesystem(nil)
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.mp4"), []byte("a"))
		writeFile(t, filepath.Join(dir, "sub", "b.mp4"), []byte("b"))

		p, err := m.Resolve(dir)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		files, err := m.FindFiles(p, true)
		if err != nil {
			t.Fatalf("FindFiles() error = %v", err)
		}
		if len(files) != 2 {
			t.Errorf("found %d files, want 2", len(files))
		}
	})

	t.Run("flat listing skips subdirectories", func(t *testing.T) {
		m := NewOSFilesystem(nil)
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.mp4"), []byte("a"))
		writeFile(t, filepath.Join(dir, "sub", "b.mp4"), []byte("b"))

		p, err := m.Resolve(dir)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		files, err := m.FindFiles(p, false)
		if err != nil {
			t.Fatalf("FindFiles() error = %v", err)
		}
		if len(files) != 1 {
			t.Errorf("found %d files, want 1", len(files))
		}
	})

	t.Run("ignore patterns filter by relative path", func(t *testing.T) {
		m := NewOSFilesystem([]string{"*.part", "extras/sample.mp4"})
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.mp4"), []byte("a"))
		writeFile(t, filepath.Join(dir, "b.mp4.part"), []byte("b"))
		writeFile(t, filepath.Join(dir, "extras", "sample.mp4"), []byte("c"))

		p, err := m.Resolve(dir)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		files, err := m.FindFiles(p, true)
		if err != nil {
			t.Fatalf("FindFiles() error = %v", err)
		}
		if len(files) != 1 {
			t.Fatalf("found %d files, want 1", len(files))
		}
		if filepath.Base(files[0].String()) != "a.mp4" {
			t.Errorf("kept %s, want a.mp4", files[0].String())
		}
	})

	t.Run("rejects a non-directory", func(t *testing.T) {
		m := NewOSFilesystem(nil)
		dir := t.TempDir()
		file := filepath.Join(dir, "a.mp4")
		writeFile(t, file, []byte("a"))

		p, err := m.Resolve(file)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if _, err := m.FindFiles(p, true); err == nil {
			t.Fatal("FindFiles() succeeded on a file")
		}
	})
}

func TestOSFilesystem_DeleteFile(t *testing.T) {
	m := NewOSFilesystem(nil)

	t.Run("removes an existing file", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "a.mp4")
		writeFile(t, file, []byte("a"))

		if err := m.DeleteFile(file); err != nil {
			t.Fatalf("DeleteFile() error = %v", err)
		}
		if _, err := os.Stat(file); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("file still exists after delete")
		}
	})

	t.Run("classifies a missing file", func(t *testing.T) {
		err := m.DeleteFile(filepath.Join(t.TempDir(), "nope.mp4"))
		if !errors.Is(err, catalog.ErrFileNotFound) {
			t.Fatalf("DeleteFile() error = %v, want ErrFileNotFound", err)
		}
	})
}
