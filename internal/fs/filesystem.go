package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"vv-go/internal/catalog"
)

// OSFilesystem is the real filesystem implementation of catalog.Filesystem.
// It performs actual filesystem operations using the os package.
type OSFilesystem struct {
	ignore *IgnoreMatcher
}

// NewOSFilesystem creates a filesystem manager that operates on the real
// filesystem, skipping paths that match the given ignore patterns.
func NewOSFilesystem(ignorePatterns []string) *OSFilesystem {
	return &OSFilesystem{ignore: NewIgnoreMatcher(ignorePatterns)}
}

// Resolve validates a raw path and returns a Path object.
func (m *OSFilesystem) Resolve(rawPath string) (*catalog.Path, error) {
	// Convert to absolute path
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	// Stat the path
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	// Check for special file types we don't support
	mode := info.Mode()
	if mode&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("symlinks not supported: %s", absPath)
	}
	if mode&os.ModeDevice != 0 {
		return nil, fmt.Errorf("device files not supported: %s", absPath)
	}
	if mode&os.ModeNamedPipe != 0 {
		return nil, fmt.Errorf("named pipes not supported: %s", absPath)
	}
	if mode&os.ModeSocket != 0 {
		return nil, fmt.Errorf("sockets not supported: %s", absPath)
	}

	return catalog.NewPath(absPath, info.IsDir(), info), nil
}

// Open opens a file for reading.
func (m *OSFilesystem) Open(path *catalog.Path) (io.ReadCloser, error) {
	if path.IsDir() {
		return nil, fmt.Errorf("cannot open directory as file: %s", path.String())
	}
	return os.Open(path.String())
}

// Stat returns fresh file info for a path.
func (m *OSFilesystem) Stat(path *catalog.Path) (fs.FileInfo, error) {
	return os.Stat(path.String())
}

// FindFiles discovers regular files under the given directory path,
// skipping paths matched by the ignore patterns.
func (m *OSFilesystem) FindFiles(path *catalog.Path, recursive bool) ([]*catalog.Path, error) {
	if !path.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path.String())
	}

	root := path.String()
	var paths []*catalog.Path

	if recursive {
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return fmt.Errorf("computing relative path for %s: %w", p, err)
			}
			if m.ignore.Match(rel) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return fmt.Errorf("stat %s: %w", p, err)
			}
			paths = append(paths, catalog.NewPath(p, false, info))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking directory: %w", err)
		}
	} else {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("reading directory: %w", err)
		}
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			if m.ignore.Match(entry.Name()) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
			}
			fullPath := filepath.Join(root, entry.Name())
			paths = append(paths, catalog.NewPath(fullPath, false, info))
		}
	}

	return paths, nil
}

// DeleteFile removes the file at the given absolute path, classifying the
// failure so callers can distinguish retryable conditions with errors.Is.
func (m *OSFilesystem) DeleteFile(path string) error {
	err := os.Remove(path)
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("deleting %s: %w", path, catalog.ErrFileNotFound)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("deleting %s: %w", path, catalog.ErrPermissionDenied)
	case errors.Is(err, syscall.EBUSY), errors.Is(err, syscall.ETXTBSY):
		return fmt.Errorf("deleting %s: %w", path, catalog.ErrFileInUse)
	default:
		return fmt.Errorf("deleting %s: %w", path, err)
	}
}

// Compile-time check that OSFilesystem implements catalog.Filesystem interface
var _ catalog.Filesystem = (*OSFilesystem)(nil)
