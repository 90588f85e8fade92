package catalog

import (
	"errors"
	"io"
	"io/fs"
)

// Deletion failure classes reported by Filesystem.DeleteFile.
// Implementations wrap these so callers can test with errors.Is.
var (
	// ErrFileNotFound means the path did not exist at deletion time.
	ErrFileNotFound = errors.New("file not found")

	// ErrPermissionDenied means the file exists but could not be removed.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrFileInUse means another process holds the file open in a way
	// that blocks removal.
	ErrFileInUse = errors.New("file in use")
)

// Filesystem provides an interface for filesystem operations.
// It abstracts file access to enable testing without touching the real filesystem.
type Filesystem interface {
	// Resolve validates a raw path and returns a Path object.
	// It resolves the path to an absolute path, stats it, and validates
	// it's a regular file or directory (not a symlink, device, etc.).
	Resolve(rawPath string) (*Path, error)

	// Open opens a file for reading.
	Open(path *Path) (io.ReadCloser, error)

	// Stat returns fresh file info for a path.
	// Unlike path.Info() which returns cached info from when the path was
	// resolved, this always fetches current info from the filesystem.
	Stat(path *Path) (fs.FileInfo, error)

	// FindFiles discovers regular files under the given directory path,
	// applying the manager's ignore rules. When recursive is true, files
	// in subdirectories are included.
	FindFiles(path *Path, recursive bool) ([]*Path, error)

	// DeleteFile removes the file at the given absolute path.
	// Failures are classified: the returned error wraps ErrFileNotFound,
	// ErrPermissionDenied or ErrFileInUse where the cause is known.
	DeleteFile(path string) error
}
