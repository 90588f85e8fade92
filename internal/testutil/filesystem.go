package testutil

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"vv-go/internal/catalog"
)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
	IsDirectory bool
}

// MockFilesystem is an in-memory filesystem for testing. Deletion failures
// can be injected per path via FailDeleteWith.
type MockFilesystem struct {
	files       map[string]*MockFile
	deleteError map[string]error
	Deleted     []string // paths removed via DeleteFile, in call order
}

// NewMockFilesystem creates a new mock filesystem.
func NewMockFilesystem() *MockFilesystem {
	return &MockFilesystem{
		files:       make(map[string]*MockFile),
		deleteError: make(map[string]error),
	}
}

// AddFile adds a file to the mock filesystem.
func (m *MockFilesystem) AddFile(path string, content []byte) {
	m.files[path] = &MockFile{
		Content:     content,
		Permissions: 0644,
		ModTime:     time.Now(),
		IsDirectory: false,
	}
}

// AddDirectory adds a directory to the mock filesystem.
func (m *MockFilesystem) AddDirectory(path string) {
	m.files[path] = &MockFile{
		Permissions: 0755,
		ModTime:     time.Now(),
		IsDirectory: true,
	}
}

// FailDeleteWith makes DeleteFile fail for the given path with err.
// Pass one of the catalog sentinel errors to simulate classified failures.
func (m *MockFilesystem) FailDeleteWith(path string, err error) {
	m.deleteError[path] = err
}

// Exists reports whether a path is present in the mock filesystem.
func (m *MockFilesystem) Exists(path string) bool {
	_, ok := m.files[path]
	return ok
}

func (m *MockFilesystem) Resolve(rawPath string) (*catalog.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, err
	}

	file, ok := m.files[absPath]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", absPath)
	}

	return catalog.NewPath(absPath, file.IsDirectory, m.infoFor(absPath, file)), nil
}

func (m *MockFilesystem) Open(path *catalog.Path) (io.ReadCloser, error) {
	file, ok := m.files[path.String()]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path.String())
	}
	if file.IsDirectory {
		return nil, fmt.Errorf("cannot open directory: %s", path.String())
	}
	return io.NopCloser(bytes.NewReader(file.Content)), nil
}

func (m *MockFilesystem) Stat(path *catalog.Path) (fs.FileInfo, error) {
	file, ok := m.files[path.String()]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path.String())
	}
	return m.infoFor(path.String(), file), nil
}

// FindFiles returns the regular files under the given directory in sorted
// path order, mirroring the deterministic ordering of the real walker.
func (m *MockFilesystem) FindFiles(path *catalog.Path, recursive bool) ([]*catalog.Path, error) {
	if !path.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path.String())
	}

	root := path.String()
	var found []string
	for p, f := range m.files {
		if f.IsDirectory {
			continue
		}
		if !strings.HasPrefix(p, root+"/") {
			continue
		}
		rel := p[len(root)+1:]
		if !recursive && strings.Contains(rel, "/") {
			continue
		}
		found = append(found, p)
	}
	sort.Strings(found)

	paths := make([]*catalog.Path, len(found))
	for i, p := range found {
		paths[i] = catalog.NewPath(p, false, m.infoFor(p, m.files[p]))
	}
	return paths, nil
}

func (m *MockFilesystem) DeleteFile(path string) error {
	if err, ok := m.deleteError[path]; ok {
		return fmt.Errorf("deleting %s: %w", path, err)
	}
	if _, ok := m.files[path]; !ok {
		return fmt.Errorf("deleting %s: %w", path, catalog.ErrFileNotFound)
	}
	delete(m.files, path)
	m.Deleted = append(m.Deleted, path)
	return nil
}

func (m *MockFilesystem) infoFor(path string, file *MockFile) fs.FileInfo {
	return &mockFileInfo{
		name:    filepath.Base(path),
		size:    int64(len(file.Content)),
		mode:    file.Permissions,
		modTime: file.ModTime,
		isDir:   file.IsDirectory,
	}
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }

// Compile-time check
var _ catalog.Filesystem = (*MockFilesystem)(nil)
