package catalog

import (
	"path/filepath"
	"strings"
)

// DefaultExtensions is the allow-list applied when the config names none.
var DefaultExtensions = []string{
	".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv", ".webm", ".m4v", ".mpg", ".mpeg", ".ts",
}

// ExtensionFilter decides which files are catalog candidates by extension.
// Matching is case-insensitive; extensions are stored with a leading dot.
type ExtensionFilter struct {
	allowed map[string]bool
}

// NewExtensionFilter creates a filter from raw extension strings.
// Entries may be given with or without the leading dot. An empty list
// falls back to DefaultExtensions.
func NewExtensionFilter(extensions []string) *ExtensionFilter {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}
	return &ExtensionFilter{allowed: allowed}
}

// Match reports whether the given path's extension is on the allow-list.
func (f *ExtensionFilter) Match(path string) bool {
	return f.allowed[strings.ToLower(filepath.Ext(path))]
}
