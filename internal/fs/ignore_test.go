package fs

import (
	"path/filepath"
	"testing"
)

func TestNewIgnoreMatcher(t *testing.T) {
	t.Run("skips blank lines and comments", func(t *testing.T) {
		t.Parallel()
		m := NewIgnoreMatcher([]string{"", "  ", "# comment", "*.part"})
		if len(m.patterns) != 1 {
			t.Fatalf("expected 1 pattern, got %d", len(m.patterns))
		}
		if m.patterns[0].pattern != "*.part" {
			t.Errorf("expected *.part, got %s", m.patterns[0].pattern)
		}
	})

	t.Run("classifies path vs basename patterns", func(t *testing.T) {
		t.Parallel()
		m := NewIgnoreMatcher([]string{"*.part", "extras/samples"})
		if m.patterns[0].matchPath {
			t.Error("*.part should not be a path pattern")
		}
		if !m.patterns[1].matchPath {
			t.Error("extras/samples should be a path pattern")
		}
	})
}

func TestIgnoreMatcher_Match(t *testing.T) {
	tests := []struct {
		name         string
		patterns     []string
		relativePath string
		want         bool
	}{
		{
			name:         "basename glob matches file in root",
			patterns:     []string{"*.part"},
			relativePath: "movie.mp4.part",
			want:         true,
		},
		{
			name:         "basename glob matches file in subdirectory",
			patterns:     []string{"*.part"},
			relativePath: filepath.Join("sub", "movie.mp4.part"),
			want:         true,
		},
		{
			name:         "basename glob does not match different extension",
			patterns:     []string{"*.part"},
			relativePath: "movie.mp4",
			want:         false,
		},
		{
			name:         "exact basename match",
			patterns:     []string{".stfolder"},
			relativePath: ".stfolder",
			want:         true,
		},
		{
			name:         "exact basename matches in subdirectory",
			patterns:     []string{".DS_Store"},
			relativePath: filepath.Join("sub", ".DS_Store"),
			want:         true,
		},
		{
			name:         "path pattern matches exact relative path",
			patterns:     []string{"extras/samples"},
			relativePath: filepath.Join("extras", "samples"),
			want:         true,
		},
		{
			name:         "path pattern does not match wrong path",
			patterns:     []string{"extras/samples"},
			relativePath: filepath.Join("movies", "samples"),
			want:         false,
		},
		{
			name:         "path pattern with glob",
			patterns:     []string{"extras/*.sample.mp4"},
			relativePath: filepath.Join("extras", "trailer.sample.mp4"),
			want:         true,
		},
		{
			name:         "question mark wildcard",
			patterns:     []string{"?.mp4"},
			relativePath: "a.mp4",
			want:         true,
		},
		{
			name:         "question mark does not match multiple chars",
			patterns:     []string{"?.mp4"},
			relativePath: "ab.mp4",
			want:         false,
		},
		{
			name:         "character class",
			patterns:     []string{"*.mp[34]"},
			relativePath: "song.mp3",
			want:         true,
		},
		{
			name:         "no patterns matches nothing",
			patterns:     nil,
			relativePath: "anything.mp4",
			want:         false,
		},
		{
			name:         "empty string path",
			patterns:     []string{"*.part"},
			relativePath: "",
			want:         false,
		},
		{
			name:         "multiple patterns first matches",
			patterns:     []string{"*.part", "*.tmp"},
			relativePath: "show.mkv.part",
			want:         true,
		},
		{
			name:         "multiple patterns second matches",
			patterns:     []string{"*.part", "*.tmp"},
			relativePath: "data.tmp",
			want:         true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewIgnoreMatcher(tt.patterns)
			got := m.Match(tt.relativePath)
			if got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.relativePath, got, tt.want)
			}
		})
	}
}
