package catalog_test

import (
	"testing"

	"vv-go/internal/catalog"
)

func TestExtensionFilter(t *testing.T) {
	t.Run("defaults cover common video extensions", func(t *testing.T) {
		f := catalog.NewExtensionFilter(nil)

		matches := []string{
			"/v/movie.mp4",
			"/v/show.mkv",
			"/v/clip.MOV", // case-insensitive
			"/v/old.mpg",
		}
		for _, path := range matches {
			if !f.Match(path) {
				t.Errorf("Match(%s) = false, want true", path)
			}
		}

		rejects := []string{
			"/v/notes.txt",
			"/v/cover.jpg",
			"/v/noext",
			"/v/archive.mp4.part",
		}
		for _, path := range rejects {
			if f.Match(path) {
				t.Errorf("Match(%s) = true, want false", path)
			}
		}
	})

	t.Run("custom extensions replace the defaults", func(t *testing.T) {
		f := catalog.NewExtensionFilter([]string{".ogv", "3gp"})

		if !f.Match("/v/a.ogv") {
			t.Error("Match(.ogv) = false, want true")
		}
		if !f.Match("/v/b.3gp") {
			t.Error("Match(.3gp) = false, want true (dot normalized)")
		}
		if f.Match("/v/c.mp4") {
			t.Error("Match(.mp4) = true, want false with custom list")
		}
	})
}
