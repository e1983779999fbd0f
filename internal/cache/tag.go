package cache

import (
	"log/slog"
	"os"

	"github.com/dhowden/tag"

	"github.com/qfwfq/corespot/internal/entity"
)

// EnrichFromFile opportunistically reads embedded audio tags from the file
// at path and uses them to pre-populate t's title ahead of the metadata
// browse reply (duration is left untouched), the way the teacher's extractTrackMetadata
// populates a freshly scanned Track from its file's ID3/tag block.
//
// Unlike the teacher, EnrichFromFile never overwrites a field the browse
// reply already set: it only fills in what a track handle is still missing,
// since the wire reply is authoritative once it arrives.
func EnrichFromFile(t *entity.Track, path string) {
	f, err := os.Open(path)
	if err != nil {
		slog.Debug("cache: could not open local file for tag enrichment", "path", path, "error", err)
		return
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		slog.Debug("cache: could not read tags", "path", path, "error", err)
		return
	}

	if !t.IsLoaded && t.Title == "" && m.Title() != "" {
		t.Title = m.Title()
	}
}
