// Package cache implements the on-disk persisted state spec.md §6 leaves
// implementation defined: an opaque-blob-by-id cache directory, plus
// opportunistic local audio tag enrichment.
//
// Structurally grounded on the teacher's playlist Store (atomic
// temp-file-then-rename Save/Load), adapted from "one JSON file with an
// embedded library" to "one file per entity id, opaque bytes", since here
// the format of each blob is a collaborator's concern, not this
// package's.
package cache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/qfwfq/corespot/internal/ident"
)

// Store is a directory of opaque blobs keyed by entity id.
type Store struct {
	mu  sync.Mutex
	dir string
}

// NewStore creates a Store rooted at dir, creating it if necessary.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create store directory %q: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) pathFor(id ident.ID) string {
	return filepath.Join(s.dir, id.String())
}

// Has reports whether a blob exists for id.
func (s *Store) Has(id ident.ID) bool {
	_, err := os.Stat(s.pathFor(id))
	return err == nil
}

// Load reads the blob for id, if present.
func (s *Store) Load(id ident.ID) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.pathFor(id))
	if err != nil {
		return nil, fmt.Errorf("cache: load %s: %w", id, err)
	}
	return data, nil
}

// Save writes data for id atomically: write to a temp file in the same
// directory, then rename.
func (s *Store) Save(id ident.ID, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "blob-*.tmp")
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("cache: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cache: close temp file: %w", err)
	}

	dst := s.pathFor(id)
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cache: rename temp file to %q: %w", dst, err)
	}

	slog.Debug("cache: blob saved", "id", id, "bytes", len(data))
	return nil
}

// Delete removes the blob for id, if any.
func (s *Store) Delete(id ident.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.pathFor(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cache: delete %s: %w", id, err)
	}
	return nil
}
