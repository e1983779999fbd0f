// Package entity implements the interned, reference-counted metadata graph:
// tracks, albums, artists, users, images, playlists, and the playlist
// container. Every entity kind is stored in its own per-kind table keyed by
// a fixed-size binary identifier, mirroring libopenspotify's per-kind hash
// tables (hashtable_albums, hashtable_artists, ...).
package entity

import (
	"log/slog"
	"sync"

	"github.com/qfwfq/corespot/internal/ident"
)

// entry wraps a value with the ref-count that governs its lifetime.
type entry[T any] struct {
	value    T
	refCount int
}

// Table is a per-kind interning table keyed by a 16-byte identifier. At
// most one handle exists per id; Intern returns the existing handle if
// present, or creates and inserts one.
//
// Intern/AddRef/Release/GC are only ever called by the IO worker
// goroutine, per the concurrency model in spec.md §5. The mutex exists so
// Lookup/Len remain safe to call concurrently from other goroutines too
// (e.g. internal/debugapi's HTTP handlers), matching the read-side
// guarantee Container and Playlist already provide.
type Table[T any] struct {
	mu      sync.RWMutex
	kind    string
	entries map[ident.ID]*entry[T]
}

// NewTable creates an empty table. kind is used only in log messages.
func NewTable[T any](kind string) *Table[T] {
	return &Table[T]{kind: kind, entries: make(map[ident.ID]*entry[T])}
}

// Lookup returns the handle for id, or the zero value and false if not
// interned.
func (t *Table[T]) Lookup(id ident.ID) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[id]
	if !ok {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Intern returns the existing handle for id if one exists; otherwise it
// calls create, inserts the result with a ref-count of zero, and returns
// it. The caller is expected to AddRef immediately if it intends to hold
// the reference.
func (t *Table[T]) Intern(id ident.ID, create func() T) T {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[id]; ok {
		return e.value
	}
	v := create()
	t.entries[id] = &entry[T]{value: v}
	return v
}

// AddRef increments the ref-count for id. It is a no-op (logged) if id is
// not interned.
func (t *Table[T]) AddRef(id ident.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		slog.Error("entity: AddRef on unknown id", "kind", t.kind, "id", id)
		return
	}
	e.refCount++
}

// Release decrements the ref-count for id, removing the table entry (and
// returning true) when it reaches zero. Releasing an id with a ref-count
// already at zero is logged and ignored rather than panicking, matching
// the worker's fail-soft invariant-violation policy (spec.md §7).
func (t *Table[T]) Release(id ident.ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		slog.Error("entity: Release on unknown id", "kind", t.kind, "id", id)
		return false
	}
	if e.refCount <= 0 {
		slog.Error("entity: Release with non-positive ref-count", "kind", t.kind, "id", id)
		return false
	}
	e.refCount--
	if e.refCount == 0 {
		delete(t.entries, id)
		return true
	}
	return false
}

// GC drops every zero-ref-count entry from the table. It exists for the
// periodic garbage collection spec.md §3 allows in addition to explicit
// Release.
func (t *Table[T]) GC() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	dropped := 0
	for id, e := range t.entries {
		if e.refCount == 0 {
			delete(t.entries, id)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of currently interned entries.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// StringTable is the string-keyed analogue of Table, used only for the
// user table (spec.md §3: "users use name as id"). Like Table, its
// mutation methods are only ever called by the IO worker goroutine; the
// mutex keeps Lookup/Len safe for other goroutines to call concurrently.
type StringTable[T any] struct {
	mu      sync.RWMutex
	kind    string
	entries map[string]*entry[T]
}

// NewStringTable creates an empty string-keyed table.
func NewStringTable[T any](kind string) *StringTable[T] {
	return &StringTable[T]{kind: kind, entries: make(map[string]*entry[T])}
}

// Lookup returns the handle for name, or the zero value and false.
func (t *StringTable[T]) Lookup(name string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[name]
	if !ok {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Intern returns the existing handle for name, or creates, inserts, and
// returns a new one.
func (t *StringTable[T]) Intern(name string, create func() T) T {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[name]; ok {
		return e.value
	}
	v := create()
	t.entries[name] = &entry[T]{value: v}
	return v
}

// AddRef increments the ref-count for name.
func (t *StringTable[T]) AddRef(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[name]
	if !ok {
		slog.Error("entity: AddRef on unknown user", "name", name)
		return
	}
	e.refCount++
}

// Release decrements the ref-count for name, dropping the entry at zero.
func (t *StringTable[T]) Release(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[name]
	if !ok {
		slog.Error("entity: Release on unknown user", "name", name)
		return false
	}
	if e.refCount <= 0 {
		slog.Error("entity: Release with non-positive ref-count", "name", name)
		return false
	}
	e.refCount--
	if e.refCount == 0 {
		delete(t.entries, name)
		return true
	}
	return false
}

// Len returns the number of currently interned users.
func (t *StringTable[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
