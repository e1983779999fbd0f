package entity

import (
	"sync"

	"github.com/qfwfq/corespot/internal/ident"
)

// State is a playlist's position in the load pipeline (spec.md §4.H).
type State int

const (
	// StateAdded means the playlist exists in the container but no detail
	// has been fetched yet.
	StateAdded State = iota
	// StateListed means track ids and container-level metadata are known,
	// but individual tracks have not been browsed.
	StateListed
	// StateLoaded means every track has been individually browsed.
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateAdded:
		return "ADDED"
	case StateListed:
		return "LISTED"
	case StateLoaded:
		return "LOADED"
	default:
		return "UNKNOWN"
	}
}

// SubscriberCallback is invoked by NotifyChanged (spec.md §3: "subscriber
// callback list"). The playlist's setters do not call it themselves.
type SubscriberCallback func(*Playlist)

// Playlist is an interned, reference-counted playlist handle.
//
// Fields are guarded by mu because, unlike the other entity tables,
// playlist content is read directly by getters the embedding goroutine
// calls between ProcessEvents polls (spec.md §6: "must be safe to call
// from the embedding thread but may return stale data"). The IO worker
// holds the write lock for the duration of each XML-driven mutation.
type Playlist struct {
	mu sync.RWMutex

	ID          ident.HashKey
	Name        string
	Description string
	ImageID     ident.ID
	Owner       *User
	Position    int
	Shared      bool
	Revision    int
	Checksum    uint32
	Tracks      []*Track
	State       State

	subscribers []SubscriberCallback

	// Pending is the accumulating payload buffer for the in-flight
	// GETPLAYLIST/CHANGEPLAYLIST channel, owned exclusively by the IO
	// worker while a request is outstanding.
	Pending *ident.Buffer

	// container is a weak back-reference for lookups only (spec.md §9:
	// "the back-reference is weak — it is a lookup, never an ownership
	// edge"). It is never used to keep the container alive.
	container *Container
}

// NewPlaylist creates an empty playlist handle for id in state ADDED.
func NewPlaylist(id ident.HashKey) *Playlist {
	return &Playlist{ID: id, State: StateAdded}
}

// SetContainer installs the weak back-reference to the owning container.
func (p *Playlist) SetContainer(c *Container) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.container = c
}

// Container returns the owning container, or nil if the playlist has been
// detached.
func (p *Playlist) Container() *Container {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.container
}

// TrackIDs returns the ordered ids of the playlist's tracks, used for
// checksum folding.
func (p *Playlist) TrackIDs() []ident.ID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]ident.ID, len(p.Tracks))
	for i, tr := range p.Tracks {
		ids[i] = tr.ID
	}
	return ids
}

// AddTrack appends track to the playlist's track list.
func (p *Playlist) AddTrack(track *Track) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Tracks = append(p.Tracks, track)
}

// SetName sets the playlist's display name, truncating to maxBytes (the
// configurable bound spec.md §9 leaves ambiguous).
func (p *Playlist) SetName(name string, maxBytes int) {
	if maxBytes > 0 && len(name) > maxBytes {
		name = truncateUTF8(name, maxBytes)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Name = name
}

// truncateUTF8 truncates s to at most maxBytes bytes without splitting a
// multi-byte rune.
func truncateUTF8(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	b := s[:maxBytes]
	for len(b) > 0 && !isUTF8Boundary(s, len(b)) {
		b = b[:len(b)-1]
	}
	return b
}

func isUTF8Boundary(s string, i int) bool {
	if i == 0 || i == len(s) {
		return true
	}
	return s[i]&0xC0 != 0x80
}

// SetState transitions the playlist's load state.
func (p *Playlist) SetState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.State = s
}

// GetState returns the playlist's current load state.
func (p *Playlist) GetState() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.State
}

// Subscribe registers cb to be notified of future mutations.
func (p *Playlist) Subscribe(cb SubscriberCallback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, cb)
}

// notify invokes every subscriber callback with the current state. Callers
// must not hold p.mu.
func (p *Playlist) notify() {
	p.mu.RLock()
	subs := make([]SubscriberCallback, len(p.subscribers))
	copy(subs, p.subscribers)
	p.mu.RUnlock()
	for _, cb := range subs {
		cb(p)
	}
}

// NotifyChanged fires every subscriber callback. Exported so orchestration
// code can signal completion of an XML-driven mutation.
func (p *Playlist) NotifyChanged() {
	p.notify()
}

// PlaylistTable is the per-session interning table for playlists, keyed by
// the 17-byte HashKey (spec.md §3: playlists use a 17-byte id).
type PlaylistTable struct {
	entries map[ident.HashKey]*playlistEntry
}

type playlistEntry struct {
	value    *Playlist
	refCount int
}

// NewPlaylistTable creates an empty playlist table.
func NewPlaylistTable() *PlaylistTable {
	return &PlaylistTable{entries: make(map[ident.HashKey]*playlistEntry)}
}

// Lookup returns the playlist handle for id, or nil and false.
func (t *PlaylistTable) Lookup(id ident.HashKey) (*Playlist, bool) {
	e, ok := t.entries[id]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Intern returns the existing playlist handle for id, or creates, inserts,
// and returns a new one.
func (t *PlaylistTable) Intern(id ident.HashKey) *Playlist {
	if e, ok := t.entries[id]; ok {
		return e.value
	}
	p := NewPlaylist(id)
	t.entries[id] = &playlistEntry{value: p}
	return p
}

// AddRef increments the ref-count for id.
func (t *PlaylistTable) AddRef(id ident.HashKey) {
	if e, ok := t.entries[id]; ok {
		e.refCount++
	}
}

// Release decrements the ref-count for id, dropping the entry at zero.
func (t *PlaylistTable) Release(id ident.HashKey) bool {
	e, ok := t.entries[id]
	if !ok || e.refCount <= 0 {
		return false
	}
	e.refCount--
	if e.refCount == 0 {
		delete(t.entries, id)
		return true
	}
	return false
}

// Len returns the number of currently interned playlists.
func (t *PlaylistTable) Len() int {
	return len(t.entries)
}
