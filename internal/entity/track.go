package entity

import "github.com/qfwfq/corespot/internal/ident"

// Availability describes whether a track can currently be streamed.
type Availability int

const (
	// AvailabilityUnknown is the state before a track's metadata browse
	// has completed.
	AvailabilityUnknown Availability = iota
	AvailabilityAvailable
	AvailabilityUnplayable
)

// Track is an interned, reference-counted track handle.
type Track struct {
	ID       ident.ID
	Title    string
	Artists  []*Artist // ordered, per spec.md §3
	Album    *Album
	Duration int // milliseconds
	Avail    Availability
	IsLoaded bool
}

// NewTrack creates an unloaded track handle for id. Callers should not call
// this directly; use TrackTable.Intern so a single handle per id is kept.
func NewTrack(id ident.ID) *Track {
	return &Track{ID: id}
}

// TrackTable is the per-session interning table for tracks.
type TrackTable struct {
	*Table[*Track]
}

// NewTrackTable creates an empty track table.
func NewTrackTable() *TrackTable {
	return &TrackTable{Table: NewTable[*Track]("track")}
}

// InternTrack returns the existing track handle for id, creating one in the
// unloaded state if none exists yet.
func (t *TrackTable) InternTrack(id ident.ID) *Track {
	return t.Intern(id, func() *Track { return NewTrack(id) })
}
