package session

import "github.com/qfwfq/corespot/internal/entity"

// Callbacks holds one field per callback process_events can deliver
// (spec.md §6 "Callbacks delivered"). Any field left nil is simply never
// called; callers set only the ones they need.
type Callbacks struct {
	// Container callbacks.
	ContainerLoaded func()
	PlaylistAdded   func(p *entity.Playlist, position int)

	// Playlist callbacks.
	PlaylistRenamed      func(p *entity.Playlist)
	TracksAdded          func(p *entity.Playlist)
	PlaylistStateChanged func(p *entity.Playlist)

	// Session callbacks.
	LoggedIn        func()
	LoggedOut       func()
	MetadataUpdated func()
	MessageToUser   func(message string)
	PlayTokenLost   func()
}
