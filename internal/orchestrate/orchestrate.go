// Package orchestrate implements the playlist/browse orchestration layer:
// container load, playlist load, browse dispatch, and playlist change
// (spec.md §4.H). It is the glue between the request queue, the channel
// multiplexer, the command encoders, and the entity graph.
package orchestrate

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/qfwfq/corespot/internal/cache"
	"github.com/qfwfq/corespot/internal/channelmux"
	"github.com/qfwfq/corespot/internal/command"
	"github.com/qfwfq/corespot/internal/entity"
	"github.com/qfwfq/corespot/internal/ident"
	"github.com/qfwfq/corespot/internal/queue"
)

// Request type names posted to/from the queue (spec.md §4.G request type
// catalog, restricted to the types this package drives).
const (
	ReqPCLoad               = "PC_LOAD"
	ReqPlaylistLoad         = "PLAYLIST_LOAD"
	ReqPlaylistChange       = "PLAYLIST_CHANGE"
	ReqBrowsePlaylistTracks = "BROWSE_PLAYLIST_TRACKS"
	ReqBrowseUser           = "BROWSE_USER"
	ReqPCPlaylistAdd        = "PC_PLAYLIST_ADD"
	ReqPlaylistRename       = "PLAYLIST_RENAME"
	ReqPlaylistStateChanged = "PLAYLIST_STATE_CHANGED"
)

// Config bounds the orchestration layer's behavior where spec.md §9 leaves
// an open question.
type Config struct {
	// RetryMS is the default retry delay after a transient channel error
	// (spec.md §4.D: "RETRY_MS defaults to 30 seconds for playlist loads").
	RetryMS int64
	// MaxBrowseBatch is the protocol-defined maximum number of ids per
	// browse request.
	MaxBrowseBatch int
	// PlaylistNameByteLimit truncates incoming playlist names if positive
	// (DESIGN.md "Open Question decisions").
	PlaylistNameByteLimit int
}

// DefaultConfig matches the constants documented in spec.md §4.D and a
// conservative browse batch size.
func DefaultConfig() Config {
	return Config{
		RetryMS:               30_000,
		MaxBrowseBatch:        50,
		PlaylistNameByteLimit: 256,
	}
}

// Tables bundles every per-session entity table the orchestrator mutates.
type Tables struct {
	Container *entity.Container
	Playlists *entity.PlaylistTable
	Tracks    *entity.TrackTable
	Albums    *entity.AlbumTable
	Artists   *entity.ArtistTable
	Images    *entity.ImageTable
	Users     *entity.UserTable
}

// NewTables creates an empty set of per-session tables.
func NewTables() *Tables {
	return &Tables{
		Container: entity.NewContainer(),
		Playlists: entity.NewPlaylistTable(),
		Tracks:    entity.NewTrackTable(),
		Albums:    entity.NewAlbumTable(),
		Artists:   entity.NewArtistTable(),
		Images:    entity.NewImageTable(),
		Users:     entity.NewUserTable(),
	}
}

// Orchestrator drives container/playlist/browse request handling. It is
// owned exclusively by the IO worker goroutine, like the entity tables it
// mutates (spec.md §5).
type Orchestrator struct {
	Tables   *Tables
	Queue    *queue.Queue
	Channels *channelmux.Table
	Sender   command.Sender
	Config   Config

	// Now returns the current time in epoch milliseconds. Overridable for
	// deterministic tests.
	Now func() int64

	// Cache persists small opaque metadata blobs (currently just a track's
	// title) across sessions, keyed by track id. Nil disables enrichment.
	Cache *cache.Store
	// MusicDir is scanned for a same-named local file to pull tags from
	// via cache.EnrichFromFile ahead of the browse reply. Empty disables
	// file-based enrichment.
	MusicDir string
}

// New creates an Orchestrator over the given collaborators.
func New(tables *Tables, q *queue.Queue, channels *channelmux.Table, sender command.Sender, cfg Config) *Orchestrator {
	return &Orchestrator{
		Tables:   tables,
		Queue:    q,
		Channels: channels,
		Sender:   sender,
		Config:   cfg,
		Now:      func() int64 { return time.Now().UnixMilli() },
	}
}

// retryDeadline returns the absolute millisecond deadline for a transient
// retry, per spec.md §8's boundary "next_timeout lies in
// (now, now + RETRY_MS + ε]".
func (o *Orchestrator) retryDeadline() int64 {
	return o.Now() + o.Config.RetryMS
}

// idBase reduces a HashKey to its 16-byte ID, used when interning tracks
// (which are keyed by ID, not HashKey).
func idBase(k ident.HashKey) ident.ID {
	return k.ID()
}

// enrichTrack opportunistically fills in tr's title ahead of the metadata
// browse reply: first from a previously persisted cache blob (cheap), then
// by reading local audio tags out of MusicDir (cache.EnrichFromFile). Either
// step is skipped if its collaborator was never configured.
func (o *Orchestrator) enrichTrack(tr *entity.Track, id ident.ID) {
	if o.Cache != nil {
		if data, err := o.Cache.Load(id); err == nil {
			if !tr.IsLoaded && tr.Title == "" {
				tr.Title = string(data)
			}
		}
	}
	if o.MusicDir != "" {
		cache.EnrichFromFile(tr, filepath.Join(o.MusicDir, id.String()))
	}
}

// persistTrackTitle saves tr's wire-confirmed title to the cache store so a
// future session's enrichTrack can hit it before falling back to the local
// audio file, if any.
func (o *Orchestrator) persistTrackTitle(id ident.ID, title string) {
	if o.Cache == nil || title == "" {
		return
	}
	if err := o.Cache.Save(id, []byte(title)); err != nil {
		slog.Warn("orchestrate: persist track title to cache", "id", id, "error", err)
	}
}

// newGetPlaylist is a thin forwarder to command.GetPlaylist, centralizing
// the Sender/Channels pair every load path needs.
func newGetPlaylist(o *Orchestrator, id ident.HashKey, cb channelmux.Callback) (uint16, error) {
	return command.GetPlaylist(o.Sender, o.Channels, id, cb)
}

// changePlaylistCommand forwards to command.ChangePlaylist using p's
// current revision/track-count/checksum/shared snapshot.
func (o *Orchestrator) changePlaylistCommand(p *entity.Playlist, xmlOps []byte, cb channelmux.Callback) (uint16, error) {
	trackIDs := p.TrackIDs()
	checksum := ident.ChecksumPlaylist(trackIDs)
	return command.ChangePlaylist(o.Sender, o.Channels, p.ID, xmlOps, p.Revision, len(trackIDs), checksum, p.Shared, cb)
}
