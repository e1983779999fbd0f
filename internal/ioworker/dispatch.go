package ioworker

import (
	"fmt"

	"github.com/qfwfq/corespot/internal/entity"
	"github.com/qfwfq/corespot/internal/orchestrate"
	"github.com/qfwfq/corespot/internal/queue"
)

// Handler dispatches one runnable request. Handlers that start a
// channel-bearing command are expected to pin the request themselves
// (spec.md §4.G step 1: "sets next_timeout = INT_MAX to pin the request
// while the reply is in flight").
type Handler func(req *queue.Request)

// PendingChange bundles the inputs a PLAYLIST_CHANGE request carries,
// since a request's Input is a single opaque value (spec.md §4.D).
type PendingChange struct {
	Playlist *entity.Playlist
	XMLOps   []byte
}

// defaultHandlers builds the request-type dispatch table driven by the
// orchestration layer (spec.md §4.G "Request type catalog").
func defaultHandlers(o *orchestrate.Orchestrator) map[string]Handler {
	return map[string]Handler{
		orchestrate.ReqPCLoad: func(req *queue.Request) {
			o.LoadContainer(req)
		},
		orchestrate.ReqPlaylistLoad: func(req *queue.Request) {
			p, ok := req.Input.(*entity.Playlist)
			if !ok {
				req.Err = fmt.Errorf("ioworker: PLAYLIST_LOAD input is %T, want *entity.Playlist", req.Input)
				return
			}
			o.LoadPlaylist(req, p)
		},
		orchestrate.ReqPlaylistChange: func(req *queue.Request) {
			pc, ok := req.Input.(PendingChange)
			if !ok {
				req.Err = fmt.Errorf("ioworker: PLAYLIST_CHANGE input is %T, want PendingChange", req.Input)
				return
			}
			o.ChangePlaylist(req, pc.Playlist, pc.XMLOps)
		},
		orchestrate.ReqBrowsePlaylistTracks: func(req *queue.Request) {
			p, ok := req.Input.(*entity.Playlist)
			if !ok {
				req.Err = fmt.Errorf("ioworker: BROWSE_PLAYLIST_TRACKS input is %T, want *entity.Playlist", req.Input)
				return
			}
			o.BrowsePlaylistTracks(req, p)
		},
		orchestrate.ReqBrowseUser: func(req *queue.Request) {
			u, ok := req.Input.(*entity.User)
			if !ok {
				req.Err = fmt.Errorf("ioworker: BROWSE_USER input is %T, want *entity.User", req.Input)
				return
			}
			o.BrowseUser(req, u)
		},

		// PC_PLAYLIST_ADD / PLAYLIST_RENAME / PLAYLIST_STATE_CHANGED carry
		// no further network action: the orchestrator posted them purely
		// to notify the embedding thread, so the worker completes them
		// immediately.
		orchestrate.ReqPCPlaylistAdd:        completeImmediately,
		orchestrate.ReqPlaylistRename:       completeImmediately,
		orchestrate.ReqPlaylistStateChanged: completeImmediately,
	}
}

func completeImmediately(req *queue.Request) {
	// The request's queue wrapper sets the result; dispatch only needs to
	// avoid leaving it NEW forever. Worker.dispatch does the SetResult
	// call for handlers that don't pin the request themselves.
}
