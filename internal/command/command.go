// Package command implements the two command encoders the core uses:
// GETPLAYLIST and CHANGEPLAYLIST. Each builds a framed packet and
// registers a receiving channel atomically (spec.md §4.F).
package command

import (
	"github.com/qfwfq/corespot/internal/channelmux"
	"github.com/qfwfq/corespot/internal/ident"
	"github.com/qfwfq/corespot/internal/wire"
)

// Sender writes a fully framed, encrypted packet to the connection. It is
// satisfied by the IO worker's socket wrapper.
type Sender interface {
	Send(f wire.Frame) error
}

// GetPlaylist writes a GETPLAYLIST command requesting the full state of
// id (the all-zero id requests the container itself), and registers cb on
// a new channel for the reply.
func GetPlaylist(s Sender, channels *channelmux.Table, id ident.HashKey, cb channelmux.Callback) (uint16, error) {
	chID := channels.Register("get_playlist", cb)
	payload := wire.EncodeGetPlaylist(id)
	if err := s.Send(wire.Frame{Cmd: wire.CmdGetPlaylist, Payload: payload}); err != nil {
		channels.Fail(chID)
		return 0, err
	}
	return chID, nil
}

// Browse writes a BROWSE command for a batch of ids of one kind, and
// registers cb on a new channel for the reply. Not one of the two
// encoders spec.md §4.F calls out by name, but required by the browse
// driver it describes in §4.H; it follows the same
// register-then-send shape.
func Browse(s Sender, channels *channelmux.Table, kind wire.BrowseKind, ids []ident.ID, cb channelmux.Callback) (uint16, error) {
	chID := channels.Register("browse", cb)
	payload := wire.EncodeBrowse(kind, ids)
	if err := s.Send(wire.Frame{Cmd: wire.CmdBrowse, Payload: payload}); err != nil {
		channels.Fail(chID)
		return 0, err
	}
	return chID, nil
}

// ChangePlaylist writes a CHANGEPLAYLIST command carrying xmlOps against
// the playlist's current revision/track-count/checksum, and registers cb
// on a new channel for the reply.
func ChangePlaylist(s Sender, channels *channelmux.Table, id ident.HashKey, xmlOps []byte, baseRevision, numTracks int, checksum uint32, shared bool, cb channelmux.Callback) (uint16, error) {
	chID := channels.Register("change_playlist", cb)
	payload := wire.EncodeChangePlaylist(id, xmlOps, baseRevision, numTracks, checksum, shared)
	if err := s.Send(wire.Frame{Cmd: wire.CmdChangePlaylist, Payload: payload}); err != nil {
		channels.Fail(chID)
		return 0, err
	}
	return chID, nil
}
