package orchestrate

import (
	"fmt"

	"github.com/qfwfq/corespot/internal/apierr"
	"github.com/qfwfq/corespot/internal/entity"
	"github.com/qfwfq/corespot/internal/ident"
	"github.com/qfwfq/corespot/internal/queue"
	"github.com/qfwfq/corespot/internal/xmldoc"
)

// LoadPlaylist handles a PLAYLIST_LOAD request for p: identical shape to
// container load, but scoped to one playlist id (spec.md §4.H
// "Playlist load").
func (o *Orchestrator) LoadPlaylist(req *queue.Request, p *entity.Playlist) {
	cb := &playlistCallback{o: o, req: req, p: p, buf: &ident.Buffer{}}
	if _, err := newGetPlaylist(o, p.ID, cb); err != nil {
		o.Queue.Reschedule(req, o.retryDeadline())
		return
	}
	o.Queue.Pin(req)
}

type playlistCallback struct {
	o   *Orchestrator
	req *queue.Request
	p   *entity.Playlist
	buf *ident.Buffer
}

func (c *playlistCallback) OnChunk(payload []byte) {
	c.buf.Append(payload)
}

func (c *playlistCallback) OnEnd(ok bool) {
	if !ok {
		c.o.Queue.Reschedule(c.req, c.o.retryDeadline())
		return
	}
	if err := c.o.finishPlaylistLoad(c.p, c.buf.Bytes()); err != nil {
		c.o.Queue.SetResult(c.req, apierr.New(apierr.KindOtherPermanent, "%v", err), nil)
		return
	}
	c.o.Queue.SetResult(c.req, nil, nil)
}

func (o *Orchestrator) finishPlaylistLoad(p *entity.Playlist, fragment []byte) error {
	doc, err := xmldoc.Parse(xmldoc.Splice(fragment))
	if err != nil {
		return fmt.Errorf("orchestrate: parse playlist document: %w", err)
	}

	wasFirstLoad := p.Revision == 0 && len(p.Tracks) == 0

	if nameNode, ok := doc.Find("next-change/change/ops/name"); ok {
		p.SetName(nameNode.Text, o.Config.PlaylistNameByteLimit)
		o.Queue.Post(ReqPlaylistRename, p, o.Now())
	}

	if pubNode, ok := doc.Find("next-change/change/ops/pub"); ok {
		p.Shared = pubNode.Text == "1"
	}

	if itemsNode, ok := doc.Find("next-change/change/ops/add/items"); ok && itemsNode.Text != "" {
		ids, err := xmldoc.ParseHashKeyList(itemsNode.Text)
		if err != nil {
			return fmt.Errorf("orchestrate: parse playlist items: %w", err)
		}
		for _, k := range ids {
			id := idBase(k)
			tr := o.Tables.Tracks.InternTrack(id)
			o.Tables.Tracks.AddRef(id)
			o.enrichTrack(tr, id)
			p.AddTrack(tr)
		}
	}

	if userNode, ok := doc.Find("next-change/change/user"); ok && userNode.Text != "" {
		u := o.Tables.Users.InternUser(userNode.Text)
		p.Owner = u
		if !u.IsLoaded {
			o.Queue.Post(ReqBrowseUser, u, o.Now())
		}
	}

	versionNode, hasVersion := doc.Find("next-change/version")
	if !hasVersion {
		versionNode, hasVersion = doc.Find("confirm/version")
	}
	if hasVersion {
		vt, err := xmldoc.ParseVersionTuple(versionNode.Text)
		if err != nil {
			return fmt.Errorf("orchestrate: parse playlist version: %w", err)
		}
		if wasFirstLoad {
			p.Revision = vt.Revision
			p.Checksum = vt.Checksum
		} else if vt.Revision != p.Revision || vt.Checksum != p.Checksum {
			// Conservative policy (DESIGN.md "Open Question decisions"):
			// on a version mismatch after the initial load, request a
			// fresh full load rather than merging the two track lists
			// in place.
			o.requestFreshLoad(p)
			return nil
		}
	}

	p.SetState(entity.StateListed)
	o.Queue.Post(ReqBrowsePlaylistTracks, p, o.Now())
	p.NotifyChanged()
	return nil
}

// requestFreshLoad discards the playlist's current track list and posts a
// new PLAYLIST_LOAD, implementing the conservative reload policy.
func (o *Orchestrator) requestFreshLoad(p *entity.Playlist) {
	p.Tracks = nil
	o.Queue.Post(ReqPlaylistLoad, p, o.Now())
}

// ChangePlaylist handles a PLAYLIST_CHANGE request: sends xmlOps against
// p's current revision/count/checksum/shared, and on reply reparses
// confirm/version to adopt the new revision (spec.md §4.H
// "Playlist change").
func (o *Orchestrator) ChangePlaylist(req *queue.Request, p *entity.Playlist, xmlOps []byte) {
	spliced := xmldoc.Splice(xmlOps)
	cb := &changeCallback{o: o, req: req, p: p, buf: &ident.Buffer{}}
	_, err := o.changePlaylistCommand(p, spliced, cb)
	if err != nil {
		o.Queue.Reschedule(req, o.retryDeadline())
		return
	}
	o.Queue.Pin(req)
}

type changeCallback struct {
	o   *Orchestrator
	req *queue.Request
	p   *entity.Playlist
	buf *ident.Buffer
}

func (c *changeCallback) OnChunk(payload []byte) {
	c.buf.Append(payload)
}

func (c *changeCallback) OnEnd(ok bool) {
	if !ok {
		c.o.Queue.Reschedule(c.req, c.o.retryDeadline())
		return
	}
	doc, err := xmldoc.Parse(xmldoc.Splice(c.buf.Bytes()))
	if err != nil {
		c.o.Queue.SetResult(c.req, apierr.New(apierr.KindOtherPermanent, "orchestrate: parse change reply: %v", err), nil)
		return
	}
	if versionNode, ok := doc.Find("confirm/version"); ok {
		vt, err := xmldoc.ParseVersionTuple(versionNode.Text)
		if err != nil {
			c.o.Queue.SetResult(c.req, apierr.New(apierr.KindOtherPermanent, "orchestrate: parse confirm version: %v", err), nil)
			return
		}
		c.p.Revision = vt.Revision
		c.p.Checksum = vt.Checksum
	}
	c.o.Queue.SetResult(c.req, nil, nil)
	c.p.NotifyChanged()
}
