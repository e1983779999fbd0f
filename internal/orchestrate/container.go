package orchestrate

import (
	"fmt"

	"github.com/qfwfq/corespot/internal/apierr"
	"github.com/qfwfq/corespot/internal/ident"
	"github.com/qfwfq/corespot/internal/queue"
	"github.com/qfwfq/corespot/internal/xmldoc"
)

// LoadContainer handles a PC_LOAD request: it requests the container's
// full state and, on completion, populates the container and fans out a
// PLAYLIST_LOAD per playlist (spec.md §4.H "Container load").
func (o *Orchestrator) LoadContainer(req *queue.Request) {
	cb := &containerCallback{o: o, req: req, buf: &ident.Buffer{}}
	if _, err := newGetPlaylist(o, ident.HashKey{}, cb); err != nil {
		o.Queue.Reschedule(req, o.retryDeadline())
		return
	}
	o.Queue.Pin(req)
}

type containerCallback struct {
	o   *Orchestrator
	req *queue.Request
	buf *ident.Buffer
}

func (c *containerCallback) OnChunk(payload []byte) {
	c.buf.Append(payload)
}

func (c *containerCallback) OnEnd(ok bool) {
	if !ok {
		c.o.Queue.Reschedule(c.req, c.o.retryDeadline())
		return
	}
	if err := c.o.finishContainerLoad(c.buf.Bytes()); err != nil {
		c.o.Queue.SetResult(c.req, apierr.New(apierr.KindOtherPermanent, "%v", err), nil)
		return
	}
	c.o.Queue.SetResult(c.req, nil, nil)
}

// finishContainerLoad parses the spliced container document and updates
// the container and playlist table, per spec.md §4.H.
func (o *Orchestrator) finishContainerLoad(fragment []byte) error {
	doc, err := xmldoc.Parse(xmldoc.Splice(fragment))
	if err != nil {
		return fmt.Errorf("orchestrate: parse container document: %w", err)
	}

	// Empty container boundary: no add/items yields zero playlists and no
	// PC_PLAYLIST_ADD events (spec.md §8).
	itemsNode, hasItems := doc.Find("next-change/change/ops/add/items")
	if hasItems && itemsNode.Text != "" {
		ids, err := xmldoc.ParseHashKeyList(itemsNode.Text)
		if err != nil {
			return fmt.Errorf("orchestrate: parse container items: %w", err)
		}
		for _, id := range ids {
			p := o.Tables.Playlists.Intern(id)
			o.Tables.Playlists.AddRef(id)
			o.Tables.Container.Append(p)
			o.Queue.Post(ReqPCPlaylistAdd, p, o.Now())
			o.Queue.Post(ReqPlaylistLoad, p, o.Now())
		}
	}

	if versionNode, ok := doc.Find("next-change/version"); ok {
		vt, err := xmldoc.ParseVersionTuple(versionNode.Text)
		if err != nil {
			return fmt.Errorf("orchestrate: parse container version: %w", err)
		}
		o.Tables.Container.SetRevision(vt.Revision, vt.Checksum)
	}

	o.Tables.Container.NotifyChanged()
	return nil
}

// checksumContainer computes the container checksum from its current
// playlist order (spec.md §4: invariant 5).
func (o *Orchestrator) checksumContainer() uint32 {
	playlists := o.Tables.Container.Playlists()
	ids := make([]ident.ID, len(playlists))
	for i, p := range playlists {
		ids[i] = p.ID.ID()
	}
	return ident.ChecksumContainer(ids)
}
