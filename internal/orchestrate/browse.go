package orchestrate

import (
	"fmt"

	"github.com/qfwfq/corespot/internal/apierr"
	"github.com/qfwfq/corespot/internal/command"
	"github.com/qfwfq/corespot/internal/entity"
	"github.com/qfwfq/corespot/internal/ident"
	"github.com/qfwfq/corespot/internal/queue"
	"github.com/qfwfq/corespot/internal/wire"
	"github.com/qfwfq/corespot/internal/xmldoc"
)

// BrowsePlaylistTracks handles a BROWSE_PLAYLIST_TRACKS request: it
// browses every track in p in batches of at most MaxBrowseBatch, and
// transitions p to LOADED once every batch completes
// (spec.md §4.H "Browse dispatch").
func (o *Orchestrator) BrowsePlaylistTracks(req *queue.Request, p *entity.Playlist) {
	ids := p.TrackIDs()
	if len(ids) == 0 {
		p.SetState(entity.StateLoaded)
		o.Queue.SetResult(req, nil, nil)
		o.Queue.Post(ReqPlaylistStateChanged, p, o.Now())
		return
	}
	o.browse(req, wire.BrowseKindTrack, ids, func() {
		p.SetState(entity.StateLoaded)
		o.Queue.Post(ReqPlaylistStateChanged, p, o.Now())
	})
}

// BrowseUser handles a BROWSE_USER request for a single not-yet-loaded
// user, supplementing the distilled spec from
// original_source/libopenspotify/playlist.c's user_lookup call.
func (o *Orchestrator) BrowseUser(req *queue.Request, u *entity.User) {
	cb := &browseCallback{o: o, req: req, kind: wire.BrowseKindUser, total: 1, onDone: func() {}}
	_, err := command.Browse(o.Sender, o.Channels, wire.BrowseKindUser, []ident.ID{userPseudoID(u)}, cb)
	if err != nil {
		o.Queue.Reschedule(req, o.retryDeadline())
		return
	}
	o.Queue.Pin(req)
}

// userPseudoID lets the browse driver's id-keyed batching machinery carry
// a user lookup alongside kind-typed ids, even though users are actually
// keyed by name on the wire. Only the low bytes matter for batching; the
// XML reply is parsed by name, not by this id.
func userPseudoID(u *entity.User) ident.ID {
	var id ident.ID
	copy(id[:], u.CanonicalName)
	return id
}

// browse batches ids into groups of at most MaxBrowseBatch, sends one
// BROWSE command per batch, and completes req once every batch's reply
// has been parsed (num_browsed == num_total, spec.md §4.H).
func (o *Orchestrator) browse(req *queue.Request, kind wire.BrowseKind, ids []ident.ID, onAllDone func()) {
	batchSize := o.Config.MaxBrowseBatch
	if batchSize <= 0 {
		batchSize = len(ids)
	}
	total := (len(ids) + batchSize - 1) / batchSize
	progress := &browseProgress{total: total}

	for i := 0; i < len(ids); i += batchSize {
		end := i + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[i:end]
		// Bump a provisional "in-request" ref-count up front so a
		// concurrent release during the browse can't drop the track
		// before its reply lands.
		for _, id := range batch {
			if kind == wire.BrowseKindTrack {
				o.Tables.Tracks.AddRef(id)
			}
		}
		cb := &browseCallback{o: o, req: req, kind: kind, batch: batch, progress: progress, total: total, onDone: onAllDone}
		if _, err := command.Browse(o.Sender, o.Channels, kind, batch, cb); err != nil {
			o.Queue.Reschedule(req, o.retryDeadline())
			return
		}
	}
	o.Queue.Pin(req)
}

// browseProgress tracks how many of a multi-batch browse's replies have
// been parsed, shared across every batch's callback.
type browseProgress struct {
	total    int
	browsed  int
	hadError bool
}

type browseCallback struct {
	o        *Orchestrator
	req      *queue.Request
	kind     wire.BrowseKind
	batch    []ident.ID
	progress *browseProgress
	total    int
	buf      ident.Buffer
	onDone   func()
}

func (c *browseCallback) OnChunk(payload []byte) {
	c.buf.Append(payload)
}

func (c *browseCallback) OnEnd(ok bool) {
	if !ok {
		c.o.Queue.Reschedule(c.req, c.o.retryDeadline())
		return
	}
	if err := c.o.parseBrowseReply(c.kind, c.batch, c.buf.Bytes()); err != nil {
		c.o.Queue.SetResult(c.req, apierr.New(apierr.KindOtherPermanent, "orchestrate: parse browse reply: %v", err), nil)
		return
	}

	if c.progress == nil {
		// Single-batch browse (e.g. BrowseUser) with no shared progress
		// tracker: complete immediately.
		c.o.Queue.SetResult(c.req, nil, nil)
		c.onDone()
		return
	}

	c.progress.browsed++
	if c.progress.browsed == c.progress.total {
		c.o.Queue.SetResult(c.req, nil, nil)
		c.onDone()
	}
}

// parseBrowseReply inflates and parses one browse batch's payload,
// dispatching to the kind-specific parser (spec.md §4.H). batch is the set
// of ids that were provisionally AddRef'd when this batch was sent, needed
// by parseTrackNodes to reconcile ref-counts against what actually came
// back.
func (o *Orchestrator) parseBrowseReply(kind wire.BrowseKind, batch []ident.ID, payload []byte) error {
	raw, err := xmldoc.Inflate(payload)
	if err != nil {
		return err
	}
	doc, err := xmldoc.Parse(xmldoc.Splice(raw))
	if err != nil {
		return err
	}
	switch kind {
	case wire.BrowseKindTrack:
		return o.parseTrackNodes(doc, batch)
	case wire.BrowseKindAlbum:
		return o.parseAlbumNodes(doc)
	case wire.BrowseKindArtist:
		return o.parseArtistNodes(doc)
	case wire.BrowseKindUser:
		return o.parseUserNodes(doc)
	default:
		return fmt.Errorf("orchestrate: unknown browse kind %d", kind)
	}
}

// parseTrackNodes loads every <track> node in doc, following <redirect>
// lists so a track returned under an alias id is interned and loaded
// under every id that refers to it (spec.md §8 scenario S5, supplemented
// from original_source/libopenspotify/playlist.c).
//
// batch is the set of ids the driving browse() provisionally AddRef'd
// before sending this request. Every id in batch that turns up as a
// <track>'s own <id> gets that provisional ref released here; any id in
// batch that never turns up at all keeps only whatever permanent ref it
// already held (spec.md §9, DESIGN.md "Open Question decisions" #2). A
// redirect id is never itself a batch member — it is discovered here, so
// it gets a fresh AddRef instead of a Release.
func (o *Orchestrator) parseTrackNodes(doc *xmldoc.Doc, batch []ident.ID) error {
	remaining := make(map[ident.ID]bool, len(batch))
	for _, id := range batch {
		remaining[id] = true
	}

	for _, node := range doc.FindAll("tracks/track") {
		idNode, ok := node.Find("id")
		if !ok {
			continue
		}
		returnedID, err := ident.ParseID(idNode.Text)
		if err != nil {
			return fmt.Errorf("orchestrate: parse track id: %w", err)
		}

		redirects := []ident.ID{}
		if redirectNode, ok := node.Find("redirect"); ok && redirectNode.Text != "" {
			keys, err := xmldoc.ParseHashKeyList(redirectNode.Text)
			if err != nil {
				return fmt.Errorf("orchestrate: parse track redirects: %w", err)
			}
			for _, k := range keys {
				redirects = append(redirects, k.ID())
			}
		}

		title := ""
		if titleNode, ok := node.Find("title"); ok {
			title = titleNode.Text
		}

		for _, id := range append([]ident.ID{returnedID}, redirects...) {
			tr := o.Tables.Tracks.InternTrack(id)
			tr.Title = title
			tr.IsLoaded = true
			o.persistTrackTitle(id, title)
			if remaining[id] {
				// A batch member: drop the provisional browse ref picked
				// up before the request went out.
				o.Tables.Tracks.Release(id)
				delete(remaining, id)
			} else {
				// Reached only via redirect: never had a provisional
				// ref, so this is its first one.
				o.Tables.Tracks.AddRef(id)
			}
		}
	}

	// Anything still in remaining was requested but never seen in any
	// <track> node; drop its provisional ref, leaving only whatever
	// permanent ref it already held.
	for id := range remaining {
		o.Tables.Tracks.Release(id)
	}
	return nil
}

func (o *Orchestrator) parseAlbumNodes(doc *xmldoc.Doc) error {
	for _, node := range doc.FindAll("albums/album") {
		idNode, ok := node.Find("id")
		if !ok {
			continue
		}
		id, err := ident.ParseID(idNode.Text)
		if err != nil {
			return fmt.Errorf("orchestrate: parse album id: %w", err)
		}
		al := o.Tables.Albums.InternAlbum(id)
		if nameNode, ok := node.Find("name"); ok {
			al.Name = nameNode.Text
		}
		al.IsLoaded = true
	}
	return nil
}

func (o *Orchestrator) parseArtistNodes(doc *xmldoc.Doc) error {
	for _, node := range doc.FindAll("artists/artist") {
		idNode, ok := node.Find("id")
		if !ok {
			continue
		}
		id, err := ident.ParseID(idNode.Text)
		if err != nil {
			return fmt.Errorf("orchestrate: parse artist id: %w", err)
		}
		ar := o.Tables.Artists.InternArtist(id)
		if nameNode, ok := node.Find("name"); ok {
			ar.Name = nameNode.Text
		}
		ar.IsLoaded = true
	}
	return nil
}

func (o *Orchestrator) parseUserNodes(doc *xmldoc.Doc) error {
	for _, node := range doc.FindAll("users/user") {
		nameNode, ok := node.Find("name")
		if !ok {
			continue
		}
		u := o.Tables.Users.InternUser(nameNode.Text)
		if displayNode, ok := node.Find("fullname"); ok {
			u.DisplayName = displayNode.Text
		}
		u.IsLoaded = true
	}
	return nil
}
