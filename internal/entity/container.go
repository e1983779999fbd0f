package entity

import "sync"

// ContainerSubscriberCallback is invoked by NotifyChanged. Insert, Remove
// and SetRevision do not call it themselves.
type ContainerSubscriberCallback func(*Container)

// Container is the one-per-session ordered sequence of playlists
// (spec.md §3: "playlist container (one per session)"). Positions are
// kept dense and in sync with Playlist.Position: for every playlist p at
// index i, playlists[i] == p and p.Position == i.
type Container struct {
	mu sync.RWMutex

	playlists []*Playlist
	Revision  int
	Checksum  uint32
	Dirty     bool

	subscribers []ContainerSubscriberCallback
}

// NewContainer creates an empty container.
func NewContainer() *Container {
	return &Container{}
}

// Len returns the number of playlists currently in the container.
func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.playlists)
}

// At returns the playlist at position i, or nil if i is out of range.
func (c *Container) At(i int) *Playlist {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.playlists) {
		return nil
	}
	return c.playlists[i]
}

// Playlists returns a snapshot of the container's ordered playlists.
func (c *Container) Playlists() []*Playlist {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Playlist, len(c.playlists))
	copy(out, c.playlists)
	return out
}

// Insert adds p at position i, shifting later entries right and
// reassigning every affected Position field so the index invariant holds.
func (c *Container) Insert(i int, p *Playlist) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i > len(c.playlists) {
		i = len(c.playlists)
	}
	c.playlists = append(c.playlists, nil)
	copy(c.playlists[i+1:], c.playlists[i:])
	c.playlists[i] = p
	c.reindexLocked()
	p.SetContainer(c)
	c.Dirty = true
}

// Append adds p to the end of the container.
func (c *Container) Append(p *Playlist) {
	c.Insert(c.Len(), p)
}

// Remove deletes the playlist at position i, if any.
func (c *Container) Remove(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.playlists) {
		return
	}
	removed := c.playlists[i]
	c.playlists = append(c.playlists[:i], c.playlists[i+1:]...)
	c.reindexLocked()
	if removed != nil {
		removed.SetContainer(nil)
	}
	c.Dirty = true
}

// reindexLocked reassigns Position on every playlist to match its current
// slice index. Callers must hold c.mu for writing.
func (c *Container) reindexLocked() {
	for i, p := range c.playlists {
		if p != nil {
			p.mu.Lock()
			p.Position = i
			p.mu.Unlock()
		}
	}
}

// Subscribe registers cb to be notified of future container mutations.
func (c *Container) Subscribe(cb ContainerSubscriberCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, cb)
}

// NotifyChanged fires every container-level subscriber callback.
func (c *Container) NotifyChanged() {
	c.mu.RLock()
	subs := make([]ContainerSubscriberCallback, len(c.subscribers))
	copy(subs, c.subscribers)
	c.mu.RUnlock()
	for _, cb := range subs {
		cb(c)
	}
}

// SetRevision updates the container's revision and checksum, clearing
// Dirty once they match what was just persisted or confirmed by the
// server.
func (c *Container) SetRevision(revision int, checksum uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Revision = revision
	c.Checksum = checksum
	c.Dirty = false
}
