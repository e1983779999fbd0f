package entity

import (
	"testing"
	"unicode/utf8"

	"github.com/qfwfq/corespot/internal/ident"
)

func hashKeyFor(b byte) ident.HashKey {
	var id ident.ID
	id[0] = b
	return ident.NewHashKey(id, 0x02)
}

// TestContainerPositionInvariant checks invariant 2: for every playlist p
// in a container c, c.playlists[p.Position] == p.
func TestContainerPositionInvariant(t *testing.T) {
	c := NewContainer()
	p1 := NewPlaylist(hashKeyFor(1))
	p2 := NewPlaylist(hashKeyFor(2))
	p3 := NewPlaylist(hashKeyFor(3))

	c.Append(p1)
	c.Append(p2)
	c.Insert(1, p3) // p1, p3, p2

	for i := 0; i < c.Len(); i++ {
		p := c.At(i)
		if p.Position != i {
			t.Fatalf("playlist at index %d has Position %d", i, p.Position)
		}
		if p.Container() != c {
			t.Fatalf("playlist at index %d has wrong container back-reference", i)
		}
	}

	c.Remove(0) // p3, p2
	for i := 0; i < c.Len(); i++ {
		p := c.At(i)
		if p.Position != i {
			t.Fatalf("after remove, playlist at index %d has Position %d", i, p.Position)
		}
	}
	if p1.Container() != nil {
		t.Fatal("removed playlist should have a nil container back-reference")
	}
}

// TestContainerEmptyBoundary checks the empty-container boundary case
// (spec.md §8): Len is zero and At returns nil for any index.
func TestContainerEmptyBoundary(t *testing.T) {
	c := NewContainer()
	if c.Len() != 0 {
		t.Fatalf("want empty container, got len %d", c.Len())
	}
	if c.At(0) != nil {
		t.Fatal("At on empty container should return nil")
	}
	if got := c.Playlists(); len(got) != 0 {
		t.Fatalf("want empty slice, got %v", got)
	}
}

// TestPlaylistTableRefCounting checks invariant 1: an entity is present in
// its table iff its ref-count is greater than zero.
func TestPlaylistTableRefCounting(t *testing.T) {
	tbl := NewPlaylistTable()
	id := hashKeyFor(9)

	p := tbl.Intern(id)
	if tbl.Len() != 1 {
		t.Fatalf("want 1 entry after Intern, got %d", tbl.Len())
	}

	tbl.AddRef(id)
	tbl.AddRef(id)
	if dropped := tbl.Release(id); dropped {
		t.Fatal("Release should not drop the entry while ref-count is still 1")
	}
	if _, ok := tbl.Lookup(id); !ok {
		t.Fatal("playlist should still be interned")
	}

	if dropped := tbl.Release(id); !dropped {
		t.Fatal("Release should drop the entry once ref-count reaches 0")
	}
	if _, ok := tbl.Lookup(id); ok {
		t.Fatal("playlist should no longer be interned")
	}
	if p.ID != id {
		t.Fatalf("want id %v, got %v", id, p.ID)
	}
}

// TestPlaylistSubscriberNotify checks that NotifyChanged invokes every
// registered subscriber exactly once.
func TestPlaylistSubscriberNotify(t *testing.T) {
	p := NewPlaylist(hashKeyFor(4))
	calls := 0
	p.Subscribe(func(*Playlist) { calls++ })
	p.Subscribe(func(*Playlist) { calls++ })

	p.NotifyChanged()
	if calls != 2 {
		t.Fatalf("want 2 subscriber calls, got %d", calls)
	}
}

// TestPlaylistSetNameTruncation checks that SetName truncates on a byte
// boundary rather than splitting a multi-byte rune.
func TestPlaylistSetNameTruncation(t *testing.T) {
	p := NewPlaylist(hashKeyFor(5))
	name := "caféau lait" // 'é' is 2 bytes in UTF-8
	p.SetName(name, 4)         // "caf" + first byte of é would split it
	if got := p.Name; len(got) > 4 {
		t.Fatalf("want at most 4 bytes, got %q (%d bytes)", got, len(got))
	}
	if !utf8.ValidString(p.Name) {
		t.Fatalf("truncated name %q splits a multi-byte rune", p.Name)
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateAdded:  "ADDED",
		StateListed: "LISTED",
		StateLoaded: "LOADED",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Fatalf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
