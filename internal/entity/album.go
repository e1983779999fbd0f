package entity

import "github.com/qfwfq/corespot/internal/ident"

// Album is an interned, reference-counted album handle.
//
// Ref-counts are tracked by the owning AlbumTable rather than on the
// struct itself (see Table[T]); this keeps a single source of truth for
// the invariant "an entity lives iff its ref-count > 0" instead of letting
// the struct's own counter drift from the table's bookkeeping.
type Album struct {
	ID       ident.ID
	Name     string
	Artist   *Artist
	Year     int
	CoverID  ident.ID
	IsLoaded bool
}

// NewAlbum creates an unloaded album handle for id.
func NewAlbum(id ident.ID) *Album {
	return &Album{ID: id}
}

// AlbumTable is the per-session interning table for albums.
type AlbumTable struct {
	*Table[*Album]
}

// NewAlbumTable creates an empty album table.
func NewAlbumTable() *AlbumTable {
	return &AlbumTable{Table: NewTable[*Album]("album")}
}

// InternAlbum returns the existing album handle for id, creating one in
// the unloaded state if none exists yet.
func (t *AlbumTable) InternAlbum(id ident.ID) *Album {
	return t.Intern(id, func() *Album { return NewAlbum(id) })
}
