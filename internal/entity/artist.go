package entity

import "github.com/qfwfq/corespot/internal/ident"

// Artist is an interned, reference-counted artist handle.
type Artist struct {
	ID       ident.ID
	Name     string
	IsLoaded bool
}

// NewArtist creates an unloaded artist handle for id.
func NewArtist(id ident.ID) *Artist {
	return &Artist{ID: id}
}

// ArtistTable is the per-session interning table for artists.
type ArtistTable struct {
	*Table[*Artist]
}

// NewArtistTable creates an empty artist table.
func NewArtistTable() *ArtistTable {
	return &ArtistTable{Table: NewTable[*Artist]("artist")}
}

// InternArtist returns the existing artist handle for id, creating one in
// the unloaded state if none exists yet.
func (t *ArtistTable) InternArtist(id ident.ID) *Artist {
	return t.Intern(id, func() *Artist { return NewArtist(id) })
}
