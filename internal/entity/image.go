package entity

import "github.com/qfwfq/corespot/internal/ident"

// Image is an interned, reference-counted raw image blob (playlist cover,
// album cover, ...).
type Image struct {
	ID       ident.ID
	Data     []byte
	IsLoaded bool
}

// NewImage creates an unloaded image handle for id.
func NewImage(id ident.ID) *Image {
	return &Image{ID: id}
}

// ImageTable is the per-session interning table for images.
type ImageTable struct {
	*Table[*Image]
}

// NewImageTable creates an empty image table.
func NewImageTable() *ImageTable {
	return &ImageTable{Table: NewTable[*Image]("image")}
}

// InternImage returns the existing image handle for id, creating one in
// the unloaded state if none exists yet.
func (t *ImageTable) InternImage(id ident.ID) *Image {
	return t.Intern(id, func() *Image { return NewImage(id) })
}
