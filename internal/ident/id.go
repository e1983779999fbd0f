// Package ident implements the fixed-size binary identifiers used to key
// every entity table in corespot, along with the hex codec and checksum
// folds that operate over them.
package ident

import (
	"encoding/hex"
	"fmt"
	"hash/adler32"
)

// Size is the length in bytes of a canonical entity identifier.
const Size = 16

// HashKeySize is the length of a HashKey: an ID plus one discriminator byte.
const HashKeySize = Size + 1

// ID is a 16-byte opaque entity identifier (track, album, artist, image, or
// the low 16 bytes of a playlist id).
type ID [Size]byte

// Zero is the all-zero ID, used as the playlist container's own identifier
// in GETPLAYLIST requests.
var Zero ID

// IsZero reports whether id is the all-zero identifier.
func (id ID) IsZero() bool {
	return id == Zero
}

// String renders id as lowercase hex.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// ParseID decodes a 32-character hex string into an ID.
func ParseID(s string) (ID, error) {
	var id ID
	if len(s) != Size*2 {
		return id, fmt.Errorf("ident: want %d hex chars, got %d", Size*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("ident: decode %q: %w", s, err)
	}
	copy(id[:], b)
	return id, nil
}

// HashKey is a 17-byte value used only as a map key: an ID with one
// trailing discriminator byte, distinguishing e.g. a playlist checksum
// input from a track checksum input.
type HashKey [HashKeySize]byte

// NewHashKey builds a HashKey from a 16-byte ID and a discriminator byte.
func NewHashKey(id ID, discriminator byte) HashKey {
	var k HashKey
	copy(k[:Size], id[:])
	k[Size] = discriminator
	return k
}

// ID returns the 16-byte ID portion of the key, dropping the discriminator.
func (k HashKey) ID() ID {
	var id ID
	copy(id[:], k[:Size])
	return id
}

// String renders k as lowercase hex (34 characters).
func (k HashKey) String() string {
	return hex.EncodeToString(k[:])
}

// ParseHashKey decodes a 34-character hex string into a HashKey.
func ParseHashKey(s string) (HashKey, error) {
	var k HashKey
	if len(s) != HashKeySize*2 {
		return k, fmt.Errorf("ident: want %d hex chars, got %d", HashKeySize*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return k, fmt.Errorf("ident: decode %q: %w", s, err)
	}
	copy(k[:], b)
	return k, nil
}

// Checksum discriminator bytes, per the wire format's folding rule.
const (
	discriminatorTrack    byte = 0x01
	discriminatorPlaylist byte = 0x02
)

// ChecksumPlaylist folds a playlist's ordered track ids into an Adler-32
// checksum: each id is followed by a literal 0x01 byte.
func ChecksumPlaylist(trackIDs []ID) uint32 {
	h := adler32.New()
	var buf [HashKeySize]byte
	buf[Size] = discriminatorTrack
	for _, id := range trackIDs {
		copy(buf[:Size], id[:])
		h.Write(buf[:])
	}
	return h.Sum32()
}

// ChecksumContainer folds a container's ordered playlist ids into an
// Adler-32 checksum: each id is followed by a literal 0x02 byte.
func ChecksumContainer(playlistIDs []ID) uint32 {
	h := adler32.New()
	var buf [HashKeySize]byte
	buf[Size] = discriminatorPlaylist
	for _, id := range playlistIDs {
		copy(buf[:Size], id[:])
		h.Write(buf[:])
	}
	return h.Sum32()
}
