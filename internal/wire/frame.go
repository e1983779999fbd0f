// Package wire implements the binary command protocol: packet framing,
// the GETPLAYLIST/CHANGEPLAYLIST payload layouts, and the authenticated
// transport cipher (spec.md §5 "Wire protocol (collaborator)").
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/qfwfq/corespot/internal/ident"
)

// Command identifies a command packet's payload layout.
type Command byte

const (
	CmdGetPlaylist    Command = 0x04
	CmdChangePlaylist Command = 0x05
	CmdBrowse         Command = 0x06
	CmdChannelData    Command = 0x09
	CmdPing           Command = 0x02
	CmdNotify         Command = 0x0f
	CmdTokenLost      Command = 0x0c
)

// BrowseKind identifies which entity kind a BROWSE command requests.
type BrowseKind byte

const (
	BrowseKindTrack  BrowseKind = 0x01
	BrowseKindAlbum  BrowseKind = 0x02
	BrowseKindArtist BrowseKind = 0x03
	BrowseKindUser   BrowseKind = 0x04
)

// MaxPayloadSize bounds the 16-bit payload length field.
const MaxPayloadSize = 0xFFFF

// Frame is one decoded command packet: {u8 cmd, u16 payload_len, payload}.
type Frame struct {
	Cmd     Command
	Payload []byte
}

// ReadFrame reads one length-framed packet from r.
func ReadFrame(r io.Reader) (Frame, error) {
	var hdr [3]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, fmt.Errorf("wire: read frame header: %w", err)
	}
	cmd := Command(hdr[0])
	payloadLen := binary.BigEndian.Uint16(hdr[1:3])
	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, fmt.Errorf("wire: read frame payload: %w", err)
		}
	}
	return Frame{Cmd: cmd, Payload: payload}, nil
}

// WriteFrame writes one length-framed packet to w.
func WriteFrame(w io.Writer, f Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return fmt.Errorf("wire: payload too large: %d bytes", len(f.Payload))
	}
	var hdr [3]byte
	hdr[0] = byte(f.Cmd)
	binary.BigEndian.PutUint16(hdr[1:3], uint16(len(f.Payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("wire: write frame header: %w", err)
	}
	if len(f.Payload) > 0 {
		if _, err := w.Write(f.Payload); err != nil {
			return fmt.Errorf("wire: write frame payload: %w", err)
		}
	}
	return nil
}

// ChannelFrame is a decoded reply packet: {u16 channel_id, header_or_data}.
type ChannelFrame struct {
	ChannelID uint16
	Payload   []byte
}

// ParseChannelFrame splits a CHANNEL_DATA payload into its channel id and
// remaining bytes.
func ParseChannelFrame(payload []byte) (ChannelFrame, error) {
	if len(payload) < 2 {
		return ChannelFrame{}, fmt.Errorf("wire: channel frame too short: %d bytes", len(payload))
	}
	return ChannelFrame{
		ChannelID: binary.BigEndian.Uint16(payload[:2]),
		Payload:   payload[2:],
	}, nil
}

// allRevisions is the "full state" revision mask.
const allRevisions uint32 = 0xFFFFFFFF

// EncodeGetPlaylist builds a GETPLAYLIST payload: the 17-byte id (all-zero
// for the container), a 32-bit revision mask, and two trailing zero bytes.
func EncodeGetPlaylist(id ident.HashKey) []byte {
	var buf bytes.Buffer
	buf.Write(id[:])
	var rev [4]byte
	binary.BigEndian.PutUint32(rev[:], allRevisions)
	buf.Write(rev[:])
	buf.Write([]byte{0, 0})
	return buf.Bytes()
}

// EncodeChangePlaylist builds a CHANGEPLAYLIST payload: the 17-byte id,
// base revision, current track count, current checksum, shared flag,
// followed by the ops XML blob.
func EncodeChangePlaylist(id ident.HashKey, xmlOps []byte, baseRevision, numTracks int, checksum uint32, shared bool) []byte {
	var buf bytes.Buffer
	buf.Write(id[:])

	var u32 [4]byte
	binary.BigEndian.PutUint32(u32[:], uint32(baseRevision))
	buf.Write(u32[:])
	binary.BigEndian.PutUint32(u32[:], uint32(numTracks))
	buf.Write(u32[:])
	binary.BigEndian.PutUint32(u32[:], checksum)
	buf.Write(u32[:])

	if shared {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	buf.Write(xmlOps)
	return buf.Bytes()
}

// EncodeBrowse builds a BROWSE payload: one kind byte followed by the
// concatenated 16-byte ids being requested in this batch.
func EncodeBrowse(kind BrowseKind, ids []ident.ID) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(kind))
	for _, id := range ids {
		buf.Write(id[:])
	}
	return buf.Bytes()
}
