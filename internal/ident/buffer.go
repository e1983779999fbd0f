package ident

import "bytes"

// Buffer is a growable byte buffer used to accumulate a channel's streamed
// payload across DATA frames before it is parsed as XML. It is a thin
// wrapper around bytes.Buffer so callers get the original's buf_new /
// buf_append_data naming without reimplementing growth logic.
type Buffer struct {
	buf bytes.Buffer
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append appends data to the buffer, growing it as needed.
func (b *Buffer) Append(data []byte) {
	b.buf.Write(data)
}

// AppendString appends s to the buffer.
func (b *Buffer) AppendString(s string) {
	b.buf.WriteString(s)
}

// Bytes returns the buffer's current contents. The returned slice is only
// valid until the next mutating call.
func (b *Buffer) Bytes() []byte {
	return b.buf.Bytes()
}

// Len returns the number of bytes currently buffered.
func (b *Buffer) Len() int {
	return b.buf.Len()
}
