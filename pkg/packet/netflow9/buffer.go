package netflow9

import (
	"encoding/binary"
)

// Buffer is a bounded cursor over a byte slice. Every read is fallible so
// that a truncated packet can never cause a read past the end of the input.
type Buffer struct {
	data []byte
	pos  int
}

// NewBuffer returns a cursor over data.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Remaining returns the number of unread bytes.
func (b *Buffer) Remaining() int {
	return len(b.data) - b.pos
}

// Bytes returns the next n bytes as a view into the underlying slice and
// advances the cursor. It returns false if fewer than n bytes remain.
func (b *Buffer) Bytes(n int) ([]byte, bool) {
	if n < 0 || b.Remaining() < n {
		return nil, false
	}

	v := b.data[b.pos : b.pos+n]
	b.pos += n
	return v, true
}

// Uint16 reads a big-endian uint16.
func (b *Buffer) Uint16() (uint16, bool) {
	v, ok := b.Bytes(2)
	if !ok {
		return 0, false
	}

	return binary.BigEndian.Uint16(v), true
}

// Uint32 reads a big-endian uint32.
func (b *Buffer) Uint32() (uint32, bool) {
	v, ok := b.Bytes(4)
	if !ok {
		return 0, false
	}

	return binary.BigEndian.Uint32(v), true
}

// Sub splits off a sub-cursor covering the next n bytes and advances the
// parent past them. A truncated or oversized inner length can this way never
// bleed into the following flowset.
func (b *Buffer) Sub(n int) (*Buffer, bool) {
	v, ok := b.Bytes(n)
	if !ok {
		return nil, false
	}

	return &Buffer{data: v}, true
}

// Skip discards everything up to the end of the buffer.
func (b *Buffer) Skip() {
	b.pos = len(b.data)
}
