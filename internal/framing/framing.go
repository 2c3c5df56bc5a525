// Package framing implements the per-connection growable byte buffer
// that segments an inbound TCP stream on newline boundaries. Capacity
// doubles whenever the buffer fills, and never shrinks within a
// connection's lifetime.
package framing

import "aesdsocket/internal/xerrors"

// initialCapacity matches the original design's BUFFER_SIZE-sized
// first allocation.
const initialCapacity = 1024

// Buffer holds the unterminated tail of an inbound byte stream. The
// zero value is not ready to use; call New.
type Buffer struct {
	data []byte
	cap  int // tracked separately from cap(data) so doubling is explicit and assertable
}

// New returns a Buffer with the standard 1024-byte initial capacity.
func New() *Buffer {
	return &Buffer{
		data: make([]byte, 0, initialCapacity),
		cap:  initialCapacity,
	}
}

// Feed appends one byte, doubling capacity first if the buffer is
// full. It reports whether c completed a record (c == '\n').
func (b *Buffer) Feed(c byte) bool {
	if len(b.data) == cap(b.data) {
		b.grow()
	}
	b.data = append(b.data, c)
	return c == '\n'
}

// grow doubles the buffer's capacity. Capacity only ever increases
// within a connection's lifetime — Reset clears length, never
// capacity, so repeated records in the same connection amortize their
// allocations.
func (b *Buffer) grow() {
	newCap := b.cap * 2
	grown := make([]byte, len(b.data), newCap)
	copy(grown, b.data)
	b.data = grown
	b.cap = newCap
}

// Bytes returns the buffer's current contents. The slice is only
// valid until the next Feed or Reset call.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the number of bytes currently buffered.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Cap returns the buffer's current capacity, for tests asserting the
// monotonic-doubling invariant.
func (b *Buffer) Cap() int {
	return b.cap
}

// Reset clears the buffered record so the next Feed starts a fresh
// one, without shrinking capacity.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
}

// ErrRecordTooLarge is a sentinel for an oversized record. framing
// itself has no upper bound and never returns it; conn enforces its own
// cap (maxRecordBytes) by logging and closing the connection, without
// using this value.
var ErrRecordTooLarge = xerrors.ErrOutOfMemory
