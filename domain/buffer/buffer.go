// Package buffer implements the length-prefixed byte region with head/tail
// slack used throughout the crypto and forwarding layers to avoid copies
// when pushing wire headers or growing/shrinking payloads in place.
package buffer

import "fmt"

// Buffer is a view into a fixed backing array with head- and tail-space
// slack. Invariant: base <= data <= data+len <= base+len(base).
type Buffer struct {
	base []byte
	off  int
	n    int
}

// New allocates a buffer with headSpace bytes reserved before the data
// region and tailSpace bytes reserved after it.
func New(headSpace, capacity, tailSpace int) *Buffer {
	return &Buffer{
		base: make([]byte, headSpace+capacity+tailSpace),
		off:  headSpace,
		n:    0,
	}
}

// FromSlice wraps an existing slice with no head/tail slack, e.g. for a
// freshly read datagram that will only ever be trimmed, never grown.
func FromSlice(b []byte) *Buffer {
	return &Buffer{base: b, off: 0, n: len(b)}
}

// Bytes returns the current data region.
func (b *Buffer) Bytes() []byte {
	return b.base[b.off : b.off+b.n]
}

// Len returns the current data length.
func (b *Buffer) Len() int {
	return b.n
}

// HeadRoom returns the number of bytes available before the data region.
func (b *Buffer) HeadRoom() int {
	return b.off
}

// TailRoom returns the number of bytes available after the data region.
func (b *Buffer) TailRoom() int {
	return len(b.base) - b.off - b.n
}

// PushHead moves the data pointer back by n bytes, extending the buffer to
// the front (e.g. to prepend a wire header). Returns the newly exposed
// region so the caller can fill it in place.
func (b *Buffer) PushHead(n int) ([]byte, error) {
	if n > b.HeadRoom() {
		return nil, fmt.Errorf("buffer: not enough head room: need %d, have %d", n, b.HeadRoom())
	}
	b.off -= n
	b.n += n
	return b.base[b.off : b.off+n], nil
}

// PopHead advances the data pointer by n bytes, shrinking the buffer from
// the front (e.g. after stripping a parsed header).
func (b *Buffer) PopHead(n int) error {
	if n > b.n {
		return fmt.Errorf("buffer: pop exceeds length: %d > %d", n, b.n)
	}
	b.off += n
	b.n -= n
	return nil
}

// GrowTail extends the data region into the tail slack by n bytes (e.g. to
// append a MAC tag), returning the newly exposed region.
func (b *Buffer) GrowTail(n int) ([]byte, error) {
	if n > b.TailRoom() {
		return nil, fmt.Errorf("buffer: not enough tail room: need %d, have %d", n, b.TailRoom())
	}
	region := b.base[b.off+b.n : b.off+b.n+n]
	b.n += n
	return region, nil
}

// ShrinkTail removes n bytes from the end of the data region.
func (b *Buffer) ShrinkTail(n int) error {
	if n > b.n {
		return fmt.Errorf("buffer: shrink exceeds length: %d > %d", n, b.n)
	}
	b.n -= n
	return nil
}

// Reset clears the data region back to zero length at the current offset.
func (b *Buffer) Reset() {
	b.n = 0
}
