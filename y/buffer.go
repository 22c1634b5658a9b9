/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package y

import (
	"github.com/dgraph-io/ristretto/z"
)

const bufferTag = "lsmview.Buffer"

// Buffer is a growable byte buffer that owns its memory. Unlike bytes.Buffer it can be
// told to give capacity back: once the buffer has grown past MaxRetained, the next
// Reset releases it and starts over from a small allocation. This bounds the steady
// state footprint of a long-lived buffer after one unusually large write.
//
// Buffer is not thread-safe. A slice returned by Bytes is valid until the next call
// that modifies the buffer.
type Buffer struct {
	buf    []byte
	offset int

	// MaxRetained is the capacity above which Reset releases the buffer. Zero keeps
	// whatever capacity the buffer has grown to.
	MaxRetained int
}

// smallBufferSize is an initial allocation minimal capacity.
const smallBufferSize = 64

// NewBuffer returns a buffer with sz bytes preallocated that never shrinks.
func NewBuffer(sz int) *Buffer {
	return NewShrinkingBuffer(sz, 0)
}

// NewShrinkingBuffer returns a buffer that releases its capacity on Reset once it
// has grown past maxRetained bytes.
func NewShrinkingBuffer(sz, maxRetained int) *Buffer {
	b := &Buffer{MaxRetained: maxRetained}
	if sz > 0 {
		b.buf = z.Calloc(sz, bufferTag)
	}
	return b
}

func (b *Buffer) Len() int {
	return b.offset
}

func (b *Buffer) Cap() int {
	return len(b.buf)
}

func (b *Buffer) Bytes() []byte {
	return b.buf[0:b.offset]
}

// Grow makes room for n more bytes.
func (b *Buffer) Grow(n int) {
	if b.buf == nil {
		if n < smallBufferSize {
			n = smallBufferSize
		}
		b.buf = z.Calloc(n, bufferTag)
		return
	}
	if b.offset+n <= len(b.buf) {
		return
	}

	sz := 2*len(b.buf) + n
	newBuf := z.Calloc(sz, bufferTag)
	copy(newBuf, b.buf[:b.offset])
	z.Free(b.buf)
	b.buf = newBuf
}

func (b *Buffer) Write(p []byte) (n int, err error) {
	b.Grow(len(p))
	n = copy(b.buf[b.offset:], p)
	b.offset += n
	return n, nil
}

// Set replaces the contents of the buffer with p. p may alias the buffer.
func (b *Buffer) Set(p []byte) {
	if b.shouldShrink() && len(p) <= b.MaxRetained {
		old := b.buf
		b.buf, b.offset = nil, 0
		b.Grow(len(p))
		b.offset = copy(b.buf, p)
		z.Free(old)
		return
	}
	if len(p) > len(b.buf) {
		// Room is made before p is copied so that an aliasing p stays readable.
		newBuf := z.Calloc(len(p), bufferTag)
		b.offset = copy(newBuf, p)
		if b.buf != nil {
			z.Free(b.buf)
		}
		b.buf = newBuf
		return
	}
	b.offset = copy(b.buf, p)
}

func (b *Buffer) shouldShrink() bool {
	return b.MaxRetained > 0 && len(b.buf) > b.MaxRetained
}

// Reset empties the buffer, releasing its memory if it has outgrown MaxRetained.
func (b *Buffer) Reset() {
	b.offset = 0
	if b.shouldShrink() {
		z.Free(b.buf)
		b.buf = nil
	}
}

// Release frees the memory held by the buffer. The buffer may be reused afterwards.
func (b *Buffer) Release() {
	if b.buf != nil {
		z.Free(b.buf)
	}
	b.buf, b.offset = nil, 0
}
