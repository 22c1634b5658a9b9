/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package table

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/dgraph-io/lsmview/options"
	"github.com/dgraph-io/lsmview/y"
)

// ErrOutOfOrder is returned by Builder.Add when keys are not added in strictly
// increasing internal key order.
var ErrOutOfOrder = errors.New("table: keys must be added in increasing internal key order")

const headerSize = 8

type header struct {
	overlap uint16 // Overlap with base key.
	diff    uint16 // Length of the diff.
	vlen    uint32 // Length of value.
}

// Encode encodes the header.
func (h header) Encode(b []byte) {
	binary.BigEndian.PutUint16(b[0:2], h.overlap)
	binary.BigEndian.PutUint16(b[2:4], h.diff)
	binary.BigEndian.PutUint32(b[4:8], h.vlen)
}

// Decode decodes the header.
func (h *header) Decode(buf []byte) {
	h.overlap = binary.BigEndian.Uint16(buf[0:2])
	h.diff = binary.BigEndian.Uint16(buf[2:4])
	h.vlen = binary.BigEndian.Uint32(buf[4:8])
}

// blockMeta describes one stored block. The checksum covers the stored, possibly
// compressed, bytes.
type blockMeta struct {
	offset   uint32
	size     uint32
	firstKey []byte
	lastKey  []byte
	checksum uint64
}

// Builder is used in building a table. Entries are grouped into blocks; each entry key
// is stored as a diff against the first key of its block.
type Builder struct {
	opts options.TableOptions
	cmp  y.InternalKeyComparator

	buf     []byte // Stored blocks.
	cur     []byte // Uncompressed data of the block being built.
	offsets []uint32
	baseKey []byte
	lastKey []byte

	blocks  []blockMeta
	entries int
}

// NewTableBuilder makes a new Builder.
func NewTableBuilder(opts options.TableOptions) *Builder {
	if opts.BlockSize <= 0 {
		opts.BlockSize = options.DefaultTableOptions().BlockSize
	}
	if opts.Logger == nil {
		opts.Logger = y.DefaultLogger()
	}
	return &Builder{
		opts: opts,
		cmp:  y.NewInternalKeyComparator(opts.Comparator),
	}
}

// Empty returns whether it's empty.
func (b *Builder) Empty() bool { return b.entries == 0 }

// keyDiff returns a suffix of newKey that is different from b.baseKey.
func (b *Builder) keyDiff(newKey []byte) []byte {
	var i int
	for i = 0; i < len(newKey) && i < len(b.baseKey); i++ {
		if newKey[i] != b.baseKey[i] {
			break
		}
	}
	return newKey[i:]
}

// Add appends an entry. Internal keys must be strictly increasing. The key does not
// have to parse as a well-formed internal key.
func (b *Builder) Add(ikey, value []byte) error {
	if len(ikey) > 0xffff {
		return errors.Errorf("table: key of %d bytes is too long", len(ikey))
	}
	if b.entries > 0 && b.cmp.Compare(b.lastKey, ikey) >= 0 {
		return errors.Wrapf(ErrOutOfOrder, "%x after %x", ikey, b.lastKey)
	}
	if len(b.cur) >= b.opts.BlockSize {
		if err := b.finishBlock(); err != nil {
			return err
		}
	}
	var diffKey []byte
	if len(b.offsets) == 0 {
		// The first key of a block is stored whole and is the base for the rest.
		b.baseKey = append(b.baseKey[:0], ikey...)
		diffKey = ikey
	} else {
		diffKey = b.keyDiff(ikey)
	}
	h := header{
		overlap: uint16(len(ikey) - len(diffKey)),
		diff:    uint16(len(diffKey)),
		vlen:    uint32(len(value)),
	}
	b.offsets = append(b.offsets, uint32(len(b.cur)))
	var hbuf [headerSize]byte
	h.Encode(hbuf[:])
	b.cur = append(b.cur, hbuf[:]...)
	b.cur = append(b.cur, diffKey...)
	b.cur = append(b.cur, value...)

	b.lastKey = append(b.lastKey[:0], ikey...)
	b.entries++
	return nil
}

// finishBlock appends the entry offsets and their count to the current block, then
// compresses it into the table buffer.
func (b *Builder) finishBlock() error {
	if len(b.offsets) == 0 {
		return nil
	}
	var tmp [4]byte
	for _, off := range b.offsets {
		binary.BigEndian.PutUint32(tmp[:], off)
		b.cur = append(b.cur, tmp[:]...)
	}
	binary.BigEndian.PutUint32(tmp[:], uint32(len(b.offsets)))
	b.cur = append(b.cur, tmp[:]...)

	stored, err := b.compress(b.cur)
	if err != nil {
		return y.Wrapf(err, "while compressing block %d", len(b.blocks))
	}
	b.blocks = append(b.blocks, blockMeta{
		offset:   uint32(len(b.buf)),
		size:     uint32(len(stored)),
		firstKey: y.Copy(b.baseKey),
		lastKey:  y.Copy(b.lastKey),
		checksum: y.CalculateChecksum(stored),
	})
	b.buf = append(b.buf, stored...)
	b.cur = b.cur[:0]
	b.offsets = b.offsets[:0]
	return nil
}

func (b *Builder) compress(data []byte) ([]byte, error) {
	switch b.opts.Compression {
	case options.None:
		return data, nil
	case options.Snappy:
		return snappy.Encode(nil, data), nil
	case options.ZSTD:
		return y.ZSTDCompress(nil, data, b.opts.ZSTDCompressionLevel)
	}
	return nil, errors.Errorf("unsupported compression type %d", b.opts.Compression)
}

var tableID uint64

// Finish seals the last block and returns the immutable table. The builder must not
// be used afterwards.
func (b *Builder) Finish() (*Table, error) {
	if err := b.finishBlock(); err != nil {
		return nil, err
	}
	t := &Table{
		id:      atomic.AddUint64(&tableID, 1),
		opts:    b.opts,
		cmp:     b.cmp,
		data:    b.buf,
		blocks:  b.blocks,
		entries: b.entries,
	}
	b.buf, b.blocks = nil, nil
	return t, nil
}
