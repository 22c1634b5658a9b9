/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package table

import (
	"encoding/binary"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/dgraph-io/lsmview/options"
	"github.com/dgraph-io/lsmview/y"
)

// ErrMalformedBlock is returned when a block decodes to offsets outside its data.
var ErrMalformedBlock = errors.New("table: malformed block")

// Table is an immutable sorted run of physical entries held in memory as compressed,
// checksummed blocks.
type Table struct {
	id      uint64
	opts    options.TableOptions
	cmp     y.InternalKeyComparator
	data    []byte
	blocks  []blockMeta
	entries int
}

// ID returns the process-unique id of the table.
func (t *Table) ID() uint64 { return t.id }

// NumBlocks returns the number of blocks.
func (t *Table) NumBlocks() int { return len(t.blocks) }

// NumEntries returns the number of physical entries.
func (t *Table) NumEntries() int { return t.entries }

// Size returns the stored size of all blocks in bytes.
func (t *Table) Size() int64 { return int64(len(t.data)) }

// Smallest is its smallest internal key, or nil if the table is empty.
func (t *Table) Smallest() []byte {
	if len(t.blocks) == 0 {
		return nil
	}
	return t.blocks[0].firstKey
}

// Biggest is its biggest internal key, or nil if the table is empty.
func (t *Table) Biggest() []byte {
	if len(t.blocks) == 0 {
		return nil
	}
	return t.blocks[len(t.blocks)-1].lastKey
}

type block struct {
	data         []byte // Entries, without the trailing offsets.
	entryOffsets []uint32
	baseKey      []byte
}

func (b *block) numEntries() int { return len(b.entryOffsets) }

// entry returns the entry at i. The key is assembled into dst; the value points into
// the block.
func (b *block) entry(i int, dst []byte) (key, val []byte) {
	pos := b.entryOffsets[i]
	var h header
	h.Decode(b.data[pos:])
	pos += headerSize
	key = append(dst[:0], b.baseKey[:h.overlap]...)
	key = append(key, b.data[pos:pos+uint32(h.diff)]...)
	pos += uint32(h.diff)
	val = b.data[pos : pos+h.vlen]
	return key, val
}

// decodeBlock validates every entry of raw so that entry never reads out of bounds.
func decodeBlock(raw []byte) (*block, error) {
	if len(raw) < 4 {
		return nil, ErrMalformedBlock
	}
	n := int(binary.BigEndian.Uint32(raw[len(raw)-4:]))
	end := len(raw) - 4 - 4*n
	if n == 0 || end < 0 {
		return nil, ErrMalformedBlock
	}
	b := &block{
		data:         raw[:end],
		entryOffsets: make([]uint32, n),
	}
	for i := 0; i < n; i++ {
		b.entryOffsets[i] = binary.BigEndian.Uint32(raw[end+4*i:])
	}
	for i, off := range b.entryOffsets {
		if int(off)+headerSize > end {
			return nil, errors.Wrapf(ErrMalformedBlock, "entry %d header", i)
		}
		var h header
		h.Decode(b.data[off:])
		if i == 0 {
			if h.overlap != 0 {
				return nil, errors.Wrapf(ErrMalformedBlock, "first entry overlaps")
			}
			b.baseKey = b.data[off+headerSize : int(off)+headerSize+min(int(h.diff), end-int(off)-headerSize)]
		}
		if int(h.overlap) > len(b.baseKey) ||
			int(off)+headerSize+int(h.diff)+int(h.vlen) > end {
			return nil, errors.Wrapf(ErrMalformedBlock, "entry %d out of bounds", i)
		}
	}
	return b, nil
}

func (t *Table) cacheKey(idx int) uint64 {
	return t.id<<32 | uint64(idx)
}

// block loads, verifies and decodes block idx. Decompressed data goes into dst when
// it is large enough. The returned bool is true if the block shares no memory with
// dst.
func (t *Table) block(idx int, dst []byte) (*block, bool, error) {
	if c := t.opts.BlockCache; c != nil {
		if v, ok := c.Get(t.cacheKey(idx)); ok {
			return v.(*block), true, nil
		}
	}
	m := t.blocks[idx]
	stored := t.data[m.offset : m.offset+m.size]
	if t.opts.VerifyChecksum {
		if err := y.VerifyChecksum(stored, m.checksum); err != nil {
			return nil, false, errors.Wrapf(err, "table %d block %d", t.id, idx)
		}
	}

	var raw []byte
	var err error
	switch t.opts.Compression {
	case options.None:
		raw = stored
	case options.Snappy:
		raw, err = snappy.Decode(dst[:cap(dst)], stored)
	case options.ZSTD:
		raw, err = y.ZSTDDecompress(dst, stored)
	default:
		err = errors.Errorf("unsupported compression type %d", t.opts.Compression)
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "while decompressing table %d block %d", t.id, idx)
	}
	b, err := decodeBlock(raw)
	if err != nil {
		return nil, false, errors.Wrapf(err, "table %d block %d", t.id, idx)
	}
	y.NumBlocksLoadedAdd(true, 1)
	y.NumBlockBytesLoadedAdd(true, int64(len(raw)))

	owned := t.opts.Compression == options.None || cap(dst) == 0 ||
		&raw[0] != &dst[:cap(dst)][0]
	if c := t.opts.BlockCache; c != nil {
		if !owned {
			raw = y.Copy(raw)
			if b, err = decodeBlock(raw); err != nil {
				return nil, false, err
			}
		}
		c.Set(t.cacheKey(idx), b, int64(len(raw)))
		return b, true, nil
	}
	return b, owned, nil
}
