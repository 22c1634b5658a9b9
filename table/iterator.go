/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package table

import (
	"sort"

	"github.com/dgraph-io/lsmview/y"
)

// Iterator walks the physical entries of a Table in internal key order. It implements
// y.InternalIterator and y.Pinner.
//
// A block that fails to load makes the iterator invalid and is reported by Status
// until the next Seek, SeekToFirst or SeekToLast.
type Iterator struct {
	t    *Table
	bpos int // Index of the loaded block.
	blk  *block
	idx  int // Index of the current entry within blk.

	key    []byte
	val    []byte
	search []byte
	err    error

	// scratch holds decompressed data of an unpinned block and is reused on the
	// next load.
	scratch []byte
	pinned  bool
	// retained keeps decoded blocks alive while the iterator is pinned.
	retained []*block
}

var _ y.InternalIterator = (*Iterator)(nil)
var _ y.Pinner = (*Iterator)(nil)

// NewIterator returns an unpositioned iterator over the table.
func (t *Table) NewIterator() *Iterator {
	return &Iterator{t: t, bpos: -1}
}

func (itr *Iterator) reset() {
	itr.blk = nil
	itr.bpos = -1
	itr.idx = 0
	itr.err = nil
}

func (itr *Iterator) loadBlock(i int) bool {
	if i < 0 || i >= len(itr.t.blocks) {
		itr.blk = nil
		return false
	}
	var dst []byte
	if !itr.pinned {
		dst = itr.scratch
	}
	b, owned, err := itr.t.block(i, dst)
	if err != nil {
		itr.t.opts.Logger.Errorf("while loading block: %v", err)
		itr.err = err
		itr.blk = nil
		return false
	}
	if !owned {
		itr.scratch = b.data[:cap(b.data)]
	}
	if itr.pinned {
		itr.retained = append(itr.retained, b)
	}
	itr.blk = b
	itr.bpos = i
	return true
}

func (itr *Iterator) setIdx(i int) {
	itr.idx = i
	if itr.pinned {
		// A fresh key per entry so that a pinned key is never overwritten.
		itr.key, itr.val = itr.blk.entry(i, nil)
		return
	}
	itr.key, itr.val = itr.blk.entry(i, itr.key)
}

func (itr *Iterator) Valid() bool {
	return itr.err == nil && itr.blk != nil && itr.idx >= 0 && itr.idx < itr.blk.numEntries()
}

// Seek brings us to the first entry with internal key >= ikey.
func (itr *Iterator) Seek(ikey []byte) {
	itr.reset()
	cmp := itr.t.cmp
	bi := sort.Search(len(itr.t.blocks), func(i int) bool {
		return cmp.Compare(itr.t.blocks[i].lastKey, ikey) >= 0
	})
	if !itr.loadBlock(bi) {
		return
	}
	n := itr.blk.numEntries()
	j := sort.Search(n, func(j int) bool {
		itr.search, _ = itr.blk.entry(j, itr.search)
		return cmp.Compare(itr.search, ikey) >= 0
	})
	// lastKey of the block is >= ikey, so j < n.
	y.AssertTrue(j < n)
	itr.setIdx(j)
}

func (itr *Iterator) SeekToFirst() {
	itr.reset()
	if itr.loadBlock(0) {
		itr.setIdx(0)
	}
}

func (itr *Iterator) SeekToLast() {
	itr.reset()
	if itr.loadBlock(len(itr.t.blocks) - 1) {
		itr.setIdx(itr.blk.numEntries() - 1)
	}
}

func (itr *Iterator) Next() {
	if !itr.Valid() {
		return
	}
	if itr.idx+1 < itr.blk.numEntries() {
		itr.setIdx(itr.idx + 1)
		return
	}
	if itr.loadBlock(itr.bpos + 1) {
		itr.setIdx(0)
	}
}

func (itr *Iterator) Prev() {
	if !itr.Valid() {
		return
	}
	if itr.idx > 0 {
		itr.setIdx(itr.idx - 1)
		return
	}
	if itr.loadBlock(itr.bpos - 1) {
		itr.setIdx(itr.blk.numEntries() - 1)
	}
}

func (itr *Iterator) Key() []byte { return itr.key }

func (itr *Iterator) Value() []byte { return itr.val }

func (itr *Iterator) Status() error { return itr.err }

// PinData keeps every block loaded from now on, and the current one, alive until
// ReleasePinnedData.
func (itr *Iterator) PinData() error {
	if itr.pinned {
		return nil
	}
	itr.pinned = true
	if itr.blk != nil {
		itr.retained = append(itr.retained, itr.blk)
		itr.key = y.Copy(itr.key)
	}
	// The current block may live in scratch, which must not be written again.
	itr.scratch = nil
	return nil
}

func (itr *Iterator) ReleasePinnedData() error {
	if !itr.pinned {
		return nil
	}
	itr.pinned = false
	itr.retained = nil
	// Keys handed out while pinned stay untouched.
	itr.key = y.Copy(itr.key)
	return nil
}

func (itr *Iterator) IsKeyPinned() bool { return itr.pinned && itr.Valid() }

func (itr *Iterator) Close() error {
	itr.retained = nil
	itr.scratch = nil
	itr.blk = nil
	return nil
}
