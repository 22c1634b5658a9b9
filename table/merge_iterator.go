/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package table

import (
	"container/heap"

	"github.com/pkg/errors"

	"github.com/dgraph-io/lsmview/y"
)

// MergeIterator merges multiple sources into one stream in internal key order. It can
// change direction at any point: every child is repositioned around the current key.
// NOTE: MergeIterator owns the array of iterators and is responsible for closing them.
type MergeIterator struct {
	iters   []y.InternalIterator
	h       mergeHeap
	reverse bool
	saved   []byte
}

var _ y.InternalIterator = (*MergeIterator)(nil)
var _ y.Pinner = (*MergeIterator)(nil)
var _ y.PropertyGetter = (*MergeIterator)(nil)

type mergeHeap struct {
	cmp     y.InternalKeyComparator
	reverse bool
	items   []y.InternalIterator
}

func (h *mergeHeap) Len() int { return len(h.items) }

func (h *mergeHeap) Less(i, j int) bool {
	c := h.cmp.Compare(h.items[i].Key(), h.items[j].Key())
	if h.reverse {
		return c > 0
	}
	return c < 0
}

func (h *mergeHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *mergeHeap) Push(x interface{}) { h.items = append(h.items, x.(y.InternalIterator)) }

func (h *mergeHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	x := old[n-1]
	h.items = old[:n-1]
	return x
}

// NewMergeIterator creates a merge iterator over iters, whose user keys are ordered by
// cmp. A nil cmp means bytewise order.
func NewMergeIterator(cmp y.Comparator, iters ...y.InternalIterator) *MergeIterator {
	return &MergeIterator{
		iters: iters,
		h:     mergeHeap{cmp: y.NewInternalKeyComparator(cmp)},
	}
}

// rebuild collects the valid children into the heap for the given direction.
func (mt *MergeIterator) rebuild(reverse bool) {
	mt.reverse = reverse
	mt.h.reverse = reverse
	mt.h.items = mt.h.items[:0]
	for _, it := range mt.iters {
		if it.Valid() {
			mt.h.items = append(mt.h.items, it)
		}
	}
	heap.Init(&mt.h)
}

func (mt *MergeIterator) current() y.InternalIterator {
	if len(mt.h.items) == 0 {
		return nil
	}
	return mt.h.items[0]
}

// advanced restores the heap after the top child moved.
func (mt *MergeIterator) advanced() {
	if mt.h.items[0].Valid() {
		heap.Fix(&mt.h, 0)
		return
	}
	heap.Pop(&mt.h)
}

func (mt *MergeIterator) Valid() bool {
	return len(mt.h.items) > 0 && mt.Status() == nil
}

func (mt *MergeIterator) SeekToFirst() {
	for _, it := range mt.iters {
		it.SeekToFirst()
	}
	mt.rebuild(false)
}

func (mt *MergeIterator) SeekToLast() {
	for _, it := range mt.iters {
		it.SeekToLast()
	}
	mt.rebuild(true)
}

// Seek brings us to the first entry with internal key >= ikey.
func (mt *MergeIterator) Seek(ikey []byte) {
	for _, it := range mt.iters {
		it.Seek(ikey)
	}
	mt.rebuild(false)
}

func (mt *MergeIterator) Next() {
	cur := mt.current()
	if cur == nil {
		return
	}
	if !mt.reverse {
		cur.Next()
		mt.advanced()
		return
	}
	// Every child other than cur is placed at its first entry after the current key.
	mt.saved = append(mt.saved[:0], cur.Key()...)
	for _, it := range mt.iters {
		if it == cur {
			continue
		}
		it.Seek(mt.saved)
		if it.Valid() && mt.h.cmp.Compare(it.Key(), mt.saved) == 0 {
			it.Next()
		}
	}
	cur.Next()
	mt.rebuild(false)
}

func (mt *MergeIterator) Prev() {
	cur := mt.current()
	if cur == nil {
		return
	}
	if mt.reverse {
		cur.Prev()
		mt.advanced()
		return
	}
	// Every child other than cur is placed at its last entry before the current key.
	mt.saved = append(mt.saved[:0], cur.Key()...)
	for _, it := range mt.iters {
		if it == cur {
			continue
		}
		it.Seek(mt.saved)
		if it.Valid() {
			it.Prev()
		} else if it.Status() == nil {
			it.SeekToLast()
		}
	}
	cur.Prev()
	mt.rebuild(true)
}

// Key returns the key associated with the current iterator.
func (mt *MergeIterator) Key() []byte {
	return mt.current().Key()
}

// Value returns the value associated with the iterator.
func (mt *MergeIterator) Value() []byte {
	return mt.current().Value()
}

// Status returns the first error reported by a child.
func (mt *MergeIterator) Status() error {
	for _, it := range mt.iters {
		if err := it.Status(); err != nil {
			return err
		}
	}
	return nil
}

func (mt *MergeIterator) PinData() error {
	var err error
	for _, it := range mt.iters {
		if p, ok := it.(y.Pinner); ok {
			err = y.CombineErrors(err, p.PinData())
		}
	}
	return err
}

func (mt *MergeIterator) ReleasePinnedData() error {
	var err error
	for _, it := range mt.iters {
		if p, ok := it.(y.Pinner); ok {
			err = y.CombineErrors(err, p.ReleasePinnedData())
		}
	}
	return err
}

// IsKeyPinned reports whether the child the current key comes from has it pinned.
func (mt *MergeIterator) IsKeyPinned() bool {
	if !mt.Valid() {
		return false
	}
	p, ok := mt.current().(y.Pinner)
	return ok && p.IsKeyPinned()
}

// GetProperty returns the answer of the first child that knows the property.
func (mt *MergeIterator) GetProperty(name string) (string, error) {
	for _, it := range mt.iters {
		if g, ok := it.(y.PropertyGetter); ok {
			if v, err := g.GetProperty(name); err == nil {
				return v, nil
			}
		}
	}
	return "", errors.Errorf("merge iterator: unknown property %q", name)
}

// Close implements y.InternalIterator.
func (mt *MergeIterator) Close() error {
	var err error
	for _, it := range mt.iters {
		err = y.CombineErrors(err, it.Close())
	}
	return errors.Wrap(err, "MergeIterator")
}
