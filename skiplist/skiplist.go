/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

// Package skiplist is an ordered set of byte keys, adapted from the RocksDB skiplist.
//
// Writes require external synchronization, most likely a mutex. Reads require a
// guarantee that the Skiplist will not be destroyed while the read is in progress.
// Apart from that, reads progress without any internal locking or synchronization,
// and a node never changes once it is linked in, so keys handed out by an Iterator
// stay valid for the lifetime of the list.
package skiplist

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/dgraph-io/lsmview/y"
)

const (
	defaultMaxHeight = 12
	defaultBranching = 4
)

type node struct {
	key []byte

	// next[i] is the next node on level i.
	next []unsafe.Pointer // []*node
}

func newNode(key []byte, height int) *node {
	return &node{
		key:  key,
		next: make([]unsafe.Pointer, height),
	}
}

func (n *node) getNext(h int) *node {
	return (*node)(atomic.LoadPointer(&n.next[h]))
}

func (n *node) setNext(h int, x *node) {
	atomic.StorePointer(&n.next[h], unsafe.Pointer(x))
}

// Skiplist keeps keys sorted by a y.Comparator. Duplicates are rejected.
type Skiplist struct {
	sync.Mutex // For InsertConcurrently only.

	maxHeight    int
	invBranching float32
	head         *node
	cmp          y.Comparator
	rnd          *rand.Rand

	// height is modified only by Insert. Read racily by readers but stale
	// values are ok.
	height int32
	length int64
}

// NewSkiplist creates a skiplist ordered by cmp.
func NewSkiplist(cmp y.Comparator) *Skiplist {
	return NewSkiplistWithParams(defaultMaxHeight, defaultBranching, cmp)
}

// NewSkiplistWithParams creates a skiplist with a custom tower height and branching factor.
func NewSkiplistWithParams(maxHeight, branching int, cmp y.Comparator) *Skiplist {
	y.AssertTrue(maxHeight > 0)
	y.AssertTrue(branching > 1)
	return &Skiplist{
		maxHeight:    maxHeight,
		invBranching: 1.0 / float32(branching),
		head:         newNode(nil, maxHeight),
		cmp:          cmp,
		rnd:          rand.New(rand.NewSource(0xdeadbeef)),
		height:       1,
	}
}

func (s *Skiplist) getHeight() int {
	return int(atomic.LoadInt32(&s.height))
}

// Len returns the number of keys in the list.
func (s *Skiplist) Len() int {
	return int(atomic.LoadInt64(&s.length))
}

func (s *Skiplist) randomHeight() int {
	h := 1
	for h < s.maxHeight && s.rnd.Float32() < s.invBranching {
		h++
	}
	return h
}

// findGreaterOrEqual returns the earliest node with a key >= key, or nil.
func (s *Skiplist) findGreaterOrEqual(key []byte) *node {
	x := s.head
	level := s.getHeight() - 1
	for {
		next := x.getNext(level)
		if next != nil && s.cmp.Compare(next.key, key) < 0 {
			x = next
			continue
		}
		if level == 0 {
			return next
		}
		level--
	}
}

// findLessThan returns the latest node with a key < key, or head. If prev is
// non-nil it is filled with the predecessor of key on every level.
func (s *Skiplist) findLessThan(key []byte, prev []*node) *node {
	x := s.head
	level := s.getHeight() - 1
	for {
		next := x.getNext(level)
		if next != nil && s.cmp.Compare(next.key, key) < 0 {
			x = next
			continue
		}
		if prev != nil {
			prev[level] = x
		}
		if level == 0 {
			return x
		}
		level--
	}
}

// findLast returns the last node in the list, or head if the list is empty.
func (s *Skiplist) findLast() *node {
	x := s.head
	level := s.getHeight() - 1
	for {
		next := x.getNext(level)
		if next != nil {
			x = next
			continue
		}
		if level == 0 {
			return x
		}
		level--
	}
}

// Insert adds key to the list. It returns false, leaving the list unchanged, if an
// equal key is already present. The list keeps a reference to key.
func (s *Skiplist) Insert(key []byte) bool {
	prev := make([]*node, s.maxHeight)
	x := s.findLessThan(key, prev)
	if next := x.getNext(0); next != nil && s.cmp.Compare(next.key, key) == 0 {
		return false
	}

	height := s.randomHeight()
	if cur := s.getHeight(); height > cur {
		for i := cur; i < height; i++ {
			prev[i] = s.head
		}
		// A concurrent reader that observes the new height either sees nil at the
		// new levels of head and drops down, or sees the new node.
		atomic.StoreInt32(&s.height, int32(height))
	}

	n := newNode(key, height)
	for i := 0; i < height; i++ {
		n.setNext(i, prev[i].getNext(i))
		prev[i].setNext(i, n)
	}
	atomic.AddInt64(&s.length, 1)
	return true
}

// InsertConcurrently is Insert guarded by the list's mutex.
func (s *Skiplist) InsertConcurrently(key []byte) bool {
	s.Lock()
	defer s.Unlock()
	return s.Insert(key)
}

// Contains returns whether skiplist contains given key.
func (s *Skiplist) Contains(key []byte) bool {
	n := s.findGreaterOrEqual(key)
	return n != nil && s.cmp.Compare(key, n.key) == 0
}

// Iterator is a bidirectional cursor over a Skiplist.
type Iterator struct {
	list *Skiplist
	n    *node
}

// NewIterator returns an unpositioned iterator.
func (s *Skiplist) NewIterator() *Iterator {
	return &Iterator{list: s}
}

// Valid returns true iff the iterator is positioned at a valid node.
func (it *Iterator) Valid() bool { return it.n != nil }

// Key returns the key at the current position.
func (it *Iterator) Key() []byte {
	y.AssertTrue(it.Valid())
	return it.n.key
}

// Next advances to the next position.
func (it *Iterator) Next() {
	y.AssertTrue(it.Valid())
	it.n = it.n.getNext(0)
}

// Prev moves to the previous position. Instead of using explicit "prev" links, we
// just search for the last node that falls before the current key.
func (it *Iterator) Prev() {
	y.AssertTrue(it.Valid())
	it.n = it.list.findLessThan(it.n.key, nil)
	if it.n == it.list.head {
		it.n = nil
	}
}

// Seek advances to the first entry with a key >= target.
func (it *Iterator) Seek(target []byte) {
	it.n = it.list.findGreaterOrEqual(target)
}

// SeekForPrev retreats to the last entry with a key <= target.
func (it *Iterator) SeekForPrev(target []byte) {
	it.Seek(target)
	if !it.Valid() {
		it.SeekToLast()
	}
	for it.Valid() && it.list.cmp.Compare(target, it.n.key) < 0 {
		it.Prev()
	}
}

// SeekToFirst positions at the first entry. Valid() is false iff the list is empty.
func (it *Iterator) SeekToFirst() {
	it.n = it.list.head.getNext(0)
}

// SeekToLast positions at the last entry. Valid() is false iff the list is empty.
func (it *Iterator) SeekToLast() {
	it.n = it.list.findLast()
	if it.n == it.list.head {
		it.n = nil
	}
}
