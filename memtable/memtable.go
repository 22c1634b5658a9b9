/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

// Package memtable holds recent writes as physical entries in a skiplist. Every write
// is a new version; nothing is overwritten in place.
package memtable

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/dgraph-io/lsmview/skiplist"
	"github.com/dgraph-io/lsmview/y"
)

// PropertyNumEntries is answered by memtable iterators.
const PropertyNumEntries = "lsmview.memtable.num-entries"

// ErrDuplicateEntry is returned when the exact same internal key is added twice.
var ErrDuplicateEntry = errors.New("memtable: duplicate internal key")

// entryComparator orders skiplist entries, which are a length prefixed internal key
// followed by a length prefixed value, by their internal key alone.
type entryComparator struct {
	ikey y.InternalKeyComparator
}

func (c entryComparator) Compare(a, b []byte) int {
	k1, _ := y.GetLengthPrefixedSlice(a)
	k2, _ := y.GetLengthPrefixedSlice(b)
	return c.ikey.Compare(k1, k2)
}

func (c entryComparator) Name() string { return "lsmview.memtable.EntryComparator" }

// Memtable is an in-memory, multi-versioned set of physical entries.
type Memtable struct {
	table *skiplist.Skiplist
	cmp   y.InternalKeyComparator
	size  int64
}

// NewMemtable creates a new memtable ordered by the user key comparator cmp. A nil
// cmp means bytewise order.
func NewMemtable(cmp y.Comparator) *Memtable {
	icmp := y.NewInternalKeyComparator(cmp)
	return &Memtable{
		cmp:   icmp,
		table: skiplist.NewSkiplist(entryComparator{ikey: icmp}),
	}
}

// Add records a new version of key.
func (s *Memtable) Add(seq uint64, typ y.ValueType, key, value []byte) error {
	return s.AddInternal(y.KeyWithSeq(key, seq, typ), value)
}

// AddInternal records an entry under a raw internal key. The key is not validated,
// which lets callers store entries a reader will find malformed.
func (s *Memtable) AddInternal(ikey, value []byte) error {
	out := make([]byte, 0, len(ikey)+len(value)+2*binaryMaxVarint)
	out = y.AppendLengthPrefixedSlice(out, ikey)
	out = y.AppendLengthPrefixedSlice(out, value)
	if !s.table.InsertConcurrently(out) {
		return errors.Wrapf(ErrDuplicateEntry, "key %x", ikey)
	}
	s.size += int64(len(out))
	return nil
}

const binaryMaxVarint = 10

// Len returns the number of physical entries.
func (s *Memtable) Len() int { return s.table.Len() }

// Size returns the encoded size of all entries in bytes.
func (s *Memtable) Size() int64 { return s.size }

// Get returns the newest entry for key with a sequence number <= seq. The bool is
// false if there is no such entry. Merge entries are returned as they are; folding
// them is the job of a resolving iterator.
func (s *Memtable) Get(key []byte, seq uint64) (y.ParsedInternalKey, []byte, bool) {
	it := s.NewIterator()
	defer it.Close()
	it.Seek(y.KeyWithSeq(key, seq, y.ValueTypeForSeek))
	if !it.Valid() {
		return y.ParsedInternalKey{}, nil, false
	}
	pk, ok := y.ParseInternalKey(it.Key())
	if !ok || s.cmp.User.Compare(pk.UserKey, key) != 0 {
		return y.ParsedInternalKey{}, nil, false
	}
	return pk, it.Value(), true
}

// Iterator walks the physical entries of a Memtable. It implements
// y.InternalIterator, y.Pinner and y.PropertyGetter.
type Iterator struct {
	mt     *Memtable
	iter   *skiplist.Iterator
	pinned bool
	key    []byte
	val    []byte
	seek   []byte
}

var _ y.InternalIterator = (*Iterator)(nil)
var _ y.Pinner = (*Iterator)(nil)

// NewIterator returns an unpositioned iterator.
func (s *Memtable) NewIterator() *Iterator {
	return &Iterator{
		mt:   s,
		iter: s.table.NewIterator(),
	}
}

func (it *Iterator) decode() {
	if !it.iter.Valid() {
		it.key, it.val = nil, nil
		return
	}
	var rest []byte
	it.key, rest = y.GetLengthPrefixedSlice(it.iter.Key())
	it.val, _ = y.GetLengthPrefixedSlice(rest)
}

func (it *Iterator) Valid() bool { return it.iter.Valid() }

// Seek positions at the first entry whose internal key is >= ikey.
func (it *Iterator) Seek(ikey []byte) {
	it.seek = y.AppendLengthPrefixedSlice(it.seek[:0], ikey)
	it.iter.Seek(it.seek)
	it.decode()
}

func (it *Iterator) SeekToFirst() {
	it.iter.SeekToFirst()
	it.decode()
}

func (it *Iterator) SeekToLast() {
	it.iter.SeekToLast()
	it.decode()
}

func (it *Iterator) Next() {
	it.iter.Next()
	it.decode()
}

func (it *Iterator) Prev() {
	it.iter.Prev()
	it.decode()
}

// Key returns the internal key, which is user key + seqNum + valueType.
func (it *Iterator) Key() []byte { return it.key }

func (it *Iterator) Value() []byte { return it.val }

// Status is always nil: memtable reads cannot fail.
func (it *Iterator) Status() error { return nil }

func (it *Iterator) Close() error { return nil }

// PinData implements y.Pinner. Skiplist nodes never move, so there is nothing to
// retain beyond remembering that the caller asked.
func (it *Iterator) PinData() error {
	it.pinned = true
	return nil
}

func (it *Iterator) ReleasePinnedData() error {
	it.pinned = false
	return nil
}

func (it *Iterator) IsKeyPinned() bool { return it.pinned && it.Valid() }

// GetProperty implements y.PropertyGetter.
func (it *Iterator) GetProperty(name string) (string, error) {
	if name == PropertyNumEntries {
		return strconv.Itoa(it.mt.Len()), nil
	}
	return "", errors.Errorf("memtable: unknown property %q", name)
}
