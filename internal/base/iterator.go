// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/dgraph-io/lsmview/y"
)

// FakeIter is a y.InternalIterator over a fixed list of entries. It can be told
// to fail when it lands on a given entry, and it counts the positioning calls it
// receives.
//
// Like every source, FakeIter accumulates errors, exposing them through Status.
// All of the absolute positioning methods reset any accumulated error before
// positioning. Relative positioning methods do nothing once an error is set.
type FakeIter struct {
	cmp    y.InternalKeyComparator
	keys   [][]byte
	vals   [][]byte
	index  int
	err    error
	errAt  map[int]error
	pinned bool
	props  map[string]string

	// Seeks counts Seek, SeekToFirst and SeekToLast calls.
	Seeks int
	Nexts int
	Prevs int
}

var _ y.InternalIterator = (*FakeIter)(nil)
var _ y.Pinner = (*FakeIter)(nil)
var _ y.PropertyGetter = (*FakeIter)(nil)

// NewFakeIter returns an iterator over entries, which must already be sorted
// under cmp. A nil cmp means bytewise order.
func NewFakeIter(entries []Entry, cmp y.Comparator) *FakeIter {
	f := &FakeIter{
		cmp:   y.NewInternalKeyComparator(cmp),
		index: -1,
		errAt: make(map[int]error),
		props: make(map[string]string),
	}
	for _, e := range entries {
		f.keys = append(f.keys, e.Key.Encode())
		f.vals = append(f.vals, e.Value)
	}
	return f
}

// SetErrorAt makes the iterator fail with err whenever it is positioned on entry i.
func (f *FakeIter) SetErrorAt(i int, err error) {
	f.errAt[i] = err
}

// SetProperty makes GetProperty answer name with value.
func (f *FakeIter) SetProperty(name, value string) {
	f.props[name] = value
}

func (f *FakeIter) land(i int) {
	f.index = i
	if err, ok := f.errAt[i]; ok {
		f.err = err
	}
}

func (f *FakeIter) Valid() bool {
	return f.err == nil && f.index >= 0 && f.index < len(f.keys)
}

func (f *FakeIter) Seek(ikey []byte) {
	f.Seeks++
	f.err = nil
	f.land(sort.Search(len(f.keys), func(i int) bool {
		return f.cmp.Compare(f.keys[i], ikey) >= 0
	}))
}

func (f *FakeIter) SeekToFirst() {
	f.Seeks++
	f.err = nil
	f.land(0)
}

func (f *FakeIter) SeekToLast() {
	f.Seeks++
	f.err = nil
	f.land(len(f.keys) - 1)
}

func (f *FakeIter) Next() {
	f.Nexts++
	if f.err != nil || f.index >= len(f.keys) {
		return
	}
	f.land(f.index + 1)
}

func (f *FakeIter) Prev() {
	f.Prevs++
	if f.err != nil || f.index < 0 {
		return
	}
	f.land(f.index - 1)
}

func (f *FakeIter) Key() []byte { return f.keys[f.index] }

func (f *FakeIter) Value() []byte { return f.vals[f.index] }

func (f *FakeIter) Status() error { return f.err }

func (f *FakeIter) Close() error { return nil }

func (f *FakeIter) PinData() error {
	f.pinned = true
	return nil
}

func (f *FakeIter) ReleasePinnedData() error {
	f.pinned = false
	return nil
}

// IsKeyPinned is true whenever pinning is on, since the keys never move.
func (f *FakeIter) IsKeyPinned() bool { return f.pinned && f.Valid() }

func (f *FakeIter) GetProperty(name string) (string, error) {
	if v, ok := f.props[name]; ok {
		return v, nil
	}
	return "", errors.Errorf("fake iterator: unknown property %q", name)
}
