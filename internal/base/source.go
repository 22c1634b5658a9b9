// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"github.com/pkg/errors"

	"github.com/dgraph-io/lsmview/memtable"
	"github.com/dgraph-io/lsmview/options"
	"github.com/dgraph-io/lsmview/table"
	"github.com/dgraph-io/lsmview/y"
)

// Levels is parsed input ready to be turned into sources: the first level becomes a
// memtable and every later level a table.
type Levels struct {
	Mem    *memtable.Memtable
	Tables []*table.Table
}

// BuildLevels loads levels as produced by ParseEntries. Tables are built with topts,
// whose Comparator is replaced by cmp.
func BuildLevels(levels [][]Entry, cmp y.Comparator, topts options.TableOptions) (*Levels, error) {
	topts.Comparator = cmp
	out := &Levels{Mem: memtable.NewMemtable(cmp)}
	for i, level := range levels {
		if i == 0 {
			for _, e := range level {
				if err := out.Mem.AddInternal(e.Key.Encode(), e.Value); err != nil {
					return nil, errors.Wrapf(err, "memtable entry %s", e)
				}
			}
			continue
		}
		b := table.NewTableBuilder(topts)
		for _, e := range level {
			if err := b.Add(e.Key.Encode(), e.Value); err != nil {
				return nil, errors.Wrapf(err, "level %d entry %s", i, e)
			}
		}
		t, err := b.Finish()
		if err != nil {
			return nil, errors.Wrapf(err, "level %d", i)
		}
		out.Tables = append(out.Tables, t)
	}
	return out, nil
}

// NewIterator merges the memtable and every table into one source.
func (l *Levels) NewIterator(cmp y.Comparator) *table.MergeIterator {
	iters := []y.InternalIterator{l.Mem.NewIterator()}
	for _, t := range l.Tables {
		iters = append(iters, t.NewIterator())
	}
	return table.NewMergeIterator(cmp, iters...)
}

// NumEntries returns the number of physical entries over all levels.
func (l *Levels) NumEntries() int {
	n := l.Mem.Len()
	for _, t := range l.Tables {
		n += t.NumEntries()
	}
	return n
}
