/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package lsmview

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dgraph-io/lsmview/internal/base"
	"github.com/dgraph-io/lsmview/options"
	"github.com/dgraph-io/lsmview/y"
)

type kv struct {
	key, value string
}

func (p kv) String() string { return p.key + "=" + p.value }

// sourceKind picks how fixture entries are served to an Iterator.
type sourceKind int

const (
	fakeSource sourceKind = iota
	lsmSource
)

func (k sourceKind) String() string {
	if k == fakeSource {
		return "fake"
	}
	return "lsm"
}

var allSources = []sourceKind{fakeSource, lsmSource}

// flatten returns every entry of every level, sorted in internal key order.
func flatten(t testing.TB, text string, cmp y.Comparator) []base.Entry {
	levels, err := base.ParseEntries(strings.ReplaceAll(text, base.LevelSeparator, ""), cmp)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	return levels[0]
}

// newSource serves the entries in text either from a FakeIter over all of them or from
// a memtable plus one table per level.
func newSource(t testing.TB, kind sourceKind, text string, cmp y.Comparator) y.InternalIterator {
	if cmp == nil {
		cmp = y.BytewiseComparator
	}
	if kind == fakeSource {
		return base.NewFakeIter(flatten(t, text, cmp), cmp)
	}
	levels, err := base.ParseEntries(text, cmp)
	require.NoError(t, err)
	topts := options.DefaultTableOptions().WithBlockSize(64)
	l, err := base.BuildLevels(levels, cmp, topts)
	require.NoError(t, err)
	return l.NewIterator(cmp)
}

func newTestIterator(t testing.TB, src y.InternalIterator, opts IteratorOptions) *Iterator {
	opts.MetricsEnabled = false
	it, err := NewIterator(src, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = it.Close() })
	return it
}

func current(it *Iterator) kv {
	return kv{key: string(it.Key()), value: string(it.Value())}
}

func scanForward(it *Iterator) []kv {
	var out []kv
	for it.SeekToFirst(); it.Valid(); it.Next() {
		out = append(out, current(it))
	}
	return out
}

// scanBackward returns the keys seen by a backward scan, in ascending order.
func scanBackward(it *Iterator) []kv {
	var out []kv
	for it.SeekToLast(); it.Valid(); it.Prev() {
		out = append(out, current(it))
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func kvs(pairs ...string) []kv {
	if len(pairs)%2 != 0 {
		panic(fmt.Sprintf("odd number of strings: %q", pairs))
	}
	var out []kv
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, kv{key: pairs[i], value: pairs[i+1]})
	}
	return out
}

// runBoth checks that both scan directions over every source kind see want.
func runBoth(t *testing.T, text string, opts IteratorOptions, want []kv) {
	t.Helper()
	for _, kind := range allSources {
		t.Run(kind.String(), func(t *testing.T) {
			it := newTestIterator(t, newSource(t, kind, text, opts.Comparator), opts)
			require.Equal(t, want, scanForward(it), "forward")
			require.NoError(t, it.Status())
			require.Equal(t, want, scanBackward(it), "backward")
			require.NoError(t, it.Status())
		})
	}
}

var appendOperator = StringAppendOperator(nil)
