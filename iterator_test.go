/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package lsmview

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/dgraph-io/lsmview/internal/base"
	"github.com/dgraph-io/lsmview/y"
)

func TestIteratorEmptySource(t *testing.T) {
	for _, kind := range allSources {
		t.Run(kind.String(), func(t *testing.T) {
			it := newTestIterator(t, newSource(t, kind, "", nil), DefaultIteratorOptions())
			require.False(t, it.Valid())
			it.SeekToFirst()
			require.False(t, it.Valid())
			it.SeekToLast()
			require.False(t, it.Valid())
			it.Seek([]byte("a"))
			require.False(t, it.Valid())
			require.NoError(t, it.Status())
		})
	}
}

func TestStepOnInvalidIterator(t *testing.T) {
	for _, kind := range allSources {
		t.Run(kind.String(), func(t *testing.T) {
			it := newTestIterator(t, newSource(t, kind, "a.SET.1:x b.SET.1:y", nil),
				DefaultIteratorOptions())
			it.Prev()
			require.False(t, it.Valid())
			it.Next()
			require.False(t, it.Valid())

			it.SeekToLast()
			it.Next()
			require.False(t, it.Valid())
			it.Prev()
			require.False(t, it.Valid())

			it.SeekToFirst()
			require.Equal(t, kv{"a", "x"}, current(it))
			require.NoError(t, it.Status())
		})
	}
}

func TestDeletionShadowing(t *testing.T) {
	text := "a.SET.5:v a.DEL.10 b.SET.1:w"
	opts := DefaultIteratorOptions()

	t.Run("deleted", func(t *testing.T) {
		runBoth(t, text, opts.WithSnapshot(10), kvs("b", "w"))
	})
	t.Run("before-delete", func(t *testing.T) {
		runBoth(t, text, opts.WithSnapshot(7), kvs("a", "v", "b", "w"))
	})
	t.Run("before-put", func(t *testing.T) {
		runBoth(t, text, opts.WithSnapshot(4), kvs("b", "w"))
	})
	t.Run("nothing-visible", func(t *testing.T) {
		runBoth(t, text, opts.WithSnapshot(0), nil)
	})
	t.Run("single-delete", func(t *testing.T) {
		runBoth(t, "a.SET.1:x a.SET.2:v a.SINGLEDEL.3 b.SET.3:w", opts, kvs("b", "w"))
	})
	t.Run("put-after-delete", func(t *testing.T) {
		runBoth(t, "a.SET.1:old a.DEL.2 a.SET.3:new", opts, kvs("a", "new"))
	})
	t.Run("across-levels", func(t *testing.T) {
		text := `
a.DEL.9 c.SET.8:c8
---
a.SET.4:a4 b.SET.5:b5
---
b.DEL.2 c.SET.1:c1 d.SET.3:d3
`
		runBoth(t, text, opts, kvs("b", "b5", "c", "c8", "d", "d3"))
		runBoth(t, text, opts.WithSnapshot(4), kvs("a", "a4", "c", "c1", "d", "d3"))
	})
}

func TestSnapshotHidesNewerVersions(t *testing.T) {
	text := "a.SET.9:new a.SET.3:old b.SET.7:b7"
	opts := DefaultIteratorOptions()
	runBoth(t, text, opts.WithSnapshot(5), kvs("a", "old"))
	runBoth(t, text, opts.WithSnapshot(9), kvs("a", "new", "b", "b7"))
	// Snapshots past the largest sequence number see everything.
	runBoth(t, text, opts.WithSnapshot(math.MaxUint64), kvs("a", "new", "b", "b7"))
}

func TestMergeFolding(t *testing.T) {
	opts := DefaultIteratorOptions().WithMergeOperator(appendOperator)
	text := "k.SET.1:base k.MERGE.2:a k.MERGE.3:b"

	runBoth(t, text, opts, kvs("k", "baseab"))
	runBoth(t, text, opts.WithSnapshot(2), kvs("k", "basea"))
	runBoth(t, text, opts.WithSnapshot(1), kvs("k", "base"))

	t.Run("across-levels", func(t *testing.T) {
		runBoth(t, "k.MERGE.3:b j.SET.1:j\n---\nk.MERGE.2:a\n---\nk.SET.1:base l.MERGE.4:l",
			opts, kvs("j", "j", "k", "baseab", "l", "l"))
	})
	t.Run("over-delete", func(t *testing.T) {
		runBoth(t, "k.SET.1:old k.DEL.2 k.MERGE.3:m", opts, kvs("k", "m"))
	})
	t.Run("without-base", func(t *testing.T) {
		runBoth(t, "k.MERGE.1:y k.MERGE.2:x", opts.WithMergeOperator(StringAppendOperator([]byte(","))),
			kvs("k", "y,x"))
	})
	t.Run("delete-over-merge", func(t *testing.T) {
		runBoth(t, "k.MERGE.1:y k.DEL.2 z.MERGE.1:z", opts, kvs("z", "z"))
	})
}

type mergeCall struct {
	key      string
	existing []byte
	operands []string
}

func recordingOperator(calls *[]mergeCall) MergeOperator {
	return NewMergeOperator("recorder", func(key, existing []byte, operands [][]byte) ([]byte, error) {
		c := mergeCall{key: string(key)}
		if existing != nil {
			c.existing = append([]byte{}, existing...)
		}
		for _, op := range operands {
			c.operands = append(c.operands, string(op))
		}
		*calls = append(*calls, c)
		return []byte(strings.Join(c.operands, "+")), nil
	})
}

func TestMergeOperandsOldestFirst(t *testing.T) {
	for _, kind := range allSources {
		t.Run(kind.String(), func(t *testing.T) {
			var calls []mergeCall
			opts := DefaultIteratorOptions().WithMergeOperator(recordingOperator(&calls))
			it := newTestIterator(t, newSource(t, kind, "k.MERGE.1:y k.MERGE.2:x", nil), opts)

			require.Equal(t, kvs("k", "y+x"), scanForward(it))
			require.Equal(t, kvs("k", "y+x"), scanBackward(it))
			require.Len(t, calls, 2)
			for _, c := range calls {
				require.Equal(t, "k", c.key)
				require.Nil(t, c.existing)
				require.Equal(t, []string{"y", "x"}, c.operands)
			}
		})
	}
}

func TestMergeEmptyBase(t *testing.T) {
	for _, kind := range allSources {
		t.Run(kind.String(), func(t *testing.T) {
			var calls []mergeCall
			opts := DefaultIteratorOptions().WithMergeOperator(recordingOperator(&calls))
			it := newTestIterator(t, newSource(t, kind, "k.SET.1: k.MERGE.2:x", nil), opts)

			require.Equal(t, kvs("k", "x"), scanForward(it))
			require.Equal(t, kvs("k", "x"), scanBackward(it))
			require.Len(t, calls, 2)
			for _, c := range calls {
				require.NotNil(t, c.existing)
				require.Empty(t, c.existing)
			}
		})
	}
}

func TestMergeValueBackwardWithReseek(t *testing.T) {
	text := "k.MERGE.5:e k.MERGE.4:d k.MERGE.3:c k.SET.2:b k.MERGE.1:a j.SET.1:j"
	for _, kind := range allSources {
		t.Run(kind.String(), func(t *testing.T) {
			stats := NewStatistics("lsmview_test_backward_merge")
			stats.Reset()
			opts := DefaultIteratorOptions().
				WithMergeOperator(appendOperator).
				WithMaxSequentialSkip(1).
				WithStatistics(stats)
			it := newTestIterator(t, newSource(t, kind, text, nil), opts)

			it.SeekToLast()
			require.True(t, it.Valid())
			require.Equal(t, kv{"k", "bcde"}, current(it))
			require.GreaterOrEqual(t, stats.Get(TickerReseek), int64(1))

			it.Prev()
			require.True(t, it.Valid())
			require.Equal(t, kv{"j", "j"}, current(it))
			it.Next()
			require.True(t, it.Valid())
			require.Equal(t, kv{"k", "bcde"}, current(it))
			it.Next()
			require.False(t, it.Valid())
			require.NoError(t, it.Status())
		})
	}
}

func TestDirectionSwitch(t *testing.T) {
	text := `
a.SET.1:a1 b.MERGE.3:b3 b.MERGE.2:b2 b.SET.1:b1 c.DEL.4 c.SET.2:c2
d.SET.5:d5 d.SET.4:d4 d.SET.3:d3 e.SET.9:e9 e.SET.1:e1
`
	for _, kind := range allSources {
		t.Run(kind.String(), func(t *testing.T) {
			opts := DefaultIteratorOptions().
				WithMergeOperator(appendOperator).
				WithSnapshot(8)
			it := newTestIterator(t, newSource(t, kind, text, nil), opts)

			it.SeekToFirst()
			require.Equal(t, kv{"a", "a1"}, current(it))
			it.Next()
			require.Equal(t, kv{"b", "b1b2b3"}, current(it))
			it.Prev()
			require.Equal(t, kv{"a", "a1"}, current(it))
			it.Next()
			require.Equal(t, kv{"b", "b1b2b3"}, current(it))
			it.Next()
			require.Equal(t, kv{"d", "d5"}, current(it))
			it.Prev()
			require.Equal(t, kv{"b", "b1b2b3"}, current(it))
			it.Next()
			require.Equal(t, kv{"d", "d5"}, current(it))
			it.Next()
			require.Equal(t, kv{"e", "e1"}, current(it))
			it.Prev()
			require.Equal(t, kv{"d", "d5"}, current(it))
			it.Next()
			require.Equal(t, kv{"e", "e1"}, current(it))
			it.Next()
			require.False(t, it.Valid())

			it.SeekToLast()
			require.Equal(t, kv{"e", "e1"}, current(it))
			it.Prev()
			it.Prev()
			require.Equal(t, kv{"b", "b1b2b3"}, current(it))
			it.Next()
			require.Equal(t, kv{"d", "d5"}, current(it))
			require.NoError(t, it.Status())
		})
	}
}

// suffixFirst orders keys by what follows their two byte prefix, then by the prefix,
// so that keys of one prefix are not adjacent.
type suffixFirst struct{}

func (suffixFirst) Compare(a, b []byte) int {
	if len(a) < 2 || len(b) < 2 {
		return bytes.Compare(a, b)
	}
	if c := bytes.Compare(a[2:], b[2:]); c != 0 {
		return c
	}
	return bytes.Compare(a[:2], b[:2])
}

func (suffixFirst) Name() string { return "lsmview.test.SuffixFirst" }

func TestPrefixSameAsStart(t *testing.T) {
	text := "aa1.SET.1:x bb1.SET.1:y aa2.SET.1:z"
	opts := DefaultIteratorOptions().WithComparator(suffixFirst{})

	runBoth(t, text, opts, kvs("aa1", "x", "bb1", "y", "aa2", "z"))

	for _, kind := range allSources {
		t.Run(kind.String(), func(t *testing.T) {
			locked := opts.WithPrefixSameAsStart(y.FixedPrefix(2))
			it := newTestIterator(t, newSource(t, kind, text, suffixFirst{}), locked)

			// aa2 shares the starting prefix but comes after bb1.
			require.Equal(t, kvs("aa1", "x"), scanForward(it))
			require.Equal(t, kvs("aa2", "z"), scanBackward(it))

			it.Seek([]byte("bb1"))
			require.Equal(t, kv{"bb1", "y"}, current(it))
			it.Next()
			require.False(t, it.Valid())

			it.Seek([]byte("cc1"))
			require.False(t, it.Valid())

			it.Seek([]byte("aa2"))
			require.Equal(t, kv{"aa2", "z"}, current(it))
			it.Prev()
			require.False(t, it.Valid())
			require.NoError(t, it.Status())
		})
	}

	t.Run("without-extractor", func(t *testing.T) {
		unlocked := opts
		unlocked.PrefixSameAsStart = true
		runBoth(t, text, unlocked, kvs("aa1", "x", "bb1", "y", "aa2", "z"))
	})
}

func TestPrefixLockSuspendsReseekWhilePositioning(t *testing.T) {
	text := `
a.DEL.6 a.SET.5 a.SET.4 a.SET.3 a.SET.2 a.SET.1 ab.SET.1:x
ac.DEL.9 ac.SET.8 ac.SET.7 ac.SET.6 ac.SET.5 ad.SET.1:y
`
	stats := NewStatistics("lsmview_test_prefix_reseek")
	opts := DefaultIteratorOptions().WithMaxSequentialSkip(1).WithStatistics(stats)

	stats.Reset()
	it := newTestIterator(t, newSource(t, fakeSource, text, nil), opts)
	it.SeekToFirst()
	require.Equal(t, kv{"ab", "x"}, current(it))
	require.Equal(t, int64(1), stats.Get(TickerReseek))

	stats.Reset()
	it = newTestIterator(t, newSource(t, fakeSource, text, nil),
		opts.WithPrefixSameAsStart(y.FixedPrefix(1)))
	it.SeekToFirst()
	require.Equal(t, kv{"ab", "x"}, current(it))
	require.Equal(t, int64(0), stats.Get(TickerReseek))

	it.Next()
	require.Equal(t, kv{"ad", "y"}, current(it))
	require.Equal(t, int64(1), stats.Get(TickerReseek))
}

func TestUpperBound(t *testing.T) {
	text := "a.SET.1:1 b.SET.1:2 c.SET.1:3 c.SET.2:4 d.SET.1:5"
	opts := DefaultIteratorOptions()

	runBoth(t, text, opts.WithUpperBound([]byte("c")), kvs("a", "1", "b", "2"))
	runBoth(t, text, opts.WithUpperBound([]byte("bb")), kvs("a", "1", "b", "2"))
	runBoth(t, text, opts.WithUpperBound([]byte("z")), kvs("a", "1", "b", "2", "c", "4", "d", "5"))
	runBoth(t, text, opts.WithUpperBound([]byte("a")), nil)
	runBoth(t, text, opts.WithUpperBound([]byte("0")), nil)

	for _, kind := range allSources {
		t.Run(kind.String(), func(t *testing.T) {
			it := newTestIterator(t, newSource(t, kind, text, nil), opts.WithUpperBound([]byte("c")))
			it.Seek([]byte("b"))
			require.Equal(t, kv{"b", "2"}, current(it))
			it.Seek([]byte("c"))
			require.False(t, it.Valid())
			require.NoError(t, it.Status())
		})
	}
}

func TestRevalidateAfterUpperBoundChange(t *testing.T) {
	text := "a.SET.1:1 b.SET.1:2 c.SET.1:3 d.SET.1:4"
	for _, kind := range allSources {
		t.Run(kind.String(), func(t *testing.T) {
			bound := []byte("c")
			it := newTestIterator(t, newSource(t, kind, text, nil),
				DefaultIteratorOptions().WithUpperBound(bound))
			// The iterator keeps its own copy of the bound.
			bound[0] = 'z'

			require.Equal(t, kvs("a", "1", "b", "2"), scanForward(it))
			it.SetUpperBound([]byte("d"))
			it.RevalidateAfterUpperBoundChange()
			require.True(t, it.Valid())
			require.Equal(t, kv{"c", "3"}, current(it))
			it.Next()
			require.False(t, it.Valid())

			it.SetUpperBound(nil)
			it.RevalidateAfterUpperBoundChange()
			require.Equal(t, kv{"d", "4"}, current(it))
			it.Next()
			require.False(t, it.Valid())
			require.NoError(t, it.Status())
		})
	}
}

func TestRevalidateKeepsValidPosition(t *testing.T) {
	text := "a.MERGE.2:y a.SET.1:x b.SET.1:z"
	opts := DefaultIteratorOptions().WithMergeOperator(appendOperator)
	for _, kind := range allSources {
		t.Run(kind.String(), func(t *testing.T) {
			it := newTestIterator(t, newSource(t, kind, text, nil), opts)
			it.SeekToFirst()
			require.Equal(t, kv{"a", "xy"}, current(it))
			it.SetUpperBound([]byte("c"))
			it.RevalidateAfterUpperBoundChange()
			require.Equal(t, kv{"a", "xy"}, current(it))
			it.Next()
			require.Equal(t, kv{"b", "z"}, current(it))
			require.NoError(t, it.Status())
		})
	}
}

func TestCorruptKeysAreSkipped(t *testing.T) {
	for _, kind := range allSources {
		t.Run(kind.String(), func(t *testing.T) {
			text := "a.SET.1:va b.INVALID.1:x c.SET.1:vc"
			it := newTestIterator(t, newSource(t, kind, text, nil), DefaultIteratorOptions())
			require.Equal(t, kvs("a", "va", "c", "vc"), scanForward(it))
			require.True(t, errors.Is(it.Status(), ErrCorruption))

			it = newTestIterator(t, newSource(t, kind, text, nil), DefaultIteratorOptions())
			require.Equal(t, kvs("a", "va", "c", "vc"), scanBackward(it))
			require.True(t, errors.Is(it.Status(), ErrCorruption))
		})
	}
}

func TestCorruptKeyInsideMergeChain(t *testing.T) {
	text := "k.MERGE.3:x k.INVALID.2:junk k.SET.1:base"
	opts := DefaultIteratorOptions().WithMergeOperator(appendOperator)
	for _, kind := range allSources {
		t.Run(kind.String(), func(t *testing.T) {
			it := newTestIterator(t, newSource(t, kind, text, nil), opts)
			require.Equal(t, kvs("k", "basex"), scanForward(it))
			require.Equal(t, kvs("k", "basex"), scanBackward(it))
			require.True(t, errors.Is(it.Status(), ErrCorruption))
		})
	}
}

func TestSourceErrorTakesPrecedence(t *testing.T) {
	boom := errors.New("boom")
	src := base.NewFakeIter(flatten(t, "a.SET.1:va b.INVALID.1 c.SET.1:vc d.SET.1:vd", nil), nil)
	src.SetErrorAt(2, boom)
	it := newTestIterator(t, src, DefaultIteratorOptions())

	it.SeekToFirst()
	require.Equal(t, kv{"a", "va"}, current(it))
	require.NoError(t, it.Status())

	it.Next()
	require.False(t, it.Valid())
	require.Equal(t, boom, it.Status())

	// Repositioning clears the source's error but not the corrupt key.
	it.SeekToFirst()
	require.True(t, it.Valid())
	require.True(t, errors.Is(it.Status(), ErrCorruption))
}

func TestMergeOperatorMissing(t *testing.T) {
	text := "a.SET.1:x b.MERGE.1:m c.SET.1:y"
	for _, kind := range allSources {
		t.Run(kind.String(), func(t *testing.T) {
			it := newTestIterator(t, newSource(t, kind, text, nil), DefaultIteratorOptions())
			it.SeekToFirst()
			require.Equal(t, kv{"a", "x"}, current(it))
			it.Next()
			require.False(t, it.Valid())
			require.True(t, errors.Is(it.Status(), ErrMergeOperatorMissing))

			// Nothing brings it back.
			it.SeekToFirst()
			require.False(t, it.Valid())
			it.Seek([]byte("c"))
			require.False(t, it.Valid())
			it.SeekToLast()
			require.False(t, it.Valid())
			require.True(t, errors.Is(it.Status(), ErrMergeOperatorMissing))

			it = newTestIterator(t, newSource(t, kind, text, nil), DefaultIteratorOptions())
			it.SeekToLast()
			require.Equal(t, kv{"c", "y"}, current(it))
			it.Prev()
			require.False(t, it.Valid())
			require.True(t, errors.Is(it.Status(), ErrMergeOperatorMissing))
		})
	}
}

func TestFatalErrorReplacesCorruption(t *testing.T) {
	for _, kind := range allSources {
		t.Run(kind.String(), func(t *testing.T) {
			it := newTestIterator(t, newSource(t, kind, "a.INVALID.1 b.MERGE.1:m", nil),
				DefaultIteratorOptions())
			it.SeekToFirst()
			require.False(t, it.Valid())
			require.True(t, errors.Is(it.Status(), ErrMergeOperatorMissing))
			require.False(t, errors.Is(it.Status(), ErrCorruption))
		})
	}
}

func TestMergeOperatorFailed(t *testing.T) {
	opts := DefaultIteratorOptions().WithMergeOperator(Uint64AddOperator)
	for _, kind := range allSources {
		t.Run(kind.String(), func(t *testing.T) {
			it := newTestIterator(t, newSource(t, kind, "a.SET.1:abc a.MERGE.2:xyz", nil), opts)
			it.SeekToFirst()
			require.False(t, it.Valid())
			require.True(t, errors.Is(it.Status(), ErrMergeOperatorFailed))
			it.Seek([]byte("a"))
			require.False(t, it.Valid())

			it = newTestIterator(t, newSource(t, kind, "a.SET.1:abc a.MERGE.2:xyz", nil), opts)
			it.SeekToLast()
			require.False(t, it.Valid())
			require.True(t, errors.Is(it.Status(), ErrMergeOperatorFailed))
		})
	}
}

func TestNewIteratorInvalidArgument(t *testing.T) {
	_, err := NewIterator(nil, DefaultIteratorOptions())
	require.True(t, errors.Is(err, ErrInvalidArgument))

	src := newSource(t, fakeSource, "a.SET.1:x", nil)
	_, err = NewIterator(src, DefaultIteratorOptions().WithMaxRetainedValueSize(-1))
	require.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestOpenIteratorsGauge(t *testing.T) {
	before := y.NumIteratorsOpen()
	it, err := NewIterator(newSource(t, fakeSource, "a.SET.1:x", nil), DefaultIteratorOptions())
	require.NoError(t, err)
	require.Equal(t, before+1, y.NumIteratorsOpen())
	require.NoError(t, it.Close())
	require.Equal(t, before, y.NumIteratorsOpen())
	// Closing twice is harmless.
	require.NoError(t, it.Close())
	require.Equal(t, before, y.NumIteratorsOpen())
}

func TestPinnedKeys(t *testing.T) {
	text := "a.SET.1:1 b.MERGE.2:2 b.SET.1:0 c.SET.1:3"
	opts := DefaultIteratorOptions().WithMergeOperator(appendOperator)

	t.Run("pinned", func(t *testing.T) {
		src := base.NewFakeIter(flatten(t, text, nil), nil)
		it := newTestIterator(t, src, opts.WithPinData(true))

		var keys [][]byte
		for it.SeekToFirst(); it.Valid(); it.Next() {
			pinned, err := it.GetProperty(PropertyIsKeyPinned)
			require.NoError(t, err)
			require.Equal(t, "1", pinned)
			keys = append(keys, it.Key())
		}
		// Borrowed keys outlive the calls that produced them.
		require.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, keys)

		it.SeekToLast()
		pinned, err := it.GetProperty(PropertyIsKeyPinned)
		require.NoError(t, err)
		require.Equal(t, "1", pinned)

		require.NoError(t, it.ReleasePinnedData())
		pinned, err = it.GetProperty(PropertyIsKeyPinned)
		require.NoError(t, err)
		require.Equal(t, "0", pinned)
		require.Equal(t, []byte("c"), it.Key())
	})

	t.Run("unpinned", func(t *testing.T) {
		it := newTestIterator(t, newSource(t, fakeSource, text, nil), opts)
		it.SeekToFirst()
		pinned, err := it.GetProperty(PropertyIsKeyPinned)
		require.NoError(t, err)
		require.Equal(t, "0", pinned)

		require.NoError(t, it.PinData())
		it.Next()
		pinned, err = it.GetProperty(PropertyIsKeyPinned)
		require.NoError(t, err)
		require.Equal(t, "1", pinned)

		it.Next()
		it.Next()
		require.False(t, it.Valid())
		pinned, err = it.GetProperty(PropertyIsKeyPinned)
		require.NoError(t, err)
		require.Equal(t, "Iterator is not valid.", pinned)
	})

	t.Run("lsm", func(t *testing.T) {
		it := newTestIterator(t, newSource(t, lsmSource, text, nil), opts.WithPinData(true))
		var keys [][]byte
		for it.SeekToFirst(); it.Valid(); it.Next() {
			keys = append(keys, it.Key())
		}
		require.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, keys)
		require.NoError(t, it.Status())
	})
}

func TestGetProperty(t *testing.T) {
	src := base.NewFakeIter(flatten(t, "a.SET.1:x", nil), nil)
	it := newTestIterator(t, src, DefaultIteratorOptions().WithVersionNumber(7))

	v, err := it.GetProperty(PropertySuperVersionNumber)
	require.NoError(t, err)
	require.Equal(t, "7", v)

	src.SetProperty(PropertySuperVersionNumber, "42")
	v, err = it.GetProperty(PropertySuperVersionNumber)
	require.NoError(t, err)
	require.Equal(t, "42", v)

	_, err = it.GetProperty("lsmview.iterator.no-such-thing")
	require.True(t, errors.Is(err, ErrUnknownProperty))
}

func TestValueBufferShrinks(t *testing.T) {
	long := strings.Repeat("v", 100)
	text := fmt.Sprintf("a.SET.1:x big.SET.1:y big.MERGE.2:%s", long)
	opts := DefaultIteratorOptions().
		WithMergeOperator(appendOperator).
		WithMaxRetainedValueSize(64)
	it := newTestIterator(t, newSource(t, fakeSource, text, nil), opts)

	it.Seek([]byte("big"))
	require.True(t, it.Valid())
	require.Equal(t, "y"+long, string(it.Value()))
	require.GreaterOrEqual(t, it.value.Cap(), 101)

	it.SeekToFirst()
	require.Equal(t, kv{"a", "x"}, current(it))
	require.Equal(t, 0, it.value.Cap())
}

func TestStatistics(t *testing.T) {
	stats := NewStatistics("lsmview_test_statistics")
	stats.Reset()
	opts := DefaultIteratorOptions().WithStatistics(stats)
	it := newTestIterator(t, newSource(t, fakeSource, "a.SET.1:x b.SET.1:y", nil), opts)

	it.SeekToFirst()
	it.Next()
	it.Next()
	require.False(t, it.Valid())

	require.Equal(t, int64(1), stats.Get(TickerSeek))
	require.Equal(t, int64(1), stats.Get(TickerSeekFound))
	require.Equal(t, int64(2), stats.Get(TickerNext))
	require.Equal(t, int64(1), stats.Get(TickerNextFound))
	require.Equal(t, int64(4), stats.Get(TickerBytesRead))
	require.Equal(t, int64(0), stats.Get(TickerReseek))
	require.Contains(t, stats.String(), "nexts_total=2")

	// The same prefix shares the same counters.
	require.Equal(t, int64(2), NewStatistics("lsmview_test_statistics").Get(TickerNext))

	var none *Statistics
	none.record(TickerSeek, 1)
	require.Equal(t, int64(0), none.Get(TickerSeek))
}

func TestForwardReseek(t *testing.T) {
	var sb strings.Builder
	for seq := 20; seq >= 1; seq-- {
		fmt.Fprintf(&sb, "a.SET.%d:v%d ", seq, seq)
	}
	sb.WriteString("b.SET.1:y")
	text := sb.String()

	tests := []struct {
		name    string
		maxSkip uint64
		reseeks int64
		skipped int64
	}{
		{"bounded", 8, 1, 9},
		{"linear", math.MaxUint64, 0, 19},
	}
	for _, tc := range tests {
		for _, kind := range allSources {
			t.Run(tc.name+"/"+kind.String(), func(t *testing.T) {
				stats := NewStatistics("lsmview_test_forward_reseek")
				stats.Reset()
				opts := DefaultIteratorOptions().
					WithMaxSequentialSkip(tc.maxSkip).
					WithStatistics(stats)
				it := newTestIterator(t, newSource(t, kind, text, nil), opts)

				it.SeekToFirst()
				require.Equal(t, kv{"a", "v20"}, current(it))
				it.Next()
				require.Equal(t, kv{"b", "y"}, current(it))
				require.Equal(t, tc.reseeks, stats.Get(TickerReseek))
				require.Equal(t, tc.skipped, stats.Get(TickerInternalKeySkipped))
			})
		}
	}
}

func TestReseekTerminatesWithZeroSkip(t *testing.T) {
	// The reseek target of a sits exactly on a.DEL.0.
	text := "a.SET.2:x a.DEL.0 b.SET.1:y"
	opts := DefaultIteratorOptions().WithMaxSequentialSkip(0)
	runBoth(t, text, opts, kvs("a", "x", "b", "y"))
	runBoth(t, "a.DEL.3 a.SET.2:x a.DEL.0 b.SET.1:y", opts, kvs("b", "y"))
}
