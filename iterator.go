/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

// Package lsmview resolves a stream of multi-versioned physical entries into the
// logical key-value view seen at a snapshot.
//
// A source (see y.InternalIterator) yields every version of every key, newest first
// within a key. An Iterator on top of it yields each live user key once: tombstones
// hide older versions, merge entries are folded into a value, and entries newer than
// the snapshot are skipped. Both directions are supported and can be mixed freely.
package lsmview

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/trace"

	"github.com/dgraph-io/lsmview/y"
)

type direction int

const (
	// The source is positioned on the entry that yields Key and Value, or just past
	// the entries of a merged key.
	forward direction = iota
	// The source is positioned just before every entry of Key.
	reverse
)

// Iterator is the logical view over a source at one snapshot. It is not safe for
// concurrent use. Key and Value are valid until the next call that moves the
// iterator, unless the iterator is pinned (see PinData).
type Iterator struct {
	src    y.InternalIterator
	pinner y.Pinner
	props  y.PropertyGetter

	opts     IteratorOptions
	ucmp     y.Comparator
	snapshot uint64
	log      y.Logger
	elog     trace.EventLog
	stats    *Statistics

	dir    direction
	valid  bool
	merged bool // The current value came out of a merge in the forward direction.

	key     iterKey
	seekKey iterKey
	value   *y.Buffer
	chain   versionChain

	reseek      reseekPolicy
	upperBound  []byte
	prefixStart []byte

	err    error
	fatal  bool
	pinned bool
	closed bool
}

// NewIterator returns an unpositioned iterator over src. The iterator owns src and
// closes it on Close.
func NewIterator(src y.InternalIterator, opts IteratorOptions) (*Iterator, error) {
	if src == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "nil source")
	}
	if err := opts.sanitize(); err != nil {
		return nil, err
	}
	it := &Iterator{
		src:      src,
		opts:     opts,
		ucmp:     opts.Comparator,
		snapshot: opts.Snapshot,
		log:      opts.Logger,
		elog:     opts.EventLog,
		stats:    opts.Statistics,
		value:    y.NewShrinkingBuffer(0, opts.MaxRetainedValueSize),
		reseek:   newReseekPolicy(opts.MaxSequentialSkip),
	}
	it.pinner, _ = src.(y.Pinner)
	it.props, _ = src.(y.PropertyGetter)
	it.chain.value = it.value
	if opts.UpperBound != nil {
		it.upperBound = y.Copy(opts.UpperBound)
	}
	y.NumIteratorsOpenAdd(opts.MetricsEnabled, 1)
	if opts.PinData {
		if err := it.PinData(); err != nil {
			_ = it.Close()
			return nil, errors.Wrap(err, "while pinning source")
		}
	}
	return it, nil
}

// Valid returns false once the iterator ran off either end, hit a bound, or failed.
func (it *Iterator) Valid() bool { return it.valid }

// Key returns the current user key. Only valid if Valid returns true.
func (it *Iterator) Key() []byte { return it.key.get() }

// Value returns the value of the current key. Only valid if Valid returns true.
func (it *Iterator) Value() []byte {
	if it.dir == forward && !it.merged {
		return it.src.Value()
	}
	return it.value.Bytes()
}

// Status returns the source's error if it has one, and otherwise the error the
// iterator itself ran into. Reaching the end of the data is not an error.
func (it *Iterator) Status() error {
	if err := it.src.Status(); err != nil {
		return err
	}
	return it.err
}

// Seek moves to the first live key >= target.
func (it *Iterator) Seek(target []byte) {
	if it.fatal {
		return
	}
	it.seekKey.setInternalKey(target, it.snapshot, y.ValueTypeForSeek)
	it.src.Seek(it.seekKey.get())
	it.stats.record(TickerSeek, 1)
	if it.src.Valid() {
		it.dir = forward
		it.value.Reset()
		it.findNextUserEntry(false)
		it.recordFound(TickerSeekFound)
	} else {
		it.valid = false
	}
	if it.valid && it.prefixLocked() {
		it.lockPrefix(target)
		it.checkPrefix()
	}
}

// SeekToFirst moves to the smallest live key.
func (it *Iterator) SeekToFirst() {
	if it.fatal {
		return
	}
	defer it.suspendReseek()()
	it.dir = forward
	it.value.Reset()
	it.src.SeekToFirst()
	it.stats.record(TickerSeek, 1)
	if it.src.Valid() {
		it.findNextUserEntry(false)
		it.recordFound(TickerSeekFound)
	} else {
		it.valid = false
	}
	if it.valid && it.prefixLocked() {
		it.lockPrefix(it.key.get())
	}
}

// SeekToLast moves to the largest live key below the upper bound.
func (it *Iterator) SeekToLast() {
	if it.fatal {
		return
	}
	defer it.suspendReseek()()
	it.dir = reverse
	it.value.Reset()
	it.src.SeekToLast()
	if it.src.Valid() && it.upperBound != nil {
		it.seekKey.setInternalKey(it.upperBound, y.MaxSequenceNumber, y.ValueTypeForSeek)
		it.src.Seek(it.seekKey.get())
		if !it.src.Valid() {
			if it.src.Status() == nil {
				it.src.SeekToLast()
			}
		} else {
			it.src.Prev()
			if !it.src.Valid() {
				it.valid = false
				return
			}
		}
	}
	it.prevInternal()
	it.stats.record(TickerSeek, 1)
	it.recordFound(TickerSeekFound)
	if it.valid && it.prefixLocked() {
		it.lockPrefix(it.key.get())
	}
}

// Next moves to the next live key. It does nothing on an invalid iterator.
func (it *Iterator) Next() {
	if !it.valid || it.fatal {
		return
	}
	if it.dir == reverse {
		it.findNextUserKey()
		it.dir = forward
		if !it.src.Valid() && it.src.Status() == nil {
			it.src.SeekToFirst()
		}
	} else if it.src.Valid() && !it.merged {
		// The source is on the entry that was returned, so step off it. After a
		// merge it is already past the key.
		it.src.Next()
	}

	it.stats.record(TickerNext, 1)
	if !it.src.Valid() {
		it.valid = false
		return
	}
	it.findNextUserEntry(true)
	it.recordFound(TickerNextFound)
	it.checkPrefix()
}

// Prev moves to the previous live key. It does nothing on an invalid iterator.
func (it *Iterator) Prev() {
	if !it.valid || it.fatal {
		return
	}
	if it.dir == forward {
		it.reverseToBackward()
	}
	it.prevInternal()
	it.stats.record(TickerPrev, 1)
	it.recordFound(TickerPrevFound)
	it.checkPrefix()
}

// SetUpperBound replaces the exclusive upper bound. Nil removes it. The current
// position is not rechecked; see RevalidateAfterUpperBoundChange.
func (it *Iterator) SetUpperBound(bound []byte) {
	if bound == nil {
		it.upperBound = nil
		return
	}
	it.upperBound = append(it.upperBound[:0], bound...)
}

// RevalidateAfterUpperBoundChange resumes a forward scan that stopped at the old
// upper bound, resolving again from the source's current position. It does nothing
// on a valid iterator or in the reverse direction.
func (it *Iterator) RevalidateAfterUpperBoundChange() {
	if it.fatal || it.valid {
		return
	}
	if it.src.Valid() && it.dir == forward {
		it.valid = true
		it.findNextUserEntry(false)
	}
}

// Close releases the source and the value buffer. The iterator must not be used
// afterwards.
func (it *Iterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.valid = false
	y.NumIteratorsOpenAdd(it.opts.MetricsEnabled, -1)

	var err error
	if it.pinned {
		err = it.ReleasePinnedData()
	}
	it.value.Release()
	err = y.CombineErrors(err, it.src.Close())
	return errors.Wrap(err, "while closing iterator")
}

// saveKey makes userKey the current key, borrowing it when both the iterator and the
// source have pinning on.
func (it *Iterator) saveKey(userKey []byte) {
	borrow := it.pinned && it.pinner != nil && it.pinner.IsKeyPinned()
	it.key.set(userKey, borrow)
}

// materialize resolves the version chain into it.value, running the merge operator if
// needed. It returns false if the key has no value or the merge failed.
func (it *Iterator) materialize() bool {
	found, needsMerge := it.chain.resolve()
	if !needsMerge {
		return found
	}
	op := it.opts.MergeOperator
	if op == nil {
		it.missingMergeOperator()
		return false
	}
	var start time.Time
	if it.stats != nil {
		start = time.Now()
	}
	err := it.chain.fold(op, it.key.get())
	if it.stats != nil {
		it.stats.record(TickerMergeOperation, 1)
		it.stats.record(TickerMergeNanos, time.Since(start).Nanoseconds())
	}
	if err != nil {
		it.setError(mergeFailedError(op, it.key.get(), err))
		return false
	}
	return true
}

func (it *Iterator) missingMergeOperator() {
	it.setError(errors.Wrapf(ErrMergeOperatorMissing, "key %s", y.Hex(it.key.get())))
}

// setError logs err and records it for Status. A fatal error replaces any earlier one
// and leaves the iterator invalid for good; otherwise the first error is kept.
func (it *Iterator) setError(err error) {
	it.log.Errorf("%v", err)
	it.elog.Errorf("%v", err)
	if isFatal(err) {
		it.err = err
		it.fatal = true
		it.valid = false
		return
	}
	if it.err == nil {
		it.err = err
	}
}

func (it *Iterator) recordFound(t Ticker) {
	if it.stats == nil || !it.valid {
		return
	}
	it.stats.record(t, 1)
	it.stats.record(TickerBytesRead, int64(len(it.Key())+len(it.Value())))
}
