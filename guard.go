/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package lsmview

import (
	"bytes"

	"github.com/dgraph-io/lsmview/y"
)

// parseKey parses the internal key under the source. A key that does not parse is
// logged and counted, and the first such key is kept as the iterator's error.
// Callers skip the entry and keep going.
func (it *Iterator) parseKey() (y.ParsedInternalKey, bool) {
	ikey := it.src.Key()
	pk, ok := y.ParseInternalKey(ikey)
	if !ok {
		it.stats.record(TickerCorruptKey, 1)
		y.NumCorruptKeysAdd(it.opts.MetricsEnabled, 1)
		it.setError(corruptionError(ikey))
	}
	return pk, ok
}

// findParseableKey steps the source in direction d until it is invalid or sits on an
// entry that parses.
func (it *Iterator) findParseableKey(d direction) (y.ParsedInternalKey, bool) {
	for it.src.Valid() {
		if pk, ok := it.parseKey(); ok {
			return pk, true
		}
		if d == reverse {
			it.src.Prev()
		} else {
			it.src.Next()
		}
	}
	return y.ParsedInternalKey{}, false
}

func (it *Iterator) aboveUpperBound(userKey []byte) bool {
	return it.upperBound != nil && it.ucmp.Compare(userKey, it.upperBound) >= 0
}

func (it *Iterator) prefixLocked() bool {
	return it.opts.PrefixSameAsStart && it.opts.PrefixExtractor != nil
}

func (it *Iterator) lockPrefix(key []byte) {
	it.prefixStart = append(it.prefixStart[:0], it.opts.PrefixExtractor.Transform(key)...)
}

// checkPrefix ends iteration at the first key outside the locked prefix, even though
// later keys may share the prefix again.
func (it *Iterator) checkPrefix() {
	if !it.valid || !it.prefixLocked() {
		return
	}
	if !bytes.Equal(it.opts.PrefixExtractor.Transform(it.key.get()), it.prefixStart) {
		it.valid = false
	}
}

// suspendReseek turns reseeking off while a prefix lock is active and returns the
// function that turns it back on. A source positioned by prefix may not hold every
// version of a key, which reseeking relies on.
func (it *Iterator) suspendReseek() func() {
	if !it.prefixLocked() {
		return func() {}
	}
	saved := it.reseek
	it.reseek = linearScan
	return func() { it.reseek = saved }
}
