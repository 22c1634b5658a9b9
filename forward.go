/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package lsmview

import "github.com/dgraph-io/lsmview/y"

// findNextUserEntry scans forward from the source's position for the next user key
// with a value at the snapshot. With skipping set, entries of keys <= the current key
// are stepped over first.
func (it *Iterator) findNextUserEntry(skipping bool) {
	y.AssertTrue(it.dir == forward)
	it.merged = false
	var numSkipped uint64
	reseeked := false
	for {
		if pk, ok := it.parseKey(); ok {
			if it.aboveUpperBound(pk.UserKey) {
				break
			}
			if pk.Sequence <= it.snapshot {
				if skipping && it.ucmp.Compare(pk.UserKey, it.key.get()) <= 0 {
					numSkipped++
					it.stats.record(TickerInternalKeySkipped, 1)
				} else {
					switch {
					case pk.Type.IsDeletion():
						// Every older entry of this key is hidden.
						it.saveKey(pk.UserKey)
						skipping = true
						numSkipped = 0
						it.stats.record(TickerTombstoneSkipped, 1)
					case pk.Type == y.ValueTypeValue:
						it.valid = true
						it.saveKey(pk.UserKey)
						return
					case pk.Type == y.ValueTypeMerge:
						it.saveKey(pk.UserKey)
						it.merged = true
						it.valid = true
						it.mergeValuesNewToOld()
						return
					}
				}
			}
		}

		// After a long run over one key, seek to its smallest possible entry instead
		// of stepping. A seek that lands on that very entry is followed by a step,
		// never by another seek.
		if skipping && !reseeked && it.reseek.exceeded(numSkipped) {
			numSkipped = 0
			reseeked = true
			it.seekKey.setInternalKey(it.key.get(), 0, y.ValueTypeDeletion)
			it.src.Seek(it.seekKey.get())
			it.stats.record(TickerReseek, 1)
		} else {
			reseeked = false
			it.src.Next()
		}
		if !it.src.Valid() {
			break
		}
	}
	it.valid = false
}

// mergeValuesNewToOld folds the merge entry under the source with every older entry
// of the same key, leaving the source on the first entry after the ones consumed.
func (it *Iterator) mergeValuesNewToOld() {
	if it.opts.MergeOperator == nil {
		it.missingMergeOperator()
		return
	}
	it.chain.reset()
	it.chain.pushOlder(y.ValueTypeMerge, it.src.Value())
	for it.src.Next(); it.src.Valid(); it.src.Next() {
		pk, ok := it.parseKey()
		if !ok {
			continue
		}
		if !y.Equal(it.ucmp, pk.UserKey, it.key.get()) {
			break
		}
		if it.chain.pushOlder(pk.Type, it.src.Value()) {
			// A Put or a tombstone ends the chain. Fold while a borrowed base is still
			// under the source, then step past it.
			if it.materialize() {
				it.src.Next()
			}
			return
		}
	}
	it.materialize()
}

// findNextUserKey moves forward to the first entry of the current key. It is used when
// switching from reverse to forward, where the key is only a few entries away.
func (it *Iterator) findNextUserKey() {
	if !it.src.Valid() {
		return
	}
	pk, ok := it.findParseableKey(forward)
	for ok && !y.Equal(it.ucmp, pk.UserKey, it.key.get()) {
		it.src.Next()
		pk, ok = it.findParseableKey(forward)
	}
}
