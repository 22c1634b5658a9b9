/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package lsmview

import "github.com/dgraph-io/lsmview/y"

// reverseToBackward switches a forward iterator to reverse, leaving the source just
// before every entry of the current key.
func (it *Iterator) reverseToBackward() {
	if it.merged {
		// The merge left the source past the key. Walk back onto it.
		if !it.src.Valid() && it.src.Status() == nil {
			it.src.SeekToLast()
		}
		pk, ok := it.findParseableKey(reverse)
		for ok && it.ucmp.Compare(pk.UserKey, it.key.get()) > 0 {
			it.src.Prev()
			pk, ok = it.findParseableKey(reverse)
		}
	}
	it.findPrevUserKey()
	it.dir = reverse
}

// prevInternal resolves user keys backward from the source's position until one has a
// value at the snapshot.
func (it *Iterator) prevInternal() {
	for {
		pk, ok := it.findParseableKey(reverse)
		if !ok {
			break
		}
		it.saveKey(pk.UserKey)
		if it.findValueForCurrentKey() {
			it.valid = true
			it.skipRestOfKey()
			return
		}
		if it.fatal {
			return
		}
		if !it.src.Valid() {
			break
		}
		it.skipRestOfKey()
	}
	it.valid = false
}

// skipRestOfKey moves the source before any entries of the current key it still sits
// on, such as versions newer than the snapshot.
func (it *Iterator) skipRestOfKey() {
	if !it.src.Valid() {
		return
	}
	if pk, ok := it.findParseableKey(reverse); ok && y.Equal(it.ucmp, pk.UserKey, it.key.get()) {
		it.findPrevUserKey()
	}
}

// findValueForCurrentKey walks the visible entries of the current key from oldest to
// newest. It returns true and fills the value buffer if the newest one leaves the key
// with a value.
func (it *Iterator) findValueForCurrentKey() bool {
	y.AssertTrue(it.src.Valid())
	it.chain.reset()

	pk, ok := it.findParseableKey(reverse)
	var numSkipped uint64
	for ok && pk.Sequence <= it.snapshot && y.Equal(it.ucmp, pk.UserKey, it.key.get()) {
		if it.reseek.exceeded(numSkipped + 1) {
			return it.findValueForCurrentKeyUsingSeek()
		}
		it.chain.pushNewer(pk.Type, it.src.Value())
		if pk.Type.IsDeletion() {
			it.stats.record(TickerTombstoneSkipped, 1)
		}
		it.stats.record(TickerInternalKeySkipped, 1)
		it.src.Prev()
		numSkipped++
		pk, ok = it.findParseableKey(reverse)
	}

	it.valid = it.materialize()
	return it.valid
}

// findValueForCurrentKeyUsingSeek resolves the current key by seeking to its newest
// visible entry and reading forward from there.
func (it *Iterator) findValueForCurrentKeyUsingSeek() bool {
	it.chain.reset()
	it.seekKey.setInternalKey(it.key.get(), it.snapshot, y.ValueTypeForSeek)
	it.src.Seek(it.seekKey.get())
	it.stats.record(TickerReseek, 1)

	pk, ok := it.findParseableKey(forward)
	if !ok || !y.Equal(it.ucmp, pk.UserKey, it.key.get()) {
		// Only possible if the source failed under us.
		it.valid = false
		return false
	}
	if pk.Type != y.ValueTypeMerge {
		it.chain.pushOlder(pk.Type, it.src.Value())
		it.valid = it.materialize()
		return it.valid
	}

	for ok && y.Equal(it.ucmp, pk.UserKey, it.key.get()) && pk.Type == y.ValueTypeMerge {
		it.chain.pushOlder(pk.Type, it.src.Value())
		it.src.Next()
		pk, ok = it.findParseableKey(forward)
	}

	if !ok || !y.Equal(it.ucmp, pk.UserKey, it.key.get()) || pk.Type.IsDeletion() {
		it.valid = it.materialize()
		if !ok || !y.Equal(it.ucmp, pk.UserKey, it.key.get()) {
			// Put the source back on the key so that skipRestOfKey finds it.
			if it.src.Status() == nil {
				it.src.Seek(it.seekKey.get())
				it.stats.record(TickerReseek, 1)
			}
		}
		return it.valid
	}

	it.chain.pushOlder(pk.Type, it.src.Value())
	it.valid = it.materialize()
	return it.valid
}

// findPrevUserKey moves the source back to the oldest entry of the closest smaller
// user key, stepping over entries of the current key and invisible entries of larger
// keys.
func (it *Iterator) findPrevUserKey() {
	if !it.src.Valid() {
		return
	}
	var numSkipped uint64
	pk, ok := it.findParseableKey(reverse)
	for ok {
		cmp := it.ucmp.Compare(pk.UserKey, it.key.get())
		if cmp < 0 || (cmp > 0 && pk.Sequence <= it.snapshot) {
			break
		}
		if cmp == 0 {
			if it.reseek.exceeded(numSkipped + 1) {
				numSkipped = 0
				it.seekKey.setInternalKey(it.key.get(), y.MaxSequenceNumber, y.ValueTypeForSeek)
				it.src.Seek(it.seekKey.get())
				it.stats.record(TickerReseek, 1)
			} else {
				numSkipped++
			}
		}
		it.src.Prev()
		pk, ok = it.findParseableKey(reverse)
	}
}
