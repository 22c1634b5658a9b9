/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package lsmview

import "github.com/dgraph-io/lsmview/y"

// iterKey holds the current user key. It either owns a copy of the key or borrows
// the source's bytes, which is only allowed while the source has the key pinned.
type iterKey struct {
	buf    []byte
	key    []byte
	pinned bool
}

// set stores key, copying it unless borrow is true.
func (k *iterKey) set(key []byte, borrow bool) {
	k.pinned = borrow
	if borrow {
		k.key = key
		return
	}
	k.buf = append(k.buf[:0], key...)
	k.key = k.buf
}

// setInternalKey stores the internal key (userKey, seq, t) in owned memory.
func (k *iterKey) setInternalKey(userKey []byte, seq uint64, t y.ValueType) {
	k.pinned = false
	k.buf = y.AppendInternalKey(k.buf[:0], userKey, seq, t)
	k.key = k.buf
}

func (k *iterKey) get() []byte { return k.key }

func (k *iterKey) isPinned() bool { return k.pinned }
