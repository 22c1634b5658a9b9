/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package y

// InternalIterator walks physical entries in internal key order: user key ascending,
// then sequence number descending. Key returns an internal key (user key followed by
// an 8 byte trailer). Key and Value are only valid until the next positioning call,
// unless the iterator is pinned and reports the key pinned.
//
// An InternalIterator is not safe for concurrent use.
type InternalIterator interface {
	// Seek moves to the first entry whose internal key is >= ikey.
	Seek(ikey []byte)
	SeekToFirst()
	SeekToLast()
	Next()
	Prev()
	Valid() bool
	Key() []byte
	Value() []byte
	// Status returns the first error the iterator ran into. An exhausted iterator
	// is not an error.
	Status() error
	// Close releases the resources held by the iterator.
	Close() error
}

// Pinner is implemented by sources that can keep the memory behind returned keys and
// values alive past the next positioning call.
type Pinner interface {
	PinData() error
	ReleasePinnedData() error
	// IsKeyPinned reports whether the current Key stays valid until ReleasePinnedData.
	IsKeyPinned() bool
}

// PropertyGetter is implemented by sources that expose diagnostic properties.
type PropertyGetter interface {
	GetProperty(name string) (string, error)
}
