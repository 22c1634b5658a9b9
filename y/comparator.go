/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package y

import (
	"bytes"
	"encoding/binary"
)

// Comparator defines a total order over user keys. Compare returns -1, 0 or +1.
type Comparator interface {
	Compare(a, b []byte) int
	Name() string
}

type bytewiseComparator struct{}

func (bytewiseComparator) Compare(a, b []byte) int { return bytes.Compare(a, b) }

func (bytewiseComparator) Name() string { return "lsmview.BytewiseComparator" }

// BytewiseComparator orders keys lexicographically.
var BytewiseComparator Comparator = bytewiseComparator{}

// Equal reports whether cmp considers a and b the same key.
func Equal(cmp Comparator, a, b []byte) bool {
	return cmp.Compare(a, b) == 0
}

// InternalKeyComparator orders internal keys by user key ascending, then by trailer
// descending, so that the newest version of a key comes first. A key shorter than a
// trailer is compared whole as a user key with a zero trailer.
type InternalKeyComparator struct {
	User Comparator
}

// NewInternalKeyComparator wraps a user key comparator. A nil cmp means bytewise.
func NewInternalKeyComparator(cmp Comparator) InternalKeyComparator {
	if cmp == nil {
		cmp = BytewiseComparator
	}
	return InternalKeyComparator{User: cmp}
}

func splitInternalKey(k []byte) ([]byte, uint64) {
	if len(k) < 8 {
		return k, 0
	}
	n := len(k) - 8
	return k[:n], binary.BigEndian.Uint64(k[n:])
}

// Compare implements Comparator.
func (c InternalKeyComparator) Compare(a, b []byte) int {
	ua, ta := splitInternalKey(a)
	ub, tb := splitInternalKey(b)
	if r := c.User.Compare(ua, ub); r != 0 {
		return r
	}
	// User keys are equal. Decreasing sequence number, then decreasing value type.
	switch {
	case ta > tb:
		return -1
	case ta < tb:
		return 1
	}
	return 0
}

// Name implements Comparator.
func (c InternalKeyComparator) Name() string { return "lsmview.InternalKeyComparator" }

// SliceTransform extracts a prefix from a user key.
type SliceTransform interface {
	Transform(key []byte) []byte
	InDomain(key []byte) bool
	Name() string
}

type fixedPrefix struct {
	n int
}

// FixedPrefix returns a transform yielding the first n bytes of a key. Keys shorter
// than n are outside its domain and are their own prefix.
func FixedPrefix(n int) SliceTransform {
	AssertTruef(n > 0, "prefix length %d", n)
	return fixedPrefix{n: n}
}

func (p fixedPrefix) Transform(key []byte) []byte {
	if len(key) < p.n {
		return key
	}
	return key[:p.n]
}

func (p fixedPrefix) InDomain(key []byte) bool { return len(key) >= p.n }

func (p fixedPrefix) Name() string { return "lsmview.FixedPrefix" }
