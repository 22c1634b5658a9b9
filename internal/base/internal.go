// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package base holds the textual form of physical entries used by tests and by the
// lsmview tool: one entry per line, written <user-key>.<KIND>.<seq-num>[:<value>].
package base

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/dgraph-io/lsmview/y"
)

// InternalKeyKind enumerates the kind of key: a deletion tombstone, a set
// value, a merged value, etc.
type InternalKeyKind uint8

// These constants mirror y.ValueType and must not be changed.
const (
	InternalKeyKindDelete       = InternalKeyKind(y.ValueTypeDeletion)
	InternalKeyKindSet          = InternalKeyKind(y.ValueTypeValue)
	InternalKeyKindMerge        = InternalKeyKind(y.ValueTypeMerge)
	InternalKeyKindSingleDelete = InternalKeyKind(y.ValueTypeSingleDeletion)

	// A marker for an invalid key. It encodes to a trailer whose type no
	// reader accepts.
	InternalKeyKindInvalid InternalKeyKind = 255

	// InternalKeySeqNumMax is the largest valid sequence number.
	InternalKeySeqNumMax = uint64(y.MaxSequenceNumber)
)

var internalKeyKindNames = map[InternalKeyKind]string{
	InternalKeyKindDelete:       "DEL",
	InternalKeyKindSet:          "SET",
	InternalKeyKindMerge:        "MERGE",
	InternalKeyKindSingleDelete: "SINGLEDEL",
	InternalKeyKindInvalid:      "INVALID",
}

func (k InternalKeyKind) String() string {
	if s, ok := internalKeyKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN:%d", k)
}

var kindsMap = map[string]InternalKeyKind{
	"DEL":       InternalKeyKindDelete,
	"SINGLEDEL": InternalKeyKindSingleDelete,
	"SET":       InternalKeyKindSet,
	"MERGE":     InternalKeyKindMerge,
	"INVALID":   InternalKeyKindInvalid,
}

// InternalKey is the decoded form of a physical entry's key.
type InternalKey struct {
	UserKey []byte
	Trailer uint64
}

// MakeInternalKey constructs an internal key from a specified user key,
// sequence number and kind.
func MakeInternalKey(userKey []byte, seqNum uint64, kind InternalKeyKind) InternalKey {
	return InternalKey{
		UserKey: userKey,
		Trailer: (seqNum << 8) | uint64(kind),
	}
}

// ParseInternalKey parses the string representation of an internal key. The
// format is <user-key>.<kind>.<seq-num>. The user key may itself contain dots.
func ParseInternalKey(s string) (InternalKey, error) {
	x := strings.Split(s, ".")
	if len(x) < 3 {
		return InternalKey{}, errors.Errorf("malformed internal key %q", s)
	}
	n := len(x)
	ukey := strings.Join(x[:n-2], ".")
	kind, ok := kindsMap[x[n-2]]
	if !ok {
		return InternalKey{}, errors.Errorf("unknown kind: %q", x[n-2])
	}
	seqNum, err := strconv.ParseUint(x[n-1], 10, 64)
	if err != nil {
		return InternalKey{}, errors.Wrapf(err, "sequence number of %q", s)
	}
	if seqNum > InternalKeySeqNumMax {
		return InternalKey{}, errors.Errorf("sequence number %d of %q is too large", seqNum, s)
	}
	return MakeInternalKey([]byte(ukey), seqNum, kind), nil
}

// DecodeInternalKey decodes an encoded internal key. Keys that do not parse come
// back with the invalid kind and the whole input as user key.
func DecodeInternalKey(encodedKey []byte) InternalKey {
	pk, ok := y.ParseInternalKey(encodedKey)
	if !ok {
		return MakeInternalKey(encodedKey, 0, InternalKeyKindInvalid)
	}
	return MakeInternalKey(pk.UserKey, pk.Sequence, InternalKeyKind(pk.Type))
}

// Encode returns the encoded internal key. An invalid key encodes to a trailer
// that fails y.ParseInternalKey.
func (k InternalKey) Encode() []byte {
	t := y.ValueType(k.Kind())
	if k.Kind() == InternalKeyKindInvalid {
		t = y.ValueTypeMax
	}
	return y.KeyWithSeq(k.UserKey, k.SeqNum(), t)
}

// InternalCompare compares two internal keys using the specified comparator.
// For equal user keys, internal keys compare in descending sequence number
// order.
func InternalCompare(userCmp y.Comparator, a, b InternalKey) int {
	if x := userCmp.Compare(a.UserKey, b.UserKey); x != 0 {
		return x
	}
	if a.Trailer > b.Trailer {
		return -1
	}
	if a.Trailer < b.Trailer {
		return 1
	}
	return 0
}

// SeqNum returns the sequence number component of the key.
func (k InternalKey) SeqNum() uint64 {
	return k.Trailer >> 8
}

// Visible returns true if the key is visible at the specified snapshot
// sequence number.
func (k InternalKey) Visible(snapshot uint64) bool {
	return k.SeqNum() <= snapshot
}

// Kind returns the kind compoment of the key.
func (k InternalKey) Kind() InternalKeyKind {
	return InternalKeyKind(k.Trailer & 0xff)
}

// Valid returns true if the key has a valid kind.
func (k InternalKey) Valid() bool {
	return y.IsValueType(y.ValueType(k.Kind()))
}

// Clone clones the storage for the UserKey component of the key.
func (k InternalKey) Clone() InternalKey {
	if k.UserKey == nil {
		return k
	}
	return InternalKey{
		UserKey: append([]byte(nil), k.UserKey...),
		Trailer: k.Trailer,
	}
}

// String returns the key in the format accepted by ParseInternalKey.
func (k InternalKey) String() string {
	return fmt.Sprintf("%s.%s.%d", k.UserKey, k.Kind(), k.SeqNum())
}

// FormatInternalKey renders an encoded internal key, INVALID included.
func FormatInternalKey(encodedKey []byte) string {
	return DecodeInternalKey(encodedKey).String()
}

// Entry is a physical entry.
type Entry struct {
	Key   InternalKey
	Value []byte
}

func (e Entry) String() string {
	if len(e.Value) == 0 {
		return e.Key.String()
	}
	return e.Key.String() + ":" + string(e.Value)
}

// LevelSeparator separates the levels of ParseEntries input.
const LevelSeparator = "---"

// ParseEntries parses whitespace separated <key>.<KIND>.<seq>[:<value>] tokens.
// Lines holding only LevelSeparator start a new level. Each level is returned
// sorted in internal key order under cmp; nil means bytewise.
func ParseEntries(text string, cmp y.Comparator) ([][]Entry, error) {
	if cmp == nil {
		cmp = y.BytewiseComparator
	}
	levels := [][]Entry{nil}
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == LevelSeparator {
			levels = append(levels, nil)
			continue
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, tok := range strings.Fields(line) {
			var value []byte
			if i := strings.IndexByte(tok, ':'); i >= 0 {
				tok, value = tok[:i], []byte(tok[i+1:])
			}
			k, err := ParseInternalKey(tok)
			if err != nil {
				return nil, err
			}
			cur := len(levels) - 1
			levels[cur] = append(levels[cur], Entry{Key: k, Value: value})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "while reading entries")
	}
	for _, l := range levels {
		sort.SliceStable(l, func(i, j int) bool {
			return InternalCompare(cmp, l[i].Key, l[j].Key) < 0
		})
	}
	return levels, nil
}
