/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package y

import (
	"encoding/binary"
	"fmt"
)

// MaxSequenceNumber is the largest sequence number that fits next to a ValueType in the
// 8 byte trailer of an internal key.
const MaxSequenceNumber uint64 = (1 << 56) - 1

// ValueType encoded as the last component of internal keys.
// DO NOT CHANGE THESE ENUM VALUES: sources sort on them.
type ValueType uint8

const (
	ValueTypeDeletion       ValueType = 0
	ValueTypeValue          ValueType = 1
	ValueTypeMerge          ValueType = 2
	ValueTypeSingleDeletion ValueType = 0x7
	ValueTypeMax            ValueType = 0x7F
)

// ValueTypeForSeek defines the ValueType that should be passed when constructing an
// internal key for seeking to a particular sequence number. Trailers sort in decreasing
// order, so the highest-numbered type sorts first among entries sharing a sequence number.
const ValueTypeForSeek = ValueTypeSingleDeletion

var valueTypeNames = map[ValueType]string{
	ValueTypeDeletion:       "DEL",
	ValueTypeValue:          "SET",
	ValueTypeMerge:          "MERGE",
	ValueTypeSingleDeletion: "SINGLEDEL",
}

func (t ValueType) String() string {
	if s, ok := valueTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN:%d", uint8(t))
}

// IsValueType returns whether t is a type a physical entry may legally carry.
func IsValueType(t ValueType) bool {
	return t <= ValueTypeMerge || t == ValueTypeSingleDeletion
}

// IsDeletion returns true for both kinds of tombstone. Reads never tell a single
// deletion apart from a regular one.
func (t ValueType) IsDeletion() bool {
	return t == ValueTypeDeletion || t == ValueTypeSingleDeletion
}

// PackSeqAndType builds the 8 byte trailer of an internal key.
func PackSeqAndType(seq uint64, t ValueType) uint64 {
	AssertTruef(seq <= MaxSequenceNumber, "%d", seq)
	AssertTruef(t <= ValueTypeMax, "%d", t)
	return seq<<8 | uint64(t)
}

// UnpackSeqAndType splits a trailer back into sequence number and type.
func UnpackSeqAndType(packed uint64) (uint64, ValueType) {
	return packed >> 8, ValueType(packed & 0xFF)
}

// ParsedInternalKey is the decoded form of an internal key. UserKey aliases the
// buffer it was parsed from.
type ParsedInternalKey struct {
	UserKey  []byte
	Sequence uint64
	Type     ValueType
}

func (k ParsedInternalKey) String() string {
	return fmt.Sprintf("%q#%d,%s", k.UserKey, k.Sequence, k.Type)
}

// ParseInternalKey decodes ikey. It returns false if ikey is too short to carry a
// trailer or if the trailer names an unknown type.
func ParseInternalKey(ikey []byte) (ParsedInternalKey, bool) {
	n := len(ikey) - 8
	if n < 0 {
		return ParsedInternalKey{}, false
	}
	seq, t := UnpackSeqAndType(binary.BigEndian.Uint64(ikey[n:]))
	return ParsedInternalKey{UserKey: ikey[:n:n], Sequence: seq, Type: t}, IsValueType(t)
}

// AppendInternalKey appends the encoding of (userKey, seq, t) to dst.
func AppendInternalKey(dst []byte, userKey []byte, seq uint64, t ValueType) []byte {
	dst = append(dst, userKey...)
	var trailer [8]byte
	binary.BigEndian.PutUint64(trailer[:], PackSeqAndType(seq, t))
	return append(dst, trailer[:]...)
}

// KeyWithSeq returns a freshly allocated internal key.
func KeyWithSeq(userKey []byte, seq uint64, t ValueType) []byte {
	return AppendInternalKey(make([]byte, 0, len(userKey)+8), userKey, seq, t)
}

// ExtractUserKey strips the trailer. Keys too short to carry one are returned whole.
func ExtractUserKey(ikey []byte) []byte {
	if len(ikey) < 8 {
		return ikey
	}
	return ikey[:len(ikey)-8]
}

// GetLengthPrefixedSlice gets the length from prefix, then returns a slice of
// those bytes. And it also returns the remainder slice.
func GetLengthPrefixedSlice(data []byte) ([]byte, []byte) {
	n, numRead := binary.Uvarint(data)
	AssertTruef(numRead > 0, "%d", numRead)
	data = data[numRead:]
	AssertTruef(len(data) >= int(n), "%d %d", len(data), n)
	return data[:n], data[n:]
}

// AppendLengthPrefixedSlice is the inverse of GetLengthPrefixedSlice.
func AppendLengthPrefixedSlice(dst, b []byte) []byte {
	var buf [binary.MaxVarintLen64]byte
	l := binary.PutUvarint(buf[:], uint64(len(b)))
	dst = append(dst, buf[:l]...)
	return append(dst, b...)
}
