/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package lsmview

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// MergeOperator folds the merge operands of a key into its value.
type MergeOperator interface {
	// Name identifies the operator in log lines and errors.
	Name() string

	// FullMerge returns the value of key. existing is the value the operands apply
	// to, or nil if the key had no value (it was deleted or never set). A key set to
	// an empty value gets a non-nil empty existing. operands are ordered oldest
	// first. The returned slice is copied, and neither existing nor operands may be
	// retained after FullMerge returns.
	FullMerge(key, existing []byte, operands [][]byte) ([]byte, error)
}

// MergeFunc adapts a function to MergeOperator.
type MergeFunc func(key, existing []byte, operands [][]byte) ([]byte, error)

type funcOperator struct {
	name string
	fn   MergeFunc
}

// NewMergeOperator returns a MergeOperator named name that calls fn.
func NewMergeOperator(name string, fn MergeFunc) MergeOperator {
	return funcOperator{name: name, fn: fn}
}

func (f funcOperator) Name() string { return f.name }

func (f funcOperator) FullMerge(key, existing []byte, operands [][]byte) ([]byte, error) {
	return f.fn(key, existing, operands)
}

type stringAppend struct {
	delim []byte
}

// StringAppendOperator joins the existing value and all operands, oldest first,
// separated by delim.
func StringAppendOperator(delim []byte) MergeOperator {
	return stringAppend{delim: append([]byte(nil), delim...)}
}

func (s stringAppend) Name() string { return "StringAppendOperator" }

func (s stringAppend) FullMerge(key, existing []byte, operands [][]byte) ([]byte, error) {
	parts := make([][]byte, 0, len(operands)+1)
	if existing != nil {
		parts = append(parts, existing)
	}
	parts = append(parts, operands...)
	return bytes.Join(parts, s.delim), nil
}

type uint64Add struct{}

// Uint64AddOperator treats the existing value and every operand as a big-endian
// uint64 and returns their sum. A missing value counts as zero.
var Uint64AddOperator MergeOperator = uint64Add{}

func (uint64Add) Name() string { return "Uint64AddOperator" }

func (uint64Add) FullMerge(key, existing []byte, operands [][]byte) ([]byte, error) {
	var sum uint64
	add := func(b []byte) error {
		if len(b) != 8 {
			return errors.Errorf("operand of %d bytes is not a uint64", len(b))
		}
		sum += binary.BigEndian.Uint64(b)
		return nil
	}
	if existing != nil {
		if err := add(existing); err != nil {
			return nil, err
		}
	}
	for _, op := range operands {
		if err := add(op); err != nil {
			return nil, err
		}
	}
	var out [8]byte
	binary.BigEndian.PutUint64(out[:], sum)
	return out[:], nil
}
