/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package lsmview

import (
	"github.com/dgraph-io/lsmview/y"
)

// versionChain collects the visible entries of one user key and resolves them to the
// key's logical value. Forward scans feed it newest first with pushOlder, backward
// scans oldest first with pushNewer; both end in resolve, so the Put, Delete and Merge
// rules live in one place.
//
// The newest entry decides: a tombstone hides the key, a Put is its value, and a
// Merge is folded with every older Merge down to the nearest Put (the base) or
// tombstone (no base).
type versionChain struct {
	top    y.ValueType // Type of the newest entry seen.
	pushed int

	// Operands are copied into arena back to back; ends[i] is where operand i ends.
	arena       []byte
	ends        []int
	newestFirst bool
	ops         [][]byte

	hasBase bool
	// base borrows the source's value. Once baseInValue is set, the base lives in
	// value instead.
	base        []byte
	baseInValue bool

	// value receives the resolved value.
	value *y.Buffer
}

func (c *versionChain) reset() {
	c.pushed = 0
	c.ends = c.ends[:0]
	if c.value.MaxRetained > 0 && cap(c.arena) > c.value.MaxRetained {
		c.arena = nil
	}
	c.arena = c.arena[:0]
	c.hasBase = false
	c.base = nil
	c.baseInValue = false
}

func (c *versionChain) clearOperands() {
	c.arena = c.arena[:0]
	c.ends = c.ends[:0]
}

func (c *versionChain) addOperand(v []byte) {
	c.arena = append(c.arena, v...)
	c.ends = append(c.ends, len(c.arena))
}

// pushOlder adds an entry older than every entry pushed so far. It returns true once
// the entries already seen decide the outcome and older ones cannot change it.
func (c *versionChain) pushOlder(t y.ValueType, v []byte) bool {
	if c.pushed == 0 {
		c.top = t
		c.newestFirst = true
	}
	c.pushed++
	switch {
	case t == y.ValueTypeMerge:
		c.addOperand(v)
		return false
	case t == y.ValueTypeValue:
		c.hasBase = true
		c.base = v
		return true
	default:
		return true
	}
}

// pushNewer adds an entry newer than every entry pushed so far. A Put or a tombstone
// discards everything older.
func (c *versionChain) pushNewer(t y.ValueType, v []byte) {
	if c.pushed == 0 {
		c.newestFirst = false
	}
	c.pushed++
	c.top = t
	switch {
	case t == y.ValueTypeMerge:
		c.addOperand(v)
	case t == y.ValueTypeValue:
		c.clearOperands()
		c.value.Set(v)
		c.hasBase = true
		c.base = nil
		c.baseInValue = true
	default:
		c.clearOperands()
		c.hasBase = false
		c.base = nil
		c.baseInValue = false
	}
}

// operands returns the operands oldest first. The slices point into the arena.
func (c *versionChain) operands() [][]byte {
	c.ops = c.ops[:0]
	start := 0
	for _, end := range c.ends {
		c.ops = append(c.ops, c.arena[start:end])
		start = end
	}
	if c.newestFirst {
		for i, j := 0, len(c.ops)-1; i < j; i, j = i+1, j-1 {
			c.ops[i], c.ops[j] = c.ops[j], c.ops[i]
		}
	}
	return c.ops
}

// existing returns the base value handed to the merge operator: nil without a base,
// and never nil with one.
func (c *versionChain) existing() []byte {
	if !c.hasBase {
		return nil
	}
	b := c.base
	if c.baseInValue {
		b = c.value.Bytes()
	}
	if b == nil {
		b = y.EmptySlice
	}
	return b
}

// resolve leaves the value of key in c.value. It returns false if the key is deleted.
// A merge needs fold; resolve only reports that one is due.
func (c *versionChain) resolve() (found, needsMerge bool) {
	if c.pushed == 0 {
		return false, false
	}
	switch c.top {
	case y.ValueTypeValue:
		if !c.baseInValue {
			c.value.Set(c.base)
		}
		return true, false
	case y.ValueTypeMerge:
		return true, true
	default:
		return false, false
	}
}

// fold runs op over the chain and stores the result in c.value.
func (c *versionChain) fold(op MergeOperator, key []byte) error {
	res, err := op.FullMerge(key, c.existing(), c.operands())
	if err != nil {
		return err
	}
	c.value.Set(res)
	return nil
}
