/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package lsmview

import (
	"github.com/pkg/errors"
	"golang.org/x/net/trace"

	"github.com/dgraph-io/lsmview/y"
)

// NOTE: Keep the comments in the following to 75 chars width, so they
// format nicely in godoc.

// IteratorOptions are params for creating an Iterator.
//
// DefaultIteratorOptions returns a value that reads the latest version of
// every key. Consider using that as a starting point before customizing it
// for your own needs.
type IteratorOptions struct {
	// Only entries with a sequence number <= Snapshot are visible. Values
	// above y.MaxSequenceNumber are treated as y.MaxSequenceNumber.
	Snapshot uint64

	// Exclusive upper bound on user keys returned by forward iteration.
	// SeekToLast starts below it. Nil means no bound.
	UpperBound []byte

	// Stop iterating at the first key whose prefix, as computed by
	// PrefixExtractor, differs from the prefix of the key the iterator was
	// positioned on. Ignored without a PrefixExtractor.
	PrefixSameAsStart bool
	PrefixExtractor   y.SliceTransform

	// Number of entries of one user key stepped over linearly before the
	// iterator seeks past them instead. Only affects speed, never results.
	MaxSequentialSkip uint64

	// Borrow keys from the source instead of copying them, for as long as
	// the source keeps them alive. See Iterator.PinData.
	PinData bool

	// Capacity above which the buffer holding materialized values is
	// released when the iterator moves on. Zero keeps it forever.
	MaxRetainedValueSize int

	// Comparator for user keys. Must match the one ordering the source.
	Comparator y.Comparator

	// Folds merge entries. Required only if the source holds any.
	MergeOperator MergeOperator

	// Logger and EventLog receive corruption and merge failures.
	Logger   y.Logger
	EventLog trace.EventLog

	// Statistics receives per-call counters. Nil disables them.
	Statistics *Statistics

	// Answered for the super-version-number property when the source does
	// not know it.
	VersionNumber uint64

	// Maintain the global count of open iterators.
	MetricsEnabled bool
}

// DefaultIteratorOptions returns IteratorOptions that see every committed
// version.
func DefaultIteratorOptions() IteratorOptions {
	return IteratorOptions{
		Snapshot:             y.MaxSequenceNumber,
		MaxSequentialSkip:    8,
		MaxRetainedValueSize: 1 << 20,
		Comparator:           y.BytewiseComparator,
		Logger:               y.DefaultLogger(),
		EventLog:             y.NoEventLog,
		MetricsEnabled:       true,
	}
}

func (opt *IteratorOptions) sanitize() error {
	if opt.MaxRetainedValueSize < 0 {
		return errors.Wrapf(ErrInvalidArgument, "MaxRetainedValueSize %d", opt.MaxRetainedValueSize)
	}
	if opt.Snapshot > y.MaxSequenceNumber {
		opt.Snapshot = y.MaxSequenceNumber
	}
	if opt.Comparator == nil {
		opt.Comparator = y.BytewiseComparator
	}
	if opt.Logger == nil {
		opt.Logger = y.DefaultLogger()
	}
	if opt.EventLog == nil {
		opt.EventLog = y.NoEventLog
	}
	return nil
}

// WithSnapshot returns a new IteratorOptions value with Snapshot set to
// the given value.
func (opt IteratorOptions) WithSnapshot(val uint64) IteratorOptions {
	opt.Snapshot = val
	return opt
}

// WithUpperBound returns a new IteratorOptions value with UpperBound set
// to the given value.
func (opt IteratorOptions) WithUpperBound(val []byte) IteratorOptions {
	opt.UpperBound = val
	return opt
}

// WithPrefixSameAsStart returns a new IteratorOptions value that locks
// iteration to the prefix of the starting key, as computed by extractor.
func (opt IteratorOptions) WithPrefixSameAsStart(extractor y.SliceTransform) IteratorOptions {
	opt.PrefixSameAsStart = true
	opt.PrefixExtractor = extractor
	return opt
}

// WithPrefixExtractor returns a new IteratorOptions value with
// PrefixExtractor set to the given value.
func (opt IteratorOptions) WithPrefixExtractor(val y.SliceTransform) IteratorOptions {
	opt.PrefixExtractor = val
	return opt
}

// WithMaxSequentialSkip returns a new IteratorOptions value with
// MaxSequentialSkip set to the given value.
func (opt IteratorOptions) WithMaxSequentialSkip(val uint64) IteratorOptions {
	opt.MaxSequentialSkip = val
	return opt
}

// WithPinData returns a new IteratorOptions value with PinData set to the
// given value.
func (opt IteratorOptions) WithPinData(val bool) IteratorOptions {
	opt.PinData = val
	return opt
}

// WithMaxRetainedValueSize returns a new IteratorOptions value with
// MaxRetainedValueSize set to the given value.
func (opt IteratorOptions) WithMaxRetainedValueSize(val int) IteratorOptions {
	opt.MaxRetainedValueSize = val
	return opt
}

// WithComparator returns a new IteratorOptions value with Comparator set
// to the given value.
func (opt IteratorOptions) WithComparator(val y.Comparator) IteratorOptions {
	opt.Comparator = val
	return opt
}

// WithMergeOperator returns a new IteratorOptions value with
// MergeOperator set to the given value.
func (opt IteratorOptions) WithMergeOperator(val MergeOperator) IteratorOptions {
	opt.MergeOperator = val
	return opt
}

// WithLogger returns a new IteratorOptions value with Logger set to the
// given value.
func (opt IteratorOptions) WithLogger(val y.Logger) IteratorOptions {
	opt.Logger = val
	return opt
}

// WithEventLog returns a new IteratorOptions value with EventLog set to
// the given value.
func (opt IteratorOptions) WithEventLog(val trace.EventLog) IteratorOptions {
	opt.EventLog = val
	return opt
}

// WithStatistics returns a new IteratorOptions value with Statistics set
// to the given value.
func (opt IteratorOptions) WithStatistics(val *Statistics) IteratorOptions {
	opt.Statistics = val
	return opt
}

// WithVersionNumber returns a new IteratorOptions value with
// VersionNumber set to the given value.
func (opt IteratorOptions) WithVersionNumber(val uint64) IteratorOptions {
	opt.VersionNumber = val
	return opt
}

// WithMetricsEnabled returns a new IteratorOptions value with
// MetricsEnabled set to the given value.
func (opt IteratorOptions) WithMetricsEnabled(val bool) IteratorOptions {
	opt.MetricsEnabled = val
	return opt
}
