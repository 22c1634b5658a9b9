/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package lsmview

import (
	"expvar"
	"fmt"
	"strings"
)

// Ticker names one counter of Statistics.
type Ticker int

const (
	TickerSeek Ticker = iota
	TickerSeekFound
	TickerNext
	TickerNextFound
	TickerPrev
	TickerPrevFound
	TickerBytesRead
	TickerReseek
	TickerInternalKeySkipped
	TickerTombstoneSkipped
	TickerMergeOperation
	TickerMergeNanos
	TickerCorruptKey
	numTickers
)

var tickerNames = [numTickers]string{
	TickerSeek:               "seeks_total",
	TickerSeekFound:          "seeks_found_total",
	TickerNext:               "nexts_total",
	TickerNextFound:          "nexts_found_total",
	TickerPrev:               "prevs_total",
	TickerPrevFound:          "prevs_found_total",
	TickerBytesRead:          "bytes_read_total",
	TickerReseek:             "reseeks_total",
	TickerInternalKeySkipped: "internal_keys_skipped_total",
	TickerTombstoneSkipped:   "tombstones_skipped_total",
	TickerMergeOperation:     "merge_operations_total",
	TickerMergeNanos:         "merge_nanos_total",
	TickerCorruptKey:         "corrupt_keys_total",
}

func (t Ticker) String() string {
	if t >= 0 && t < numTickers {
		return tickerNames[t]
	}
	return fmt.Sprintf("ticker(%d)", int(t))
}

// Statistics is a set of counters published through expvar. Iterators sharing a
// Statistics add to the same counters. A nil *Statistics records nothing.
type Statistics struct {
	prefix   string
	counters [numTickers]*expvar.Int
}

// NewStatistics returns counters published as <prefix>_<name>. Calling it twice with
// the same prefix returns counters backed by the same expvar variables.
func NewStatistics(prefix string) *Statistics {
	s := &Statistics{prefix: prefix}
	for i := range s.counters {
		s.counters[i] = getInt(prefix + "_" + tickerNames[i])
	}
	return s
}

// expvar panics if you try to set an already set variable. So we try get first else get new.
func getInt(k string) *expvar.Int {
	if val := expvar.Get(k); val != nil {
		return val.(*expvar.Int)
	}
	return expvar.NewInt(k)
}

func (s *Statistics) record(t Ticker, n int64) {
	if s == nil {
		return
	}
	s.counters[t].Add(n)
}

// Get returns the current value of a counter.
func (s *Statistics) Get(t Ticker) int64 {
	if s == nil {
		return 0
	}
	return s.counters[t].Value()
}

// Reset sets every counter back to zero.
func (s *Statistics) Reset() {
	if s == nil {
		return
	}
	for _, c := range s.counters {
		c.Set(0)
	}
}

// String lists the non-zero counters.
func (s *Statistics) String() string {
	if s == nil {
		return ""
	}
	var sb strings.Builder
	for i, c := range s.counters {
		if v := c.Value(); v != 0 {
			fmt.Fprintf(&sb, "%s=%d\n", Ticker(i), v)
		}
	}
	return sb.String()
}
