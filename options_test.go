/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package lsmview

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dgraph-io/lsmview/y"
)

func TestIteratorOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opt := DefaultIteratorOptions()
		require.Equal(t, y.MaxSequenceNumber, opt.Snapshot)
		require.Equal(t, uint64(8), opt.MaxSequentialSkip)
		require.Equal(t, 1<<20, opt.MaxRetainedValueSize)
		require.True(t, opt.MetricsEnabled)
		require.NoError(t, opt.sanitize())
	})

	t.Run("sanitize", func(t *testing.T) {
		opt := IteratorOptions{Snapshot: math.MaxUint64}
		require.NoError(t, opt.sanitize())
		require.Equal(t, y.MaxSequenceNumber, opt.Snapshot)
		require.Equal(t, y.BytewiseComparator, opt.Comparator)
		require.NotNil(t, opt.Logger)
		require.NotNil(t, opt.EventLog)

		opt.MaxRetainedValueSize = -1
		require.ErrorIs(t, opt.sanitize(), ErrInvalidArgument)
	})

	t.Run("setters", func(t *testing.T) {
		extractor := y.FixedPrefix(3)
		opt := DefaultIteratorOptions().
			WithSnapshot(12).
			WithUpperBound([]byte("z")).
			WithPrefixSameAsStart(extractor).
			WithMaxSequentialSkip(2).
			WithPinData(true).
			WithMaxRetainedValueSize(5).
			WithVersionNumber(9).
			WithMetricsEnabled(false)
		require.Equal(t, uint64(12), opt.Snapshot)
		require.Equal(t, []byte("z"), opt.UpperBound)
		require.True(t, opt.PrefixSameAsStart)
		require.Equal(t, extractor, opt.PrefixExtractor)
		require.Equal(t, uint64(2), opt.MaxSequentialSkip)
		require.True(t, opt.PinData)
		require.Equal(t, 5, opt.MaxRetainedValueSize)
		require.Equal(t, uint64(9), opt.VersionNumber)
		require.False(t, opt.MetricsEnabled)

		// Setters work on copies.
		base := DefaultIteratorOptions()
		_ = base.WithSnapshot(1)
		require.Equal(t, y.MaxSequenceNumber, base.Snapshot)
	})
}
