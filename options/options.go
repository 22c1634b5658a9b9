/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package options

import (
	"github.com/dgraph-io/ristretto"

	"github.com/dgraph-io/lsmview/y"
)

// CompressionType specifies how a block should be compressed.
type CompressionType uint32

const (
	// None mode indicates that a block is not compressed.
	None CompressionType = 0
	// Snappy mode indicates that a block is compressed using Snappy algorithm.
	Snappy CompressionType = 1
	// ZSTD mode indicates that a block is compressed using ZSTD algorithm.
	ZSTD CompressionType = 2
)

func (c CompressionType) String() string {
	switch c {
	case None:
		return "none"
	case Snappy:
		return "snappy"
	case ZSTD:
		return "zstd"
	}
	return "unknown"
}

// NOTE: Keep the comments in the following to 75 chars width, so they
// format nicely in godoc.

// TableOptions are params for building and reading an in-memory sorted
// table.
type TableOptions struct {
	// Size of each block inside the table, before compression.
	BlockSize int

	// Compression applied to each block.
	Compression CompressionType

	// ZSTD compression level. Only used when Compression is ZSTD.
	ZSTDCompressionLevel int

	// Verify the checksum of each block when it is loaded. A mismatch
	// surfaces through the table iterator's Status.
	VerifyChecksum bool

	// Comparator for user keys. Nil means bytewise.
	Comparator y.Comparator

	// Logger receives block load failures. Nil means the default logger.
	Logger y.Logger

	// BlockCache holds decoded blocks shared by all iterators of all
	// tables built with these options. Nil disables caching.
	BlockCache *ristretto.Cache
}

// DefaultTableOptions returns TableOptions that work for most tests and
// tools.
func DefaultTableOptions() TableOptions {
	return TableOptions{
		BlockSize:            4 << 10,
		Compression:          Snappy,
		ZSTDCompressionLevel: 1,
		VerifyChecksum:       true,
		Comparator:           y.BytewiseComparator,
		Logger:               y.DefaultLogger(),
	}
}

// WithBlockSize returns a new TableOptions value with BlockSize set to
// the given value.
func (opt TableOptions) WithBlockSize(val int) TableOptions {
	opt.BlockSize = val
	return opt
}

// WithCompression returns a new TableOptions value with Compression set
// to the given value.
func (opt TableOptions) WithCompression(val CompressionType) TableOptions {
	opt.Compression = val
	return opt
}

// WithZSTDCompressionLevel returns a new TableOptions value with
// ZSTDCompressionLevel set to the given value.
func (opt TableOptions) WithZSTDCompressionLevel(val int) TableOptions {
	opt.ZSTDCompressionLevel = val
	return opt
}

// WithVerifyChecksum returns a new TableOptions value with
// VerifyChecksum set to the given value.
func (opt TableOptions) WithVerifyChecksum(val bool) TableOptions {
	opt.VerifyChecksum = val
	return opt
}

// WithComparator returns a new TableOptions value with Comparator set
// to the given value.
func (opt TableOptions) WithComparator(val y.Comparator) TableOptions {
	opt.Comparator = val
	return opt
}

// WithBlockCache returns a new TableOptions value with BlockCache set to
// the given value.
func (opt TableOptions) WithBlockCache(val *ristretto.Cache) TableOptions {
	opt.BlockCache = val
	return opt
}
