/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package y

import (
	"expvar"
)

var (
	// These are cumulative across every iterator in the process.

	// numIteratorsOpen is the number of resolving iterators not yet closed.
	numIteratorsOpen *expvar.Int
	// numBlocksLoaded has cumulative number of table blocks decoded
	numBlocksLoaded *expvar.Int
	// numBlockBytesLoaded has cumulative number of decompressed block bytes
	numBlockBytesLoaded *expvar.Int
	// numCorruptKeys has cumulative number of unparseable internal keys seen
	numCorruptKeys *expvar.Int
)

// These variables are global and have cumulative values for all iterators.
func init() {
	numIteratorsOpen = expvar.NewInt("lsmview_iterators_open")
	numBlocksLoaded = expvar.NewInt("lsmview_table_blocks_loaded_total")
	numBlockBytesLoaded = expvar.NewInt("lsmview_table_block_bytes_loaded")
	numCorruptKeys = expvar.NewInt("lsmview_corrupt_keys_total")
}

func NumIteratorsOpenAdd(enabled bool, val int64) {
	addInt(enabled, numIteratorsOpen, val)
}

func NumIteratorsOpen() int64 {
	return numIteratorsOpen.Value()
}

func NumBlocksLoadedAdd(enabled bool, val int64) {
	addInt(enabled, numBlocksLoaded, val)
}

func NumBlockBytesLoadedAdd(enabled bool, val int64) {
	addInt(enabled, numBlockBytesLoaded, val)
}

func NumCorruptKeysAdd(enabled bool, val int64) {
	addInt(enabled, numCorruptKeys, val)
}

func addInt(enabled bool, metric *expvar.Int, val int64) {
	if !enabled {
		return
	}

	metric.Add(val)
}
