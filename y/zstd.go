/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package y

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	zstdDec *zstd.Decoder
	zstdEnc *zstd.Encoder

	zstdEncOnce, zstdDecOnce sync.Once
)

// ZSTDDecompress decompresses a block using ZSTD algorithm.
func ZSTDDecompress(dst, src []byte) ([]byte, error) {
	var err error
	zstdDecOnce.Do(func() {
		zstdDec, err = zstd.NewReader(nil)
		Check(err)
	})
	return zstdDec.DecodeAll(src, dst[:0])
}

// ZSTDCompress compresses a block using ZSTD algorithm.
func ZSTDCompress(dst, src []byte, level int) ([]byte, error) {
	var err error
	zstdEncOnce.Do(func() {
		zstdEnc, err = zstd.NewWriter(
			nil, zstd.WithZeroFrames(true),
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
			zstd.WithEncoderCRC(false))
		Check(err)
	})
	return zstdEnc.EncodeAll(src, dst[:0]), nil
}
