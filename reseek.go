/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package lsmview

import "math"

// reseekPolicy decides when stepping over the entries of one user key should give way
// to a single seek past them. It never changes what an iterator returns.
type reseekPolicy struct {
	threshold uint64
}

// linearScan never reseeks.
var linearScan = reseekPolicy{threshold: math.MaxUint64}

func newReseekPolicy(maxSkip uint64) reseekPolicy {
	return reseekPolicy{threshold: maxSkip}
}

// exceeded returns true once more than threshold entries have been stepped over.
func (p reseekPolicy) exceeded(skipped uint64) bool {
	return skipped > p.threshold
}
