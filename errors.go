/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package lsmview

import (
	"github.com/pkg/errors"

	"github.com/dgraph-io/lsmview/y"
)

var (
	// ErrCorruption is reported by Status after the iterator skipped an entry whose
	// internal key does not parse. Iteration goes on past such entries.
	ErrCorruption = errors.New("corrupted internal key in iterator")

	// ErrMergeOperatorMissing is returned when a merge entry is visible and no merge
	// operator was configured. The iterator stays invalid from then on.
	ErrMergeOperatorMissing = errors.New("merge operator must be set to read merge entries")

	// ErrMergeOperatorFailed is returned when the merge operator reports an error. The
	// iterator stays invalid from then on.
	ErrMergeOperatorFailed = errors.New("merge operator failed")

	// ErrInvalidArgument is returned for malformed options.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnknownProperty is returned by GetProperty for names it does not answer.
	ErrUnknownProperty = errors.New("unidentified iterator property")
)

func corruptionError(ikey []byte) error {
	return errors.Wrapf(ErrCorruption, "key %s", y.Hex(ikey))
}

func mergeFailedError(op MergeOperator, key []byte, cause error) error {
	return errors.Wrapf(ErrMergeOperatorFailed, "%s on key %s: %v", op.Name(), y.Hex(key), cause)
}

// isFatal returns true for errors after which the iterator can never become valid
// again.
func isFatal(err error) bool {
	return errors.Is(err, ErrMergeOperatorMissing) || errors.Is(err, ErrMergeOperatorFailed)
}
