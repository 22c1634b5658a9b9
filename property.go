/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package lsmview

import (
	"strconv"

	"github.com/pkg/errors"
)

const (
	// PropertySuperVersionNumber is answered by the source if it can, else with
	// IteratorOptions.VersionNumber.
	PropertySuperVersionNumber = "lsmview.iterator.super-version-number"
	// PropertyIsKeyPinned is "1" if Key borrows the source's memory, "0" if it is
	// a copy.
	PropertyIsKeyPinned = "lsmview.iterator.is-key-pinned"

	notValid = "Iterator is not valid."
)

// PinData asks the source to keep every key and value it hands out alive until
// ReleasePinnedData. While pinned, Key returns the source's bytes where the source
// allows it instead of a copy, and keys stay valid past the next call.
func (it *Iterator) PinData() error {
	if it.pinner != nil {
		if err := it.pinner.PinData(); err != nil {
			return err
		}
	}
	it.pinned = true
	return nil
}

// ReleasePinnedData lets the source reclaim pinned memory. The current key is copied
// first, so Key stays usable.
func (it *Iterator) ReleasePinnedData() error {
	if it.key.isPinned() {
		it.key.set(it.key.get(), false)
	}
	if it.pinner != nil {
		if err := it.pinner.ReleasePinnedData(); err != nil {
			return err
		}
	}
	it.pinned = false
	return nil
}

// GetProperty answers diagnostic questions about the iterator.
func (it *Iterator) GetProperty(name string) (string, error) {
	switch name {
	case PropertySuperVersionNumber:
		if it.props != nil {
			if v, err := it.props.GetProperty(name); err == nil {
				return v, nil
			}
		}
		return strconv.FormatUint(it.opts.VersionNumber, 10), nil
	case PropertyIsKeyPinned:
		if !it.valid {
			return notValid, nil
		}
		if it.pinned && it.key.isPinned() {
			return "1", nil
		}
		return "0", nil
	}
	return "", errors.Wrapf(ErrUnknownProperty, "%q", name)
}
