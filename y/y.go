/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package y

import "golang.org/x/net/trace"

// EmptySlice is handed out wherever a present-but-empty value must be told apart from nil.
var EmptySlice = []byte{}

// Copy copies a byte slice and returns the copied slice.
func Copy(a []byte) []byte {
	b := make([]byte, len(a))
	copy(b, a)
	return b
}

// NoEventLog is a trace.EventLog that drops everything.
var NoEventLog trace.EventLog = nilEventLog{}

type nilEventLog struct{}

func (nel nilEventLog) Printf(format string, a ...interface{}) {}

func (nel nilEventLog) Errorf(format string, a ...interface{}) {}

func (nel nilEventLog) Finish() {}
