// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package bytestream implements a cursor over an immutable in-memory
// byte buffer, with endian-aware fixed-width reads.
package bytestream

import (
	"errors"
	"fmt"
)

// ErrEndOfStream is returned (optionally wrapped) by a read that
// needs more bytes than remain in the buffer.
var ErrEndOfStream = errors.New("bytestream: end of stream")

// ReadError decorates ErrEndOfStream with the read that failed, in
// the style of this codebase's other decorated error types.
type ReadError struct {
	Op   string
	Want int
	Have int
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("bytestream: %s: need %d bytes but only %d remain", e.Op, e.Want, e.Have)
}

func (e *ReadError) Unwrap() error { return ErrEndOfStream }
