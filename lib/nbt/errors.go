// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package nbt

import (
	"errors"
	"fmt"
)

// ErrTruncated is the sentinel wrapped by TruncatedError; parsing ran
// out of bytes mid-tag.
var ErrTruncated = errors.New("nbt: truncated tag stream")

// TruncatedError reports where in the tag tree a short read occurred.
type TruncatedError struct {
	Context string // e.g. "reading name length", "Compound child \"Level\""
	Err     error
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("nbt: truncated while %s: %v", e.Context, e.Err)
}

func (e *TruncatedError) Unwrap() error { return e.Err }

func (e *TruncatedError) Is(target error) bool { return target == ErrTruncated }

// UnknownTagKindError reports a type-code byte outside [0, 12].
type UnknownTagKindError struct {
	Code byte
}

func (e *UnknownTagKindError) Error() string {
	return fmt.Sprintf("nbt: unknown tag kind code %d", e.Code)
}

// NegativeLengthError reports a declared length that read as negative
// when interpreted as a signed 16/32-bit integer (e.g. a String name
// length or List/array count).
type NegativeLengthError struct {
	Context string
	Value   int64
}

func (e *NegativeLengthError) Error() string {
	return fmt.Sprintf("nbt: negative length %d while %s", e.Value, e.Context)
}
