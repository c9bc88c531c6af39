// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package voxel

import (
	"fmt"

	"git.lukeshu.com/voxel-rec/lib/nbt"
)

// MissingFieldError reports a required child tag (xPos, zPos,
// Sections, Y, Palette) that was not present where expected.
type MissingFieldError struct {
	Field   string
	Context string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("voxel: missing required field %q in %s", e.Field, e.Context)
}

// WrongKindError reports a required tag that was present but held the
// wrong kind of payload (an Int where a Byte was expected, and so on).
type WrongKindError struct {
	Field string
	Want  nbt.Kind
	Got   nbt.Kind
}

func (e *WrongKindError) Error() string {
	return fmt.Sprintf("voxel: field %q is a %v tag, expected %v", e.Field, e.Got, e.Want)
}

// OutOfRangeError reports a palette index at or beyond the palette's
// size, or another "value outside its declared domain" condition
// encountered while decoding.
type OutOfRangeError struct {
	What  string
	Value int
	Limit int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("voxel: %s: value %d is out of range (limit %d)", e.What, e.Value, e.Limit)
}
