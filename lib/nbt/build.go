// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package nbt

// The New* constructors build Tag values programmatically, without
// going through Parse. The tests of lib/nbt and lib/voxel use them to
// synthesize small tag trees rather than parsing them off disk.

func NewByte(name string, v int8) *Tag {
	t := newScalar(KindByte, name)
	t.byteVal = v
	return t
}

func NewShort(name string, v int16) *Tag {
	t := newScalar(KindShort, name)
	t.shortVal = v
	return t
}

func NewInt(name string, v int32) *Tag {
	t := newScalar(KindInt, name)
	t.intVal = v
	return t
}

func NewLong(name string, v int64) *Tag {
	t := newScalar(KindLong, name)
	t.longVal = v
	return t
}

func NewFloat(name string, v float32) *Tag {
	t := newScalar(KindFloat, name)
	t.floatVal = v
	return t
}

func NewDouble(name string, v float64) *Tag {
	t := newScalar(KindDouble, name)
	t.doubleVal = v
	return t
}

func NewByteArray(name string, v []int8) *Tag {
	t := newScalar(KindByteArray, name)
	t.byteArray = v
	return t
}

func NewString(name string, v string) *Tag {
	t := newScalar(KindString, name)
	t.stringVal = v
	return t
}

func NewIntArray(name string, v []int32) *Tag {
	t := newScalar(KindIntArray, name)
	t.intArray = v
	return t
}

func NewLongArray(name string, v []int64) *Tag {
	t := newScalar(KindLongArray, name)
	t.longArray = v
	return t
}

func NewList(name string, elemKind Kind, children []*Tag) *Tag {
	t := newScalar(KindList, name)
	t.elemKind = elemKind
	t.children = children
	return t
}

func NewCompound(name string, children []*Tag) *Tag {
	t := newScalar(KindCompound, name)
	t.children = children
	return t
}
