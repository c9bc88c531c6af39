// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package nbt implements the self-describing tag tree format used by
// region-file chunk payloads: a tagged variant with thirteen kinds,
// parsed recursively from a lib/bytestream.Reader.
//
// Following the textbook tagged-variant approach for this kind of
// heterogeneous-but-closed type set, Tag is a single struct carrying a
// Kind discriminator rather than thirteen distinct Go types connected
// by an interface; a List's children are still homogeneous by
// construction (one element Kind per List), so a List is simply a
// Tag whose Children all share ElemKind.
package nbt

import "fmt"

// Kind identifies which of the thirteen tag payloads a Tag holds.
type Kind uint8

const (
	KindEnd Kind = iota
	KindByte
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindByteArray
	KindString
	KindList
	KindCompound
	KindIntArray
	KindLongArray
)

func (k Kind) String() string {
	switch k {
	case KindEnd:
		return "End"
	case KindByte:
		return "Byte"
	case KindShort:
		return "Short"
	case KindInt:
		return "Int"
	case KindLong:
		return "Long"
	case KindFloat:
		return "Float"
	case KindDouble:
		return "Double"
	case KindByteArray:
		return "ByteArray"
	case KindString:
		return "String"
	case KindList:
		return "List"
	case KindCompound:
		return "Compound"
	case KindIntArray:
		return "IntArray"
	case KindLongArray:
		return "LongArray"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// IsValid reports whether k is one of the thirteen defined kinds.
func (k Kind) IsValid() bool { return k <= KindLongArray }

// Tag is a single node of a parsed tag tree. Exactly one of the
// payload fields is meaningful, selected by Kind; see the accessor
// methods below rather than reading fields directly.
type Tag struct {
	Kind Kind
	Name string // empty for list elements and the (typically unnamed) root compound

	byteVal    int8
	shortVal   int16
	intVal     int32
	longVal    int64
	floatVal   float32
	doubleVal  float64
	byteArray  []int8
	stringVal  string
	intArray   []int32
	longArray  []int64
	elemKind   Kind   // meaningful only for KindList
	children   []*Tag // KindList elements, or KindCompound named children (never an End)
}

func newScalar(kind Kind, name string) *Tag {
	return &Tag{Kind: kind, Name: name}
}

// Byte returns the payload of a KindByte tag. Panics on any other kind.
func (t *Tag) Byte() int8 { t.assert(KindByte); return t.byteVal }

// Short returns the payload of a KindShort tag.
func (t *Tag) Short() int16 { t.assert(KindShort); return t.shortVal }

// Int returns the payload of a KindInt tag.
func (t *Tag) Int() int32 { t.assert(KindInt); return t.intVal }

// Long returns the payload of a KindLong tag.
func (t *Tag) Long() int64 { t.assert(KindLong); return t.longVal }

// Float returns the payload of a KindFloat tag.
func (t *Tag) Float() float32 { t.assert(KindFloat); return t.floatVal }

// Double returns the payload of a KindDouble tag.
func (t *Tag) Double() float64 { t.assert(KindDouble); return t.doubleVal }

// ByteArray returns the payload of a KindByteArray tag.
func (t *Tag) ByteArray() []int8 { t.assert(KindByteArray); return t.byteArray }

// Str returns the payload of a KindString tag. (Named Str, not
// String, so it doesn't collide with fmt.Stringer.)
func (t *Tag) Str() string { t.assert(KindString); return t.stringVal }

// IntArray returns the payload of a KindIntArray tag.
func (t *Tag) IntArray() []int32 { t.assert(KindIntArray); return t.intArray }

// LongArray returns the payload of a KindLongArray tag.
func (t *Tag) LongArray() []int64 { t.assert(KindLongArray); return t.longArray }

// ElemKind returns the declared element kind of a KindList tag.
func (t *Tag) ElemKind() Kind { t.assert(KindList); return t.elemKind }

// Len returns the number of children of a KindList or KindCompound tag.
func (t *Tag) Len() int {
	if t.Kind != KindList && t.Kind != KindCompound {
		panic(fmt.Sprintf("nbt: Tag.Len called on a %v tag", t.Kind))
	}
	return len(t.children)
}

// At returns the i-th child of a KindList tag.
func (t *Tag) At(i int) *Tag {
	t.assert(KindList)
	return t.children[i]
}

// Children returns the element/child slice of a KindList or
// KindCompound tag, in encounter order. The caller must not mutate it.
func (t *Tag) Children() []*Tag {
	if t.Kind != KindList && t.Kind != KindCompound {
		panic(fmt.Sprintf("nbt: Tag.Children called on a %v tag", t.Kind))
	}
	return t.children
}

// GetSubtag returns the single direct child of a KindCompound tag with
// the given name, or nil if there is none.
func (t *Tag) GetSubtag(name string) *Tag {
	t.assert(KindCompound)
	for _, child := range t.children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// GetSubTagByName returns every tag reachable from a KindCompound tag
// whose name matches: its own direct children, plus (depth-first) the
// matching descendants of any direct child that is itself a
// KindCompound. Order is pre-order depth-first: each direct child (if
// it matches) comes before the matches found inside it, and those come
// before the next direct child.
func (t *Tag) GetSubTagByName(name string) []*Tag {
	t.assert(KindCompound)
	var out []*Tag
	for _, child := range t.children {
		if child.Name == name {
			out = append(out, child)
		}
		if child.Kind == KindCompound {
			out = append(out, child.GetSubTagByName(name)...)
		}
	}
	return out
}

func (t *Tag) assert(k Kind) {
	if t.Kind != k {
		panic(fmt.Sprintf("nbt: Tag is a %v tag, not %v", t.Kind, k))
	}
}
