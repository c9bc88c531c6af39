// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package nbt

import (
	"fmt"

	"git.lukeshu.com/voxel-rec/lib/bytestream"
)

// Parse reads one named tag tree from r: a type byte, a name, and the
// tag's payload (recursively, for List and Compound). It is the
// entry point used on a chunk's decompressed payload, whose outer tag
// is a Compound (conventionally unnamed).
func Parse(r *bytestream.Reader) (*Tag, error) {
	return parseNamed(r)
}

func parseNamed(r *bytestream.Reader) (*Tag, error) {
	kindByte, err := r.ReadU8()
	if err != nil {
		return nil, &TruncatedError{Context: "reading tag type", Err: err}
	}
	kind := Kind(kindByte)
	if !kind.IsValid() {
		return nil, &UnknownTagKindError{Code: kindByte}
	}
	if kind == KindEnd {
		return &Tag{Kind: KindEnd}, nil
	}
	name, err := readName(r)
	if err != nil {
		return nil, err
	}
	return parsePayload(r, kind, name)
}

func readName(r *bytestream.Reader) (string, error) {
	nameLen, err := r.ReadI16()
	if err != nil {
		return "", &TruncatedError{Context: "reading name length", Err: err}
	}
	if nameLen < 0 {
		return "", &NegativeLengthError{Context: "reading name length", Value: int64(nameLen)}
	}
	name, err := r.ReadString(int(nameLen))
	if err != nil {
		return "", &TruncatedError{Context: "reading name", Err: err}
	}
	return name, nil
}

// parseListElement parses one nameless element of a List whose
// element kind is already declared.
func parseListElement(r *bytestream.Reader, elemKind Kind) (*Tag, error) {
	if elemKind == KindEnd {
		// A List of End tags (count must also be 0; enforced by the caller).
		return &Tag{Kind: KindEnd}, nil
	}
	return parsePayload(r, elemKind, "")
}

func parsePayload(r *bytestream.Reader, kind Kind, name string) (*Tag, error) {
	t := newScalar(kind, name)
	var err error
	switch kind {
	case KindByte:
		t.byteVal, err = r.ReadI8()
		err = wrapScalarErr(err, "Byte")
	case KindShort:
		t.shortVal, err = r.ReadI16()
		err = wrapScalarErr(err, "Short")
	case KindInt:
		t.intVal, err = r.ReadI32()
		err = wrapScalarErr(err, "Int")
	case KindLong:
		t.longVal, err = r.ReadI64()
		err = wrapScalarErr(err, "Long")
	case KindFloat:
		t.floatVal, err = r.ReadF32()
		err = wrapScalarErr(err, "Float")
	case KindDouble:
		t.doubleVal, err = r.ReadF64()
		err = wrapScalarErr(err, "Double")
	case KindByteArray:
		err = parseByteArray(r, t)
	case KindString:
		err = parseString(r, t)
	case KindList:
		err = parseList(r, t)
	case KindCompound:
		err = parseCompound(r, t)
	case KindIntArray:
		err = parseIntArray(r, t)
	case KindLongArray:
		err = parseLongArray(r, t)
	default:
		return nil, &UnknownTagKindError{Code: byte(kind)}
	}
	if err != nil {
		return nil, fmt.Errorf("nbt: parsing %v tag %q: %w", kind, name, err)
	}
	return t, nil
}

func wrapScalarErr(err error, kind string) error {
	if err == nil {
		return nil
	}
	return &TruncatedError{Context: "reading " + kind + " payload", Err: err}
}

func readLen32(r *bytestream.Reader, context string) (int, error) {
	n, err := r.ReadI32()
	if err != nil {
		return 0, &TruncatedError{Context: context, Err: err}
	}
	if n < 0 {
		return 0, &NegativeLengthError{Context: context, Value: int64(n)}
	}
	return int(n), nil
}

func parseByteArray(r *bytestream.Reader, t *Tag) error {
	n, err := readLen32(r, "reading ByteArray length")
	if err != nil {
		return err
	}
	t.byteArray, err = r.ReadI8Array(n)
	if err != nil {
		return &TruncatedError{Context: "reading ByteArray payload", Err: err}
	}
	return nil
}

func parseString(r *bytestream.Reader, t *Tag) error {
	strLen, err := r.ReadI16()
	if err != nil {
		return &TruncatedError{Context: "reading String length", Err: err}
	}
	if strLen < 0 {
		return &NegativeLengthError{Context: "reading String length", Value: int64(strLen)}
	}
	t.stringVal, err = r.ReadString(int(strLen))
	if err != nil {
		return &TruncatedError{Context: "reading String payload", Err: err}
	}
	return nil
}

func parseList(r *bytestream.Reader, t *Tag) error {
	elemKindByte, err := r.ReadU8()
	if err != nil {
		return &TruncatedError{Context: "reading List element type", Err: err}
	}
	elemKind := Kind(elemKindByte)
	if !elemKind.IsValid() {
		return &UnknownTagKindError{Code: elemKindByte}
	}
	count, err := readLen32(r, "reading List count")
	if err != nil {
		return err
	}
	if elemKind == KindEnd && count > 0 {
		return fmt.Errorf("List of End tags must be empty, got count %d", count)
	}
	t.elemKind = elemKind
	t.children = make([]*Tag, 0, count)
	for i := 0; i < count; i++ {
		child, err := parseListElement(r, elemKind)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		t.children = append(t.children, child)
	}
	return nil
}

func parseCompound(r *bytestream.Reader, t *Tag) error {
	for {
		child, err := parseNamed(r)
		if err != nil {
			return err
		}
		if child.Kind == KindEnd {
			return nil
		}
		t.children = append(t.children, child)
	}
}

func parseIntArray(r *bytestream.Reader, t *Tag) error {
	n, err := readLen32(r, "reading IntArray length")
	if err != nil {
		return err
	}
	t.intArray, err = r.ReadI32Array(n)
	if err != nil {
		return &TruncatedError{Context: "reading IntArray payload", Err: err}
	}
	return nil
}

func parseLongArray(r *bytestream.Reader, t *Tag) error {
	n, err := readLen32(r, "reading LongArray length")
	if err != nil {
		return err
	}
	t.longArray, err = r.ReadI64Array(n)
	if err != nil {
		return &TruncatedError{Context: "reading LongArray payload", Err: err}
	}
	return nil
}
