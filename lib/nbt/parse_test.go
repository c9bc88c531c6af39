// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package nbt_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"git.lukeshu.com/voxel-rec/lib/bytestream"
	"git.lukeshu.com/voxel-rec/lib/nbt"
)

func namedTagHeader(buf *bytes.Buffer, kind nbt.Kind, name string) {
	buf.WriteByte(byte(kind))
	binary.Write(buf, binary.BigEndian, uint16(len(name))) //nolint:errcheck
	buf.WriteString(name)
}

func TestParseCompoundWithScalars(t *testing.T) {
	var buf bytes.Buffer
	namedTagHeader(&buf, nbt.KindCompound, "")

	namedTagHeader(&buf, nbt.KindInt, "xPos")
	binary.Write(&buf, binary.BigEndian, int32(3)) //nolint:errcheck

	namedTagHeader(&buf, nbt.KindString, "id")
	binary.Write(&buf, binary.BigEndian, uint16(len("minecraft:granite"))) //nolint:errcheck
	buf.WriteString("minecraft:granite")

	buf.WriteByte(byte(nbt.KindEnd)) // terminate the compound

	root, err := nbt.Parse(bytestream.NewReader(buf.Bytes()))
	require.NoError(t, err, spew.Sdump(buf.Bytes()))
	require.Equal(t, nbt.KindCompound, root.Kind)
	require.Equal(t, 2, root.Len())

	xPos := root.GetSubtag("xPos")
	require.NotNil(t, xPos)
	require.Equal(t, int32(3), xPos.Int())

	id := root.GetSubtag("id")
	require.NotNil(t, id)
	require.Equal(t, "minecraft:granite", id.Str())
}

func TestParseEmptyListOfEnd(t *testing.T) {
	var buf bytes.Buffer
	namedTagHeader(&buf, nbt.KindCompound, "")

	namedTagHeader(&buf, nbt.KindList, "Sections")
	buf.WriteByte(byte(nbt.KindEnd))
	binary.Write(&buf, binary.BigEndian, int32(0)) //nolint:errcheck

	buf.WriteByte(byte(nbt.KindEnd))

	root, err := nbt.Parse(bytestream.NewReader(buf.Bytes()))
	require.NoError(t, err)
	sections := root.GetSubtag("Sections")
	require.Equal(t, nbt.KindEnd, sections.ElemKind())
	require.Equal(t, 0, sections.Len())
}

func TestParseNestedCompoundLookup(t *testing.T) {
	var buf bytes.Buffer
	namedTagHeader(&buf, nbt.KindCompound, "")

	namedTagHeader(&buf, nbt.KindCompound, "Level")
	namedTagHeader(&buf, nbt.KindInt, "xPos")
	binary.Write(&buf, binary.BigEndian, int32(7)) //nolint:errcheck
	buf.WriteByte(byte(nbt.KindEnd))                // end Level

	buf.WriteByte(byte(nbt.KindEnd)) // end root

	root, err := nbt.Parse(bytestream.NewReader(buf.Bytes()))
	require.NoError(t, err)

	matches := root.GetSubTagByName("xPos")
	require.Len(t, matches, 1)
	require.Equal(t, int32(7), matches[0].Int())

	// Direct lookup does not recurse.
	require.Nil(t, root.GetSubtag("xPos"))
}

func TestParseTruncated(t *testing.T) {
	// A Compound tag header with no children and no End byte.
	var buf bytes.Buffer
	namedTagHeader(&buf, nbt.KindCompound, "")

	_, err := nbt.Parse(bytestream.NewReader(buf.Bytes()))
	require.Error(t, err)
	require.True(t, errors.Is(err, nbt.ErrTruncated))
}

func TestParseUnknownKind(t *testing.T) {
	buf := []byte{99, 0, 0} // type code 99, zero-length name
	_, err := nbt.Parse(bytestream.NewReader(buf))
	require.Error(t, err)
	var unkErr *nbt.UnknownTagKindError
	require.True(t, errors.As(err, &unkErr))
	require.Equal(t, byte(99), unkErr.Code)
}

// encodeTag re-serializes a parsed tag tree; the production surface
// is read-only, so this lives here purely to assert that parsing is
// lossless.
func encodeTag(buf *bytes.Buffer, t *nbt.Tag, named bool) {
	if named {
		namedTagHeader(buf, t.Kind, t.Name)
	}
	switch t.Kind {
	case nbt.KindByte:
		buf.WriteByte(byte(t.Byte()))
	case nbt.KindShort:
		binary.Write(buf, binary.BigEndian, t.Short()) //nolint:errcheck
	case nbt.KindInt:
		binary.Write(buf, binary.BigEndian, t.Int()) //nolint:errcheck
	case nbt.KindLong:
		binary.Write(buf, binary.BigEndian, t.Long()) //nolint:errcheck
	case nbt.KindFloat:
		binary.Write(buf, binary.BigEndian, t.Float()) //nolint:errcheck
	case nbt.KindDouble:
		binary.Write(buf, binary.BigEndian, t.Double()) //nolint:errcheck
	case nbt.KindByteArray:
		binary.Write(buf, binary.BigEndian, int32(len(t.ByteArray()))) //nolint:errcheck
		for _, b := range t.ByteArray() {
			buf.WriteByte(byte(b))
		}
	case nbt.KindString:
		binary.Write(buf, binary.BigEndian, uint16(len(t.Str()))) //nolint:errcheck
		buf.WriteString(t.Str())
	case nbt.KindList:
		buf.WriteByte(byte(t.ElemKind()))
		binary.Write(buf, binary.BigEndian, int32(t.Len())) //nolint:errcheck
		for _, child := range t.Children() {
			encodeTag(buf, child, false)
		}
	case nbt.KindCompound:
		for _, child := range t.Children() {
			encodeTag(buf, child, true)
		}
		buf.WriteByte(byte(nbt.KindEnd))
	case nbt.KindIntArray:
		binary.Write(buf, binary.BigEndian, int32(len(t.IntArray()))) //nolint:errcheck
		for _, v := range t.IntArray() {
			binary.Write(buf, binary.BigEndian, v) //nolint:errcheck
		}
	case nbt.KindLongArray:
		binary.Write(buf, binary.BigEndian, int32(len(t.LongArray()))) //nolint:errcheck
		for _, v := range t.LongArray() {
			binary.Write(buf, binary.BigEndian, v) //nolint:errcheck
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	root := nbt.NewCompound("", []*nbt.Tag{
		nbt.NewInt("xPos", -7),
		nbt.NewByte("Y", 3),
		nbt.NewDouble("scale", 0.25),
		nbt.NewString("id", "minecraft:granite"),
		nbt.NewByteArray("raw", []int8{-1, 0, 1}),
		nbt.NewIntArray("Biomes", []int32{1, 2, 3}),
		nbt.NewLongArray("BlockStates", []int64{0x1111111111111110, -1}),
		nbt.NewList("Sections", nbt.KindCompound, []*nbt.Tag{
			nbt.NewCompound("", []*nbt.Tag{nbt.NewByte("Y", 0)}),
		}),
	})

	var first bytes.Buffer
	encodeTag(&first, root, true)

	parsed, err := nbt.Parse(bytestream.NewReader(first.Bytes()))
	require.NoError(t, err, spew.Sdump(first.Bytes()))

	var second bytes.Buffer
	encodeTag(&second, parsed, true)
	require.Equal(t, first.Bytes(), second.Bytes())
}

func TestParseLongArray(t *testing.T) {
	var buf bytes.Buffer
	namedTagHeader(&buf, nbt.KindLongArray, "BlockStates")
	binary.Write(&buf, binary.BigEndian, int32(2))                    //nolint:errcheck
	binary.Write(&buf, binary.BigEndian, int64(0x1111111111111110))   //nolint:errcheck
	binary.Write(&buf, binary.BigEndian, int64(-1))                   //nolint:errcheck

	tag, err := nbt.Parse(bytestream.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, nbt.KindLongArray, tag.Kind)
	arr := tag.LongArray()
	require.Len(t, arr, 2)
	require.Equal(t, int64(0x1111111111111110), arr[0])
	require.Equal(t, int64(-1), arr[1])
}
