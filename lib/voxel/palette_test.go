// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package voxel_test

import (
	"context"
	"testing"

	"github.com/datawire/dlib/dlog"
	"github.com/stretchr/testify/require"

	"git.lukeshu.com/voxel-rec/lib/bitpack"
	"git.lukeshu.com/voxel-rec/lib/nbt"
	"git.lukeshu.com/voxel-rec/lib/voxel"
)

func compound(name string, children ...*nbt.Tag) *nbt.Tag {
	return nbt.NewCompound(name, children)
}

func intTag(name string, v int32) *nbt.Tag { return nbt.NewInt(name, v) }
func byteTag(name string, v int8) *nbt.Tag { return nbt.NewByte(name, v) }
func strTag(name string, v string) *nbt.Tag { return nbt.NewString(name, v) }
func longArrayTag(name string, v []int64) *nbt.Tag { return nbt.NewLongArray(name, v) }
func listTag(name string, elemKind nbt.Kind, children ...*nbt.Tag) *nbt.Tag {
	return nbt.NewList(name, elemKind, children)
}

func TestDecodeChunkFourBit(t *testing.T) {
	ctx := dlog.NewTestContext(t, false)

	palette := listTag("Palette", nbt.KindCompound,
		compound("", strTag("Name", "minecraft:air")),
		compound("", strTag("Name", "minecraft:stone")),
	)
	section := compound("",
		byteTag("Y", 0),
		longArrayTag("BlockStates", []int64{int64(uint64(0x1111111111111110))}),
		palette,
	)
	root := compound("",
		intTag("xPos", 2),
		intTag("zPos", -1),
		listTag("Sections", nbt.KindCompound, section),
	)

	chunk, err := voxel.DecodeChunk(ctx, root, voxel.DecodeOptions{})
	require.NoError(t, err)
	require.Equal(t, voxel.ChunkPos{X: 2, Z: -1}, chunk.Pos)
	require.Equal(t, 16, chunk.Len())

	b, ok := chunk.Get(voxel.BlockPos{X: 32, Y: 0, Z: -16})
	require.True(t, ok)
	require.Equal(t, "air", b.ID)

	b, ok = chunk.Get(voxel.BlockPos{X: 33, Y: 0, Z: -16})
	require.True(t, ok)
	require.Equal(t, "stone", b.ID)
}

func TestDecodeChunkMissingBlockStatesIsAllAir(t *testing.T) {
	ctx := context.Background()
	section := compound("", byteTag("Y", 0))
	root := compound("",
		intTag("xPos", 0),
		intTag("zPos", 0),
		listTag("Sections", nbt.KindCompound, section),
	)
	chunk, err := voxel.DecodeChunk(ctx, root, voxel.DecodeOptions{})
	require.NoError(t, err)
	require.Equal(t, 0, chunk.Len())
}

func TestDecodeChunkMissingXPos(t *testing.T) {
	ctx := context.Background()
	root := compound("", listTag("Sections", nbt.KindCompound))
	_, err := voxel.DecodeChunk(ctx, root, voxel.DecodeOptions{})
	require.Error(t, err)
	var missing *voxel.MissingFieldError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "xPos", missing.Field)
}

func TestDecodeChunkWrongKindXPos(t *testing.T) {
	ctx := context.Background()
	root := compound("",
		byteTag("xPos", 0), // Int expected
		intTag("zPos", 0),
		listTag("Sections", nbt.KindCompound),
	)
	_, err := voxel.DecodeChunk(ctx, root, voxel.DecodeOptions{})
	require.Error(t, err)
	var wrongKind *voxel.WrongKindError
	require.ErrorAs(t, err, &wrongKind)
	require.Equal(t, "xPos", wrongKind.Field)
	require.Equal(t, nbt.KindInt, wrongKind.Want)
	require.Equal(t, nbt.KindByte, wrongKind.Got)
}

func TestDecodeChunkFiveBitBoundary(t *testing.T) {
	ctx := context.Background()
	children := make([]*nbt.Tag, 20)
	for i := range children {
		children[i] = compound("", strTag("Name", "minecraft:air"))
	}
	palette := listTag("Palette", nbt.KindCompound, children...)

	words := make([]int64, 2)
	words[1] = int64(0x13) // element 12, bpi=5: low 5 bits of word[1] select palette entry 19
	section := compound("",
		byteTag("Y", 0),
		longArrayTag("BlockStates", words),
		palette,
	)
	root := compound("",
		intTag("xPos", 0),
		intTag("zPos", 0),
		listTag("Sections", nbt.KindCompound, section),
	)
	chunk, err := voxel.DecodeChunk(ctx, root, voxel.DecodeOptions{Layout: bitpack.Packed})
	require.NoError(t, err)
	// Two words at 12 elements per word encode the first 24 blocks.
	require.Equal(t, 24, chunk.Len())
}
