// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package bitpack_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.lukeshu.com/voxel-rec/lib/bitpack"
)

func TestBitsForPaletteSize(t *testing.T) {
	require.Equal(t, 4, bitpack.BitsForPaletteSize(2))
	require.Equal(t, 4, bitpack.BitsForPaletteSize(16))
	require.Equal(t, 5, bitpack.BitsForPaletteSize(17))
	require.Equal(t, 5, bitpack.BitsForPaletteSize(20))
}

func TestUnpackNonStraddling4Bit(t *testing.T) {
	// 16 elements of 4 bits each fit exactly in one 64-bit word.
	// 0x1111111111111110 => element 0 = 0, elements 1..15 = 1.
	words := []int64{int64(uint64(0x1111111111111110))}
	for n := 0; n < 16; n++ {
		v, err := bitpack.Unpack(words, n, 4, bitpack.Packed)
		require.NoError(t, err)
		if n == 0 {
			require.Equal(t, uint64(0), v)
		} else {
			require.Equal(t, uint64(1), v)
		}
	}
}

func TestUnpack5BitPostEpoch(t *testing.T) {
	// bpi=5, epw=12; element 12 is the first element of the second word.
	words := make([]int64, 2)
	words[1] = int64(0x15) // low 5 bits of word[1] == 0b10101 == 21
	v, err := bitpack.Unpack(words, 12, 5, bitpack.Packed)
	require.NoError(t, err)
	require.Equal(t, uint64(21), v)
}

func TestUnpackOutOfRange(t *testing.T) {
	words := []int64{0}
	_, err := bitpack.Unpack(words, 100, 4, bitpack.Packed)
	require.Error(t, err)
}

func TestFloorDiv(t *testing.T) {
	require.Equal(t, int32(-1), bitpack.FloorDiv(int32(-1), int32(32)))
	require.Equal(t, int32(0), bitpack.FloorDiv(int32(0), int32(32)))
	require.Equal(t, int32(-1), bitpack.FloorDiv(int32(-32), int32(32)))
	require.Equal(t, int32(-2), bitpack.FloorDiv(int32(-33), int32(32)))
	require.Equal(t, int32(1), bitpack.FloorDiv(int32(32), int32(32)))
}

func TestFloorMod(t *testing.T) {
	require.Equal(t, int32(31), bitpack.FloorMod(int32(-1), int32(32)))
	require.Equal(t, int32(0), bitpack.FloorMod(int32(-32), int32(32)))
	require.Equal(t, int32(1), bitpack.FloorMod(int32(33), int32(32)))
}
