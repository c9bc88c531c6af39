// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package diskio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildKMPTableZlibMagic(t *testing.T) {
	// {0x78, 0x01} is the low-compression zlib CMF/FLG magic
	// region.ScanForChunkPayloads searches for; its two bytes differ,
	// so the table is trivial (no self-overlap possible), which
	// is exactly what makes it a cheap thing to scan a whole region
	// file for.
	table := buildKMPTable([]byte{0x78, 0x01})
	require.Equal(t, []int{0, 0}, table)
}

func TestBuildKMPTable(t *testing.T) {
	substr := []byte("ababaa")
	table := buildKMPTable(substr)
	require.Equal(t,
		[]int{0, 0, 1, 2, 3, 1},
		table)
	for j, val := range table {
		matchLen := j + 1
		assert.Equalf(t, substr[:val], substr[matchLen-val:matchLen],
			"for table[%d]=%d", j, val)
	}
}

func FuzzBuildKMPTable(f *testing.F) {
	f.Add([]byte("ababaa"))
	f.Fuzz(func(t *testing.T, substr []byte) {
		if len(substr) == 0 {
			t.Skip()
		}
		table := buildKMPTable(substr)
		require.Equal(t, len(substr), len(table), "length")
		for j, val := range table {
			matchLen := j + 1
			assert.Equalf(t, substr[:val], substr[matchLen-val:matchLen],
				"for table[%d]=%d", j, val)
		}
	})
}

func naiveFindAll(str, substr []byte) []int64 {
	var matches []int64
	for i := range str {
		if bytes.HasPrefix(str[i:], substr) {
			matches = append(matches, int64(i))
		}
	}
	return matches
}

func TestFindAllOverlapping(t *testing.T) {
	// "aaa" inside "aaaa" has two overlapping occurrences, at 0 and
	// 1: this is the behavior ScanForChunkPayloads relies on to not
	// miss a chunk payload immediately abutting another.
	matches, err := FindAll(bytes.NewReader([]byte("aaaa")), []byte("aaa"))
	require.NoError(t, err)
	require.Equal(t, []int64{0, 1}, matches)
}

func FuzzFindAll(f *testing.F) {
	f.Add([]byte("mississippi"), []byte("ssi"))
	f.Fuzz(func(t *testing.T, str, substr []byte) {
		if len(substr) == 0 {
			t.Skip()
		}
		exp := naiveFindAll(str, substr)
		act, err := FindAll(bytes.NewReader(str), substr)
		assert.NoError(t, err)
		assert.Equal(t, exp, act)
	})
}
