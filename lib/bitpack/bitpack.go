// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package bitpack implements the variable-width integer array encoding
// used to store palette indices in a sub-chunk's BlockStates array, and
// the floored-division helpers the coordinate arithmetic in
// lib/worldcache depends on.
package bitpack

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// BitsForPaletteSize returns the element bit width used to pack
// indices into a palette of the given size: ceil(log2(size)), clamped
// to a minimum of 4 (the post-1.16 convention).
func BitsForPaletteSize(size int) int {
	bpi := 4
	for (1 << bpi) < size {
		bpi++
	}
	return bpi
}

// Layout selects between the two known on-disk packings of the
// BlockStates long array. Packed is the post-1.16 default: elements
// never straddle a 64-bit word. PackedStraddling is the legacy
// pre-1.16 layout, where an element may span the high bits of one word
// and the low bits of the next.
type Layout int

const (
	Packed Layout = iota
	PackedStraddling
)

// ElementCount returns how many bpi-bit elements a slice of nWords
// 64-bit words holds under the given layout. Under Packed each word
// holds floor(64/bpi) elements and the remaining high bits are
// padding; under PackedStraddling the words form one flat bitstream.
func ElementCount(nWords, bpi int, layout Layout) int {
	if layout == PackedStraddling {
		return nWords * 64 / bpi
	}
	return nWords * (64 / bpi)
}

// Unpack decodes the element at index n (0-based, row-major) from
// words, a slice of 64-bit words holding bpi-bit-wide unsigned
// elements, using the given layout.
func Unpack(words []int64, n, bpi int, layout Layout) (uint64, error) {
	switch layout {
	case Packed:
		return unpackNonStraddling(words, n, bpi)
	case PackedStraddling:
		return unpackStraddling(words, n, bpi)
	default:
		return 0, fmt.Errorf("bitpack: unknown layout %v", layout)
	}
}

func unpackNonStraddling(words []int64, n, bpi int) (uint64, error) {
	epw := 64 / bpi
	wordIdx := n / epw
	if wordIdx >= len(words) {
		return 0, fmt.Errorf("bitpack: element %d (word %d) out of range of %d words", n, wordIdx, len(words))
	}
	bitOffset := uint((n % epw) * bpi)
	mask := uint64(1)<<uint(bpi) - 1
	word := uint64(words[wordIdx])
	return (word >> bitOffset) & mask, nil
}

// unpackStraddling implements the pre-1.16 layout, where the packed
// bitstream is laid out as a flat sequence of n*bpi bits without
// regard to 64-bit word boundaries; an element may use the remaining
// high bits of one word combined with the low bits of the next.
func unpackStraddling(words []int64, n, bpi int) (uint64, error) {
	bitIndex := n * bpi
	wordIdx := bitIndex / 64
	bitOffset := uint(bitIndex % 64)
	if wordIdx >= len(words) {
		return 0, fmt.Errorf("bitpack: element %d (word %d) out of range of %d words", n, wordIdx, len(words))
	}
	mask := uint64(1)<<uint(bpi) - 1
	word := uint64(words[wordIdx])
	val := word >> bitOffset
	bitsFromFirst := 64 - bitOffset
	if bitsFromFirst < uint(bpi) {
		if wordIdx+1 >= len(words) {
			return 0, fmt.Errorf("bitpack: element %d straddles past the last word", n)
		}
		next := uint64(words[wordIdx+1])
		val |= next << bitsFromFirst
	}
	return val & mask, nil
}

// FloorDiv computes floor(a/b) for signed integers, in contrast to
// Go's native '/' which truncates toward zero. Chunk-from-block and
// region-from-chunk coordinate math needs flooring so that negative
// coordinates land on the correct side of the origin.
func FloorDiv[T constraints.Signed](a, b T) T {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod computes a floored modulo, satisfying FloorDiv(a,b)*b +
// FloorMod(a,b) == a; a non-zero result has the sign of b, so
// 0 <= FloorMod(a,b) < b for b > 0.
func FloorMod[T constraints.Signed](a, b T) T {
	m := a % b
	if m != 0 && ((a < 0) != (b < 0)) {
		m += b
	}
	return m
}
