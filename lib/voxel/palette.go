// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package voxel

import (
	"context"
	"fmt"

	"github.com/datawire/dlib/dlog"

	"git.lukeshu.com/voxel-rec/lib/bitpack"
	"git.lukeshu.com/voxel-rec/lib/nbt"
)

const (
	sectionBlocks = 16 // a sub-chunk is 16x16x16
)

// DecodeOptions controls the palette decoder.
//
// Its zero value is the strict single-chunk form: an out-of-range
// palette index or a missing palette entry name is a fatal error.
// Bulk/range queries (worldcache.Registry.GetBlocksInRange) instead
// set Lenient so the offending block is skipped and logged, rather
// than aborting the whole query.
type DecodeOptions struct {
	// Lenient skips (rather than fails on) an out-of-range palette
	// index or a malformed palette entry (not a Compound, or with a
	// missing or non-String Name field), logging the skip instead.
	// False (the default) is strict.
	Lenient bool

	// Layout selects the BlockStates bit-packing; the zero value
	// (bitpack.Packed) is the post-1.16 non-straddling layout. Set
	// to bitpack.PackedStraddling to read pre-1.16 worlds.
	Layout bitpack.Layout
}

// DecodeChunk resolves the bit-packed palette-indexed block states in
// root (the parsed tag tree of a single chunk's decompressed payload)
// into a materialised Chunk.
func DecodeChunk(ctx context.Context, root *nbt.Tag, opts DecodeOptions) (*Chunk, error) {
	if root.Kind != nbt.KindCompound {
		return nil, &WrongKindError{Field: "chunk root", Want: nbt.KindCompound, Got: root.Kind}
	}
	xPosTag := firstMatch(root, "xPos")
	if xPosTag == nil {
		return nil, &MissingFieldError{Field: "xPos", Context: "chunk root"}
	}
	if xPosTag.Kind != nbt.KindInt {
		return nil, &WrongKindError{Field: "xPos", Want: nbt.KindInt, Got: xPosTag.Kind}
	}
	zPosTag := firstMatch(root, "zPos")
	if zPosTag == nil {
		return nil, &MissingFieldError{Field: "zPos", Context: "chunk root"}
	}
	if zPosTag.Kind != nbt.KindInt {
		return nil, &WrongKindError{Field: "zPos", Want: nbt.KindInt, Got: zPosTag.Kind}
	}
	ox := xPosTag.Int() * 16
	oz := zPosTag.Int() * 16

	sectionsTag := firstMatch(root, "Sections")
	if sectionsTag == nil {
		sectionsTag = firstMatch(root, "sections")
	}
	if sectionsTag == nil {
		return nil, &MissingFieldError{Field: "Sections", Context: "chunk root"}
	}
	if sectionsTag.Kind != nbt.KindList {
		return nil, &WrongKindError{Field: "Sections", Want: nbt.KindList, Got: sectionsTag.Kind}
	}

	chunk := NewChunk(ChunkPos{X: xPosTag.Int(), Z: zPosTag.Int()})
	for i := 0; i < sectionsTag.Len(); i++ {
		section := sectionsTag.At(i)
		if section.Kind != nbt.KindCompound {
			return nil, fmt.Errorf("voxel: section %d: %w",
				i, &WrongKindError{Field: "Sections element", Want: nbt.KindCompound, Got: section.Kind})
		}
		if err := decodeSection(ctx, section, ox, oz, chunk, opts); err != nil {
			return nil, fmt.Errorf("voxel: section %d: %w", i, err)
		}
	}
	return chunk, nil
}

// firstMatch looks up name as a direct child of root first (the
// common case), falling back to the depth-first recursive lookup for
// worlds that nest chunk fields under a "Level" compound.
func firstMatch(root *nbt.Tag, name string) *nbt.Tag {
	if direct := root.GetSubtag(name); direct != nil {
		return direct
	}
	matches := root.GetSubTagByName(name)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

func decodeSection(ctx context.Context, section *nbt.Tag, ox, oz int32, chunk *Chunk, opts DecodeOptions) error {
	yTag := section.GetSubtag("Y")
	if yTag == nil {
		return &MissingFieldError{Field: "Y", Context: "Sections element"}
	}
	if yTag.Kind != nbt.KindByte {
		return &WrongKindError{Field: "Y", Want: nbt.KindByte, Got: yTag.Kind}
	}
	y := int32(yTag.Byte())

	blockStatesTag := section.GetSubtag("BlockStates")
	if blockStatesTag == nil {
		// All-air sub-chunk: nothing to decode.
		return nil
	}
	if blockStatesTag.Kind != nbt.KindLongArray {
		return &WrongKindError{Field: "BlockStates", Want: nbt.KindLongArray, Got: blockStatesTag.Kind}
	}
	paletteTag := section.GetSubtag("Palette")
	if paletteTag == nil {
		return &MissingFieldError{Field: "Palette", Context: "Sections element"}
	}
	if paletteTag.Kind != nbt.KindList {
		return &WrongKindError{Field: "Palette", Want: nbt.KindList, Got: paletteTag.Kind}
	}

	words := blockStatesTag.LongArray()
	paletteSize := paletteTag.Len()
	if paletteSize == 0 {
		return nil
	}
	bpi := bitpack.BitsForPaletteSize(paletteSize)

	// A BlockStates array shorter than a full sub-chunk encodes
	// only its leading blocks; don't read past what it holds.
	total := sectionBlocks * sectionBlocks * sectionBlocks
	if avail := bitpack.ElementCount(len(words), bpi, opts.Layout); avail < total {
		total = avail
	}

	for n := 0; n < total; n++ {
		layer := n / (sectionBlocks * sectionBlocks)
		rem := n % (sectionBlocks * sectionBlocks)
		zIn := int32(rem / sectionBlocks)
		xIn := int32(rem % sectionBlocks)

		idx, err := bitpack.Unpack(words, n, bpi, opts.Layout)
		if err != nil {
			return fmt.Errorf("decoding BlockStates: %w", err)
		}
		if int(idx) >= paletteSize {
			oobErr := &OutOfRangeError{What: "palette index", Value: int(idx), Limit: paletteSize}
			if !opts.Lenient {
				return oobErr
			}
			dlog.Debugf(ctx, "voxel: skipping block: %v", oobErr)
			continue
		}
		entry := paletteTag.At(int(idx))
		if entry.Kind != nbt.KindCompound {
			if !opts.Lenient {
				return &WrongKindError{Field: "Palette entry", Want: nbt.KindCompound, Got: entry.Kind}
			}
			dlog.Debugf(ctx, "voxel: skipping block: palette entry %d is a %v tag", idx, entry.Kind)
			continue
		}
		nameTag := entry.GetSubtag("Name")
		if nameTag == nil {
			if !opts.Lenient {
				return &MissingFieldError{Field: "Name", Context: "Palette entry"}
			}
			dlog.Debugf(ctx, "voxel: skipping block: palette entry %d has no Name", idx)
			continue
		}
		if nameTag.Kind != nbt.KindString {
			if !opts.Lenient {
				return &WrongKindError{Field: "Name", Want: nbt.KindString, Got: nameTag.Kind}
			}
			dlog.Debugf(ctx, "voxel: skipping block: palette entry %d Name is a %v tag", idx, nameTag.Kind)
			continue
		}

		pos := BlockPos{
			X: ox + xIn,
			Y: y*16 + int32(layer),
			Z: oz + zIn,
		}
		chunk.Insert(Block{ID: stripNamespace(nameTag.Str()), Pos: pos})
	}
	return nil
}
