// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package voxel holds the block-addressable value objects (Block,
// Chunk) and the palette decoder that turns a parsed chunk tag tree
// (lib/nbt) into them.
package voxel

import "fmt"

// namespacePrefix is the fixed ten-character namespace stripped from a
// palette entry's Name to produce Block.ID.
const namespacePrefix = "minecraft:"

// BlockPos is an absolute world-space block coordinate.
type BlockPos struct {
	X, Y, Z int32
}

func (p BlockPos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// ChunkPos is an absolute chunk coordinate (one chunk spans 16 blocks
// in X and Z).
type ChunkPos struct {
	X, Z int32
}

func (p ChunkPos) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Z)
}

// Block is an immutable (identifier, absolute position) pair.
type Block struct {
	ID  string
	Pos BlockPos
}

// stripNamespace removes the fixed "minecraft:" prefix from a palette
// entry's Name field. Names that don't carry the prefix (a
// non-conforming palette) are returned unchanged rather than failing
// the decode.
func stripNamespace(name string) string {
	if len(name) > len(namespacePrefix) && name[:len(namespacePrefix)] == namespacePrefix {
		return name[len(namespacePrefix):]
	}
	return name
}
