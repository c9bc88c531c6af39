// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package voxel

// Chunk is a materialised 16x16 column of Blocks, keyed by absolute
// world position. Insertion order is irrelevant; a later insertion at
// the same position overwrites an earlier one, so if a chunk carries
// two sections with the same Y the one decoded last wins.
type Chunk struct {
	Pos    ChunkPos
	blocks map[BlockPos]Block
}

// NewChunk returns an empty Chunk for the given chunk coordinate.
func NewChunk(pos ChunkPos) *Chunk {
	return &Chunk{Pos: pos, blocks: make(map[BlockPos]Block)}
}

// Insert stores b, keyed by b.Pos, overwriting any existing block at
// that position.
func (c *Chunk) Insert(b Block) {
	c.blocks[b.Pos] = b
}

// Get returns the block at pos, if any.
func (c *Chunk) Get(pos BlockPos) (Block, bool) {
	b, ok := c.blocks[pos]
	return b, ok
}

// Len returns the number of materialised blocks.
func (c *Chunk) Len() int { return len(c.blocks) }

// All calls fn for every block in the chunk, in unspecified order.
func (c *Chunk) All(fn func(Block)) {
	for _, b := range c.blocks {
		fn(b)
	}
}
