// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package worldcache implements the chunk registry: resolving block
// and chunk world coordinates down to region files on disk, keeping a
// bounded pool of open region.Reader handles, and memoizing decoded
// chunks so that repeat lookups against the same chunk don't re-walk
// the palette decoder.
package worldcache

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/datawire/dlib/dlog"

	"git.lukeshu.com/voxel-rec/lib/bitpack"
	"git.lukeshu.com/voxel-rec/lib/containers"
	"git.lukeshu.com/voxel-rec/lib/region"
	"git.lukeshu.com/voxel-rec/lib/voxel"
)

const (
	chunksPerRegion = region.RegionWidth // 32
	blocksPerChunk  = 16
)

// regionCoord is the key into the registry's pool of open region.Reader
// handles.
type regionCoord struct{ RX, RZ int32 }

// chunkCoord is the key into the registry's cache of materialised
// chunks.
type chunkCoord struct{ CX, CZ int32 }

// Registry resolves absolute chunk and block coordinates against a
// directory of "r.<rx>.<rz>.mca" region files, keeping at most
// maxOpenRegions Readers open and at most maxCachedChunks decoded
// voxel.Chunks memoised. A
// reader evicted from the region pool has its file handle closed
// immediately, rather than leaking until the registry itself closes.
type Registry struct {
	dir     string
	opts    voxel.DecodeOptions
	readers *containers.LRUCache[regionCoord, *region.Reader]
	chunks  *containers.LRUCache[chunkCoord, *voxel.Chunk]

	mu sync.Mutex
}

// NewRegistry returns a Registry rooted at dir (the directory holding
// a world's region files), keeping at most maxOpenRegions region.Reader
// handles and maxCachedChunks decoded chunks in memory at once.
func NewRegistry(dir string, maxOpenRegions, maxCachedChunks int, opts voxel.DecodeOptions) *Registry {
	reg := &Registry{
		dir:  dir,
		opts: opts,
	}
	reg.readers = containers.NewLRUCacheWithEvict(maxOpenRegions, func(_ regionCoord, r *region.Reader) {
		_ = r.Close()
	})
	reg.chunks = containers.NewLRUCache[chunkCoord, *voxel.Chunk](maxCachedChunks)
	return reg
}

// ChunkToRegion splits an absolute chunk coordinate into the region it
// lives in and its local (x, z) within that region's 32x32 grid, using
// floored (not truncated) division so that negative coordinates land
// in the correct region (chunk (-1,-1) is region (-1,-1) local
// (31,31), not region (0,0)).
func ChunkToRegion(cx, cz int32) (rx, rz int32, lx, lz int) {
	rx = bitpack.FloorDiv(cx, int32(chunksPerRegion))
	rz = bitpack.FloorDiv(cz, int32(chunksPerRegion))
	lx = int(bitpack.FloorMod(cx, int32(chunksPerRegion)))
	lz = int(bitpack.FloorMod(cz, int32(chunksPerRegion)))
	return rx, rz, lx, lz
}

// BlockToChunk splits an absolute block coordinate into the chunk it
// lives in, using floored division.
func BlockToChunk(bx, bz int32) (cx, cz int32) {
	return bitpack.FloorDiv(bx, int32(blocksPerChunk)), bitpack.FloorDiv(bz, int32(blocksPerChunk))
}

// reader returns (opening and caching it if necessary) the
// region.Reader for region coordinate (rx, rz).
func (reg *Registry) reader(ctx context.Context, rx, rz int32) (*region.Reader, error) {
	key := regionCoord{RX: rx, RZ: rz}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if r, ok := reg.readers.Get(key); ok {
		return r, nil
	}

	path := filepath.Join(reg.dir, region.Filename(rx, rz))
	r := region.NewReader(path)
	if err := r.Read(ctx, true); err != nil {
		return nil, &RegionOpenError{RX: rx, RZ: rz, Err: err}
	}
	reg.readers.Add(key, r)
	dlog.Debugf(ctx, "worldcache: opened region (%d,%d)", rx, rz)
	return r, nil
}

// GetChunk resolves the decoded contents of absolute chunk coordinate
// (cx, cz), returning the cached voxel.Chunk if this coordinate has
// already been materialised and is still held in the chunk cache. A
// cache hit never touches the region.Reader or the palette decoder.
func (reg *Registry) GetChunk(ctx context.Context, cx, cz int32) (*voxel.Chunk, error) {
	key := chunkCoord{CX: cx, CZ: cz}
	if chunk, ok := reg.chunks.Get(key); ok {
		return chunk, nil
	}

	rx, rz, lx, lz := ChunkToRegion(cx, cz)
	r, err := reg.reader(ctx, rx, rz)
	if err != nil {
		return nil, err
	}
	chunk, err := r.GetChunkAt(ctx, lx, lz, reg.opts)
	if err != nil {
		return nil, err
	}
	reg.chunks.Add(key, chunk)
	return chunk, nil
}

// GetChunkByBlockCoord resolves the chunk containing absolute block
// coordinate (bx, bz).
func (reg *Registry) GetChunkByBlockCoord(ctx context.Context, bx, bz int32) (*voxel.Chunk, error) {
	cx, cz := BlockToChunk(bx, bz)
	return reg.GetChunk(ctx, cx, cz)
}

// GetBlock resolves the single block at absolute position (bx, by,
// bz), if materialised. Positions with no decoded block (a section
// without BlockStates, past the end of a short BlockStates array, or
// outside every section) report ok=false; air that is stored through
// a palette entry is returned as a Block with ID "air".
func (reg *Registry) GetBlock(ctx context.Context, bx, by, bz int32) (voxel.Block, bool, error) {
	chunk, err := reg.GetChunkByBlockCoord(ctx, bx, bz)
	if err != nil {
		return voxel.Block{}, false, err
	}
	b, ok := chunk.Get(voxel.BlockPos{X: bx, Y: by, Z: bz})
	return b, ok, nil
}

// GetBlocksInRange resolves every block in the chunk-coordinate box
// [lowerCX,upperCX) x [lowerCZ,upperCZ), decoding each chunk leniently
// (voxel.DecodeOptions.Lenient forced true regardless of the
// registry's configured options): an out-of-range palette index or a
// palette entry missing its name is skipped rather than aborting the
// whole query. A chunk slot with no
// region-file entry, or a region whose ".mca" file does not exist at
// all, is silently skipped, matching a sparse world having
// ungenerated chunks and regions in the queried area; any other read
// or decode failure aborts the whole range. Results bypass the chunk
// cache, since they're decoded under different options than GetChunk
// uses.
func (reg *Registry) GetBlocksInRange(ctx context.Context, lowerCX, upperCX, lowerCZ, upperCZ int32) ([]voxel.Block, error) {
	opts := reg.opts
	opts.Lenient = true

	var out []voxel.Block
	for cx := lowerCX; cx < upperCX; cx++ {
		for cz := lowerCZ; cz < upperCZ; cz++ {
			rx, rz, lx, lz := ChunkToRegion(cx, cz)
			r, err := reg.reader(ctx, rx, rz)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return nil, err
			}
			chunk, err := r.GetChunkAt(ctx, lx, lz, opts)
			if err != nil {
				if errors.Is(err, region.ErrChunkEmpty) {
					continue
				}
				return nil, err
			}
			chunk.All(func(b voxel.Block) { out = append(out, b) })
		}
	}
	return out, nil
}

// Close closes every region.Reader currently held open by the
// registry and drops the decoded-chunk cache.
func (reg *Registry) Close() error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	var first error
	for _, key := range reg.readers.Keys() {
		r, ok := reg.readers.Peek(key)
		if !ok {
			continue
		}
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	reg.readers.Purge()
	reg.chunks.Purge()
	return first
}
