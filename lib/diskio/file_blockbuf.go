// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package diskio

import (
	"io"
	"sync"

	"git.lukeshu.com/voxel-rec/lib/containers"
)

type bufferedBlock struct {
	Dat []byte
	Err error
}

// bufferedFile caches fixed-size blocks of a File's contents, so that
// many small reads clustered within the same block (region.Reader's
// header parse and its per-chunk length/type prefix reads both fit
// this pattern) cost one syscall per block touched rather than one
// per read. It's read-only: voxel-rec never writes a region file
// back, so there's no WriteAt path or the cache-invalidation logic a
// writer would need.
type bufferedFile[A ~int64] struct {
	inner      File[A]
	mu         sync.RWMutex
	blockSize  A
	blockCache *containers.LRUCache[A, bufferedBlock]
}

var _ File[assertAddr] = (*bufferedFile[assertAddr])(nil)

// NewBufferedFile wraps file, serving ReadAt out of blockSize-aligned
// blocks cached in an LRU of at most cacheSize blocks.
func NewBufferedFile[A ~int64](file File[A], blockSize A, cacheSize int) *bufferedFile[A] {
	return &bufferedFile[A]{
		inner:      file,
		blockSize:  blockSize,
		blockCache: containers.NewLRUCache[A, bufferedBlock](cacheSize),
	}
}

func (bf *bufferedFile[A]) Name() string { return bf.inner.Name() }
func (bf *bufferedFile[A]) Size() A      { return bf.inner.Size() }
func (bf *bufferedFile[A]) Close() error { return bf.inner.Close() }

func (bf *bufferedFile[A]) ReadAt(dat []byte, off A) (n int, err error) {
	done := 0
	for done < len(dat) {
		n, err := bf.maybeShortReadAt(dat[done:], off+A(done))
		done += n
		if err != nil {
			return done, err
		}
	}
	return done, nil
}

func (bf *bufferedFile[A]) maybeShortReadAt(dat []byte, off A) (n int, err error) {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	offsetWithinBlock := off % bf.blockSize
	blockOffset := off - offsetWithinBlock
	cachedBlock, ok := bf.blockCache.Get(blockOffset)
	if !ok {
		cachedBlock.Dat = make([]byte, bf.blockSize)
		n, err := bf.inner.ReadAt(cachedBlock.Dat, blockOffset)
		cachedBlock.Dat = cachedBlock.Dat[:n]
		cachedBlock.Err = err
		bf.blockCache.Add(blockOffset, cachedBlock)
	}
	if int(offsetWithinBlock) >= len(cachedBlock.Dat) {
		if cachedBlock.Err != nil {
			return 0, cachedBlock.Err
		}
		return 0, io.EOF
	}
	n = copy(dat, cachedBlock.Dat[offsetWithinBlock:])
	if n < len(dat) {
		// A short copy off a cleanly-read block just means the
		// request continues in the next block; only surface an
		// error if this block's own read had one.
		return n, cachedBlock.Err
	}
	return n, nil
}
