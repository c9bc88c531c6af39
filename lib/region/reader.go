// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package region implements the region-file decoder: parsing the 8
// KiB sector index of a ".mca" region container, decompressing and
// tag-parsing individual chunks, and resolving their bit-packed
// palette-indexed block states into a voxel.Chunk.
package region

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"git.lukeshu.com/go/typedsync"
	"github.com/datawire/dlib/dlog"

	"git.lukeshu.com/voxel-rec/lib/bytestream"
	"git.lukeshu.com/voxel-rec/lib/diskio"
	"git.lukeshu.com/voxel-rec/lib/nbt"
	"git.lukeshu.com/voxel-rec/lib/textui"
	"git.lukeshu.com/voxel-rec/lib/voxel"
)

// state is Reader's position in its lifecycle: Unopened ->
// HeaderParsed -> {chunks progressively populated}.
type state int

const (
	stateUnopened state = iota
	stateHeaderParsed
)

// Reader owns a single region file's handle, its parsed header, and
// the tag trees of whichever chunks have been fetched so far. Its
// methods may be called concurrently: the file handle and the header
// are guarded by mu (a chunk's first fetch rewrites its header entry),
// and the per-chunk tag-tree cache is a typedsync.Map. The
// *RegionHeader returned by Header is that same live header.
type Reader struct {
	path string

	mu     sync.Mutex
	state  state
	fh     diskio.File[int64]
	header *RegionHeader

	tagTrees typedsync.Map[int, *nbt.Tag]
}

// NewReader returns a Reader for the region file at path. No I/O is
// performed until Read is called.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Read opens the backing file (if not already open) and parses its
// header. If lazy is false, every non-empty chunk's tag tree is also
// fetched and cached before Read returns.
func (r *Reader) Read(ctx context.Context, lazy bool) error {
	r.mu.Lock()
	if r.state == stateUnopened {
		fh, err := os.Open(r.path)
		if err != nil {
			r.mu.Unlock()
			return &IOError{Op: "opening region file", Err: err}
		}
		// Wrap the raw handle in a sector-granular block cache: the
		// header parse and the per-chunk length/type prefix reads
		// are many small reads clustered within the same 4096-byte
		// sectors, and this spares a syscall per read after the
		// first touch of a sector.
		r.fh = diskio.NewBufferedFile[int64](&diskio.OSFile[int64]{File: fh}, SectorSize, 32)
		header, err := readHeader(r.fh)
		if err != nil {
			_ = r.fh.Close()
			r.mu.Unlock()
			return err
		}
		r.header = header
		r.state = stateHeaderParsed
		dlog.Debugf(ctx, "region: parsed header for %s", r.path)
	}
	r.mu.Unlock()

	if lazy {
		return nil
	}

	occupied := r.header.Occupied()
	ctx = dlog.WithField(ctx, "region.file", filepath.Base(r.path))
	progress := textui.NewProgress[textui.Portion[int]](ctx, dlog.LogLevelInfo, textui.Tunable(1*time.Second))
	defer progress.Done()
	for i, xz := range occupied {
		if _, err := r.chunkTag(ctx, xz[0], xz[1]); err != nil {
			return err
		}
		progress.Set(textui.Portion[int]{N: i + 1, D: len(occupied)})
	}
	return nil
}

// Close closes the backing file handle, if open. A subsequent call to
// Read or any accessor re-opens it.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == stateUnopened || r.fh == nil {
		return nil
	}
	err := r.fh.Close()
	r.fh = nil
	r.state = stateUnopened
	return err
}

// ScanForChunkPayloads runs ScanForChunkPayloads (lib/region/recover.go)
// against the reader's backing file, triggering a lazy Read (so the
// file handle is open) if necessary.
func (r *Reader) ScanForChunkPayloads(ctx context.Context) ([]int64, error) {
	if err := r.Read(ctx, true); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return ScanForChunkPayloads(r.fh)
}

// Header returns the parsed sector index, triggering a lazy Read if
// necessary.
func (r *Reader) Header(ctx context.Context) (*RegionHeader, error) {
	if err := r.Read(ctx, true); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header, nil
}

// chunkTag returns the parsed tag tree for local chunk coordinates
// (x, z), fetching and decompressing it on first access.
func (r *Reader) chunkTag(ctx context.Context, x, z int) (*nbt.Tag, error) {
	if err := r.Read(ctx, true); err != nil {
		return nil, err
	}
	slot := z*RegionWidth + x

	if cached, ok := r.tagTrees.Load(slot); ok {
		return cached, nil
	}

	r.mu.Lock()
	ci, err := r.header.Get(x, z)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	if ci.Empty() {
		r.mu.Unlock()
		return nil, &ChunkEmptyError{X: x, Z: z}
	}
	ci, payloadOff, length, compression, err := r.readChunkPrefix(ci)
	fh := r.fh
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if compression != CompressionZLib {
		return nil, &UnsupportedCompressionError{Type: compression}
	}

	compressed := make([]byte, length-1)
	if _, err := fh.ReadAt(compressed, payloadOff); err != nil {
		return nil, &IOError{Op: "reading chunk payload", Err: err}
	}

	raw, err := inflate(compressed)
	if err != nil {
		return nil, &DecompressionError{Err: err}
	}

	tag, err := nbt.Parse(bytestream.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("region: parsing chunk (%d,%d): %w", x, z, err)
	}

	r.tagTrees.Store(slot, tag)
	r.mu.Lock()
	r.header.set(x, z, ci)
	r.mu.Unlock()
	dlog.Tracef(ctx, "region: materialised chunk (%d,%d) of %s", x, z, r.path)
	return tag, nil
}

// readChunkPrefix seeks to ci's recorded sector and reads the 4-byte
// length + 1-byte compression-type prefix, returning the updated
// ChunkInfo (with Offset rewritten to the first byte of the
// compressed payload) along with the same values unpacked for
// immediate use. Caller must hold r.mu.
func (r *Reader) readChunkPrefix(ci ChunkInfo) (_ ChunkInfo, payloadOffset int64, length int32, compression byte, err error) {
	sectorOffset := ci.Offset
	prefix := make([]byte, 5)
	if _, err := r.fh.ReadAt(prefix, sectorOffset); err != nil {
		return ChunkInfo{}, 0, 0, 0, &IOError{Op: "reading chunk length/type prefix", Err: err}
	}
	pr := bytestream.NewReader(prefix)
	length32, _ := pr.ReadU32() //nolint:errcheck // prefix is exactly 5 bytes, read above
	compressionByte, _ := pr.ReadU8()

	ci.Length = int32(length32)
	ci.Compression = compressionByte
	ci.Offset = sectorOffset + 5
	return ci, ci.Offset, ci.Length, ci.Compression, nil
}

func inflate(compressed []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// GetChunkAt resolves the palette-decoded block contents of local
// chunk coordinates (x, z) into a voxel.Chunk.
func (r *Reader) GetChunkAt(ctx context.Context, x, z int, opts voxel.DecodeOptions) (*voxel.Chunk, error) {
	tag, err := r.chunkTag(ctx, x, z)
	if err != nil {
		return nil, err
	}
	return voxel.DecodeChunk(ctx, tag, opts)
}

// Biomes returns the raw "Biomes" tag tree for local chunk
// coordinates (x, z), without palette decoding.
func (r *Reader) Biomes(ctx context.Context, x, z int) (*nbt.Tag, error) {
	return r.rawSubtag(ctx, x, z, "Biomes")
}

// Heightmaps returns the raw "Heightmaps" tag tree for local chunk
// coordinates (x, z).
func (r *Reader) Heightmaps(ctx context.Context, x, z int) (*nbt.Tag, error) {
	return r.rawSubtag(ctx, x, z, "Heightmaps")
}

// Blocks returns the raw "Sections" tag tree (the un-decoded palette
// data) for local chunk coordinates (x, z).
func (r *Reader) Blocks(ctx context.Context, x, z int) (*nbt.Tag, error) {
	return r.rawSubtag(ctx, x, z, "Sections")
}

func (r *Reader) rawSubtag(ctx context.Context, x, z int, name string) (*nbt.Tag, error) {
	root, err := r.chunkTag(ctx, x, z)
	if err != nil {
		return nil, err
	}
	if direct := root.GetSubtag(name); direct != nil {
		return direct, nil
	}
	matches := root.GetSubTagByName(name)
	if len(matches) == 0 {
		return nil, &MissingFieldError{Field: name}
	}
	return matches[0], nil
}

// MissingFieldError reports that a raw accessor's named tag was not
// present in the chunk's tag tree.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("region: chunk has no %q tag", e.Field)
}
