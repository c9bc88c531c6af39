// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package region

import (
	"fmt"

	"git.lukeshu.com/voxel-rec/lib/bytestream"
	"git.lukeshu.com/voxel-rec/lib/diskio"
)

const (
	// HeaderSize is the fixed 8 KiB (two 4 KiB sectors) header:
	// a 1024-entry sector index followed by a 1024-entry
	// timestamp table.
	HeaderSize = 2 * SectorSize
	// SectorSize is the region file's sector-granularity alignment unit.
	SectorSize = 4096
	// RegionWidth is the number of chunks along one axis of a region.
	RegionWidth = 32
	// ChunkSlots is the total number of chunk slots in a region (32x32).
	ChunkSlots = RegionWidth * RegionWidth

	// CompressionGZip and CompressionZLib are the two defined
	// compression-type byte values; only ZLib is supported.
	CompressionGZip byte = 1
	CompressionZLib byte = 2
)

// ChunkInfo is one entry of a RegionHeader: where a chunk's
// compressed payload lives and how it's encoded. When the chunk is
// first fetched, readChunkPrefix reads its length/compression prefix
// and Offset is overwritten to point past that 5-byte prefix, at the
// first byte of the compressed payload itself.
type ChunkInfo struct {
	// Offset starts out (once readHeader has run) as the raw
	// sector-granular byte offset (sector*4096) from the header's
	// sector index. The first time this chunk's length/type
	// prefix is actually read, Offset is replaced with the byte
	// position immediately past that 5-byte prefix -- the first
	// byte of the compressed payload.
	Offset      int64
	Length      int32 // the prefix's length field: the compressed payload plus the 1-byte compression type
	SectorCount uint8 // reserved sector count from the header's low 8 bits
	Compression byte
	ModTime     uint32
	Filled      bool
}

// Empty reports whether this slot's header entry was zero.
func (ci ChunkInfo) Empty() bool { return !ci.Filled }

// RegionHeader is the parsed 1024-entry sector index, indexed by
// z*32+x for chunk-within-region coordinates (x, z) in [0, 32).
type RegionHeader struct {
	entries [ChunkSlots]ChunkInfo
}

// Get returns the ChunkInfo for local chunk coordinates (x, z), each
// in [0, 32).
func (h *RegionHeader) Get(x, z int) (ChunkInfo, error) {
	if x < 0 || x >= RegionWidth {
		return ChunkInfo{}, &OutOfRangeError{What: "chunk x", Value: x}
	}
	if z < 0 || z >= RegionWidth {
		return ChunkInfo{}, &OutOfRangeError{What: "chunk z", Value: z}
	}
	return h.entries[z*RegionWidth+x], nil
}

func (h *RegionHeader) set(x, z int, ci ChunkInfo) { h.entries[z*RegionWidth+x] = ci }

// Occupied returns the local (x, z) coordinates of every non-empty
// chunk slot, in slot order.
func (h *RegionHeader) Occupied() [][2]int {
	var out [][2]int
	for z := 0; z < RegionWidth; z++ {
		for x := 0; x < RegionWidth; x++ {
			if h.entries[z*RegionWidth+x].Filled {
				out = append(out, [2]int{x, z})
			}
		}
	}
	return out
}

// readSectorIndex parses bytes [0, 4096) of the header: 1024
// big-endian u32 entries, high 24 bits sector number, low 8 bits
// reserved sector count. The sector number is replaced by the
// post-prefix payload offset once the chunk is read.
func readSectorIndex(r *bytestream.Reader, h *RegionHeader) error {
	for z := 0; z < RegionWidth; z++ {
		for x := 0; x < RegionWidth; x++ {
			raw, err := r.ReadU32()
			if err != nil {
				return fmt.Errorf("region: reading sector index entry (%d,%d): %w", x, z, err)
			}
			if raw == 0 {
				continue
			}
			sector := int64(raw >> 8)
			h.set(x, z, ChunkInfo{
				Filled:      true,
				Offset:      sector * SectorSize,
				SectorCount: uint8(raw & 0xff),
			})
		}
	}
	return nil
}

// Stats summarises the header: how many of the 1024 slots are
// populated, and how many 4096-byte sectors their payloads reserve.
type Stats struct {
	OccupiedSlots   int
	ReservedSectors int64
}

// Stats returns a read-only occupancy summary of the header.
func (h *RegionHeader) Stats() Stats {
	var s Stats
	for i := range h.entries {
		if !h.entries[i].Filled {
			continue
		}
		s.OccupiedSlots++
		s.ReservedSectors += int64(h.entries[i].SectorCount)
	}
	return s
}

// readTimestamps parses bytes [4096, 8192) of the header: 1024
// big-endian u32 last-modified timestamps.
func readTimestamps(r *bytestream.Reader, h *RegionHeader) error {
	for z := 0; z < RegionWidth; z++ {
		for x := 0; x < RegionWidth; x++ {
			ts, err := r.ReadU32()
			if err != nil {
				return fmt.Errorf("region: reading timestamp entry (%d,%d): %w", x, z, err)
			}
			ci, _ := h.Get(x, z)
			ci.ModTime = ts
			h.set(x, z, ci)
		}
	}
	return nil
}

// readHeader reads and parses the first 8 KiB of fh.
func readHeader(fh diskio.File[int64]) (*RegionHeader, error) {
	if fh.Size() < HeaderSize {
		return nil, &HeaderTruncatedError{Size: int64(fh.Size())}
	}
	buf := make([]byte, HeaderSize)
	if _, err := fh.ReadAt(buf, 0); err != nil {
		return nil, &IOError{Op: "reading header", Err: err}
	}
	r := bytestream.NewReader(buf)

	h := &RegionHeader{}
	if err := readSectorIndex(r, h); err != nil {
		return nil, err
	}
	if err := readTimestamps(r, h); err != nil {
		return nil, err
	}
	return h, nil
}
