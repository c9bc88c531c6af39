// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package region_test

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/datawire/dlib/dlog"
	"github.com/stretchr/testify/require"

	"git.lukeshu.com/voxel-rec/lib/region"
	"git.lukeshu.com/voxel-rec/lib/voxel"
)

// buildChunkNBT builds the decompressed NBT payload for a trivial
// one-section chunk at chunk coordinate (0, 0) with every block
// "minecraft:stone" (palette size 1, so bpi clamps to 4, and every
// packed nibble is 0, the only valid index into a one-entry palette).
func buildChunkNBT(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer

	writeHeader := func(kind byte, name string) {
		buf.WriteByte(kind)
		_ = binary.Write(&buf, binary.BigEndian, uint16(len(name)))
		buf.WriteString(name)
	}

	writeHeader(10, "") // root Compound

	writeHeader(3, "xPos")
	_ = binary.Write(&buf, binary.BigEndian, int32(0))
	writeHeader(3, "zPos")
	_ = binary.Write(&buf, binary.BigEndian, int32(0))

	writeHeader(9, "Sections") // List
	buf.WriteByte(10)          // element kind: Compound
	_ = binary.Write(&buf, binary.BigEndian, int32(1))

	// one Compound element of the list: no name/type header for list elements.
	writeHeader(1, "Y")
	buf.WriteByte(0)

	writeHeader(12, "BlockStates") // LongArray
	// bpi clamps to 4, so 16 elements per word: 256 words cover
	// the full 4096-block sub-chunk.
	_ = binary.Write(&buf, binary.BigEndian, int32(256))
	for i := 0; i < 256; i++ {
		_ = binary.Write(&buf, binary.BigEndian, int64(0))
	}

	writeHeader(9, "Palette") // List
	buf.WriteByte(10)         // Compound
	_ = binary.Write(&buf, binary.BigEndian, int32(1))
	// one Compound element: {Name: "minecraft:stone"}
	writeHeader(8, "Name")
	_ = binary.Write(&buf, binary.BigEndian, uint16(len("minecraft:stone")))
	buf.WriteString("minecraft:stone")
	buf.WriteByte(0) // End of palette entry Compound

	buf.WriteByte(0) // End of Sections element Compound
	buf.WriteByte(0) // End of root Compound

	return buf.Bytes()
}

func zlibCompress(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// writeRegionFile builds a minimal .mca file with exactly one chunk at
// local (0,0), sector 2, using the given compression type and
// (already possibly compressed) payload.
func writeRegionFile(t *testing.T, compressionType byte, payload []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "r.0.0.mca")

	var file bytes.Buffer
	locations := make([]byte, region.SectorSize)
	timestamps := make([]byte, region.SectorSize)
	binary.BigEndian.PutUint32(locations[0:4], (2<<8)|1) // sector 2, 1 sector (unchecked)
	file.Write(locations)
	file.Write(timestamps)

	var chunkData bytes.Buffer
	_ = binary.Write(&chunkData, binary.BigEndian, uint32(len(payload)+1))
	chunkData.WriteByte(compressionType)
	chunkData.Write(payload)
	// pad to sector boundary
	for chunkData.Len()%region.SectorSize != 0 {
		chunkData.WriteByte(0)
	}
	file.Write(chunkData.Bytes())

	require.NoError(t, os.WriteFile(path, file.Bytes(), 0o644))
	return path
}

func TestReaderHeaderParse(t *testing.T) {
	ctx := dlog.NewTestContext(t, false)
	raw := buildChunkNBT(t)
	path := writeRegionFile(t, region.CompressionZLib, zlibCompress(t, raw))

	r := region.NewReader(path)
	require.NoError(t, r.Read(ctx, true))

	hdr, err := r.Header(ctx)
	require.NoError(t, err)
	ci, err := hdr.Get(0, 0)
	require.NoError(t, err)
	require.True(t, ci.Filled)
	require.Equal(t, int64(2*region.SectorSize), ci.Offset) // lazily parsed: still the raw sector offset
	require.Equal(t, uint8(1), ci.SectorCount)

	stats := hdr.Stats()
	require.Equal(t, 1, stats.OccupiedSlots)
	require.Equal(t, int64(1), stats.ReservedSectors)
}

func TestReaderGetChunkEmpty(t *testing.T) {
	ctx := dlog.NewTestContext(t, false)
	raw := buildChunkNBT(t)
	path := writeRegionFile(t, region.CompressionZLib, zlibCompress(t, raw))

	r := region.NewReader(path)
	_, err := r.GetChunkAt(ctx, 5, 0, voxel.DecodeOptions{})
	require.Error(t, err)
	require.ErrorIs(t, err, region.ErrChunkEmpty)
}

func TestReaderGetChunkGZIPUnsupported(t *testing.T) {
	ctx := dlog.NewTestContext(t, false)
	raw := buildChunkNBT(t)
	path := writeRegionFile(t, region.CompressionGZip, raw)

	r := region.NewReader(path)
	_, err := r.GetChunkAt(ctx, 0, 0, voxel.DecodeOptions{})
	require.Error(t, err)
	var unsupported *region.UnsupportedCompressionError
	require.ErrorAs(t, err, &unsupported)
}

func TestReaderGetChunkDecodesBlocks(t *testing.T) {
	ctx := dlog.NewTestContext(t, false)
	raw := buildChunkNBT(t)
	path := writeRegionFile(t, region.CompressionZLib, zlibCompress(t, raw))

	r := region.NewReader(path)
	chunk, err := r.GetChunkAt(ctx, 0, 0, voxel.DecodeOptions{})
	require.NoError(t, err)
	require.Equal(t, 16*16*16, chunk.Len())
	b, ok := chunk.Get(voxel.BlockPos{X: 0, Y: 0, Z: 0})
	require.True(t, ok)
	require.Equal(t, "stone", b.ID)
}

func TestReaderOffsetReplacedAfterFetch(t *testing.T) {
	ctx := dlog.NewTestContext(t, false)
	raw := buildChunkNBT(t)
	path := writeRegionFile(t, region.CompressionZLib, zlibCompress(t, raw))

	r := region.NewReader(path)
	_, err := r.GetChunkAt(ctx, 0, 0, voxel.DecodeOptions{})
	require.NoError(t, err)

	hdr, err := r.Header(ctx)
	require.NoError(t, err)
	ci, err := hdr.Get(0, 0)
	require.NoError(t, err)
	// sector 2 (byte 8192) + 5-byte length/type prefix.
	require.Equal(t, int64(2*region.SectorSize+5), ci.Offset)
}

func TestReaderBiomesMissing(t *testing.T) {
	ctx := dlog.NewTestContext(t, false)
	raw := buildChunkNBT(t)
	path := writeRegionFile(t, region.CompressionZLib, zlibCompress(t, raw))

	r := region.NewReader(path)
	_, err := r.Biomes(ctx, 0, 0)
	require.Error(t, err)
}

func TestReaderScanForChunkPayloads(t *testing.T) {
	ctx := dlog.NewTestContext(t, false)
	raw := buildChunkNBT(t)
	compressed := zlibCompress(t, raw)
	path := writeRegionFile(t, region.CompressionZLib, compressed)

	r := region.NewReader(path)
	offsets, err := r.ScanForChunkPayloads(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, offsets)
	// The payload starts right after the 5-byte length/type prefix
	// at sector 2; the raw scan should find it without consulting
	// the header at all.
	require.Contains(t, offsets, int64(2*region.SectorSize+5))
}

func TestReaderEagerReadFetchesChunks(t *testing.T) {
	ctx := dlog.NewTestContext(t, false)
	raw := buildChunkNBT(t)
	path := writeRegionFile(t, region.CompressionZLib, zlibCompress(t, raw))

	r := region.NewReader(path)
	require.NoError(t, r.Read(ctx, false))

	hdr, err := r.Header(ctx)
	require.NoError(t, err)
	ci, err := hdr.Get(0, 0)
	require.NoError(t, err)
	// Eager read fetches every occupied chunk up front, so the
	// offset is already rewritten past the length/type prefix.
	require.Equal(t, int64(2*region.SectorSize+5), ci.Offset)
}
