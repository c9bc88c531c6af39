// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package region

import (
	"sort"

	"git.lukeshu.com/voxel-rec/lib/diskio"
)

// zlibMagics are the CMF/FLG byte pairs a compliant zlib stream may
// open with for the 32K-window/deflate combination chunk payloads
// are written with. CMF is
// always 0x78 for that window size; FLG varies with the compression
// level and whether a preset dictionary is used (chunk payloads never
// use one), leaving four FLG values seen in the wild.
var zlibMagics = [][]byte{
	{0x78, 0x01},
	{0x78, 0x5e},
	{0x78, 0x9c},
	{0x78, 0xda},
}

// ScanForChunkPayloads scans fh's entire contents for byte offsets
// that look like the start of a zlib stream, using the
// Knuth-Morris-Pratt search in lib/diskio. This is a recovery path
// for a region file whose 8 KiB header (RegionHeader) is itself
// damaged or absent: rather than trusting the sector index, callers
// can re-derive candidate chunk-payload offsets directly from the
// compressed bytes and attempt decompression-and-parse at each one,
// discarding false positives (a payload offset that doesn't actually
// decompress). Offsets are returned sorted ascending, deduplicated.
//
// This does not replace RegionHeader-driven reads; it exists for
// files a HeaderTruncatedError or IOError would otherwise leave
// unrecoverable.
func ScanForChunkPayloads(fh diskio.File[int64]) ([]int64, error) {
	seen := make(map[int64]struct{})
	var all []int64
	for _, magic := range zlibMagics {
		sf := diskio.NewStatefulFile[int64](fh)
		matches, err := diskio.FindAll(sf, magic)
		if err != nil {
			return nil, &IOError{Op: "scanning for chunk payloads", Err: err}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			all = append(all, m)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return all, nil
}
