// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package diskio

import (
	"io"
)

// File is a random-access, byte-addressable file: the common surface
// region.Reader, its buffered and stateful wrappers, and the raw
// recovery scan in lib/region all need. Voxel-rec never writes a
// region file back, so this is read-only; there is no WriteAt.
type File[A ~int64] interface {
	Name() string
	Size() A
	Close() error
	ReadAt(p []byte, off A) (n int, err error)
}

type assertAddr int64

var _ io.ReaderAt = File[int64](nil)
