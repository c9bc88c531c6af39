// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package worldcache

import "fmt"

// RegionOpenError wraps a failure to open or header-parse the region
// file backing a requested chunk.
type RegionOpenError struct {
	RX, RZ int32
	Err    error
}

func (e *RegionOpenError) Error() string {
	return fmt.Sprintf("worldcache: opening region (%d,%d): %v", e.RX, e.RZ, e.Err)
}

func (e *RegionOpenError) Unwrap() error { return e.Err }
