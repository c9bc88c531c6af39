// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package region

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Filename builds the "r.<rx>.<rz>.mca" filename for a region
// coordinate.
func Filename(rx, rz int32) string {
	return fmt.Sprintf("r.%d.%d.mca", rx, rz)
}

// ParseFilename parses the region coordinates out of a region
// filename of the form "r.<rx>.<rz>.mca" (the base name; any
// directory components are ignored). It fails with
// *MalformedFilenameError for anything else.
func ParseFilename(name string) (rx, rz int32, err error) {
	base := filepath.Base(name)
	parts := strings.Split(base, ".")
	if len(parts) != 4 || parts[0] != "r" || parts[3] != "mca" {
		return 0, 0, &MalformedFilenameError{Filename: name}
	}
	x, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil {
		return 0, 0, &MalformedFilenameError{Filename: name}
	}
	z, err := strconv.ParseInt(parts[2], 10, 32)
	if err != nil {
		return 0, 0, &MalformedFilenameError{Filename: name}
	}
	return int32(x), int32(z), nil
}
