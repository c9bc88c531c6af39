// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"git.lukeshu.com/voxel-rec/lib/voxel"
	"git.lukeshu.com/voxel-rec/lib/voxelfs"
)

func init() {
	var lenient bool
	cmd := cobra.Command{
		Use:   "mount MOUNTPOINT",
		Short: "Mount the world's region files read-only over FUSE",
		Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
	}
	cmd.Flags().BoolVar(&lenient, "lenient", false, "skip out-of-range palette indices instead of failing")
	commands = append(commands, subcommand{
		Command: cmd,
		RunE: func(worldDir string, cmd *cobra.Command, args []string) error {
			return voxelfs.MountRO(cmd.Context(), worldDir, args[0], voxel.DecodeOptions{Lenient: lenient})
		},
	})
}
