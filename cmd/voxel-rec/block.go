// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"strconv"

	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"git.lukeshu.com/voxel-rec/lib/textui"
	"git.lukeshu.com/voxel-rec/lib/voxel"
	"git.lukeshu.com/voxel-rec/lib/worldcache"
)

func init() {
	commands = append(commands, subcommand{
		Command: cobra.Command{
			Use:   "block X Y Z",
			Short: "Print the block at an absolute world position",
			Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(3)),
		},
		RunE: func(worldDir string, cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			x, err := strconv.ParseInt(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("X: %w", err)
			}
			y, err := strconv.ParseInt(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("Y: %w", err)
			}
			z, err := strconv.ParseInt(args[2], 10, 32)
			if err != nil {
				return fmt.Errorf("Z: %w", err)
			}

			reg := worldcache.NewRegistry(worldDir, 16, 256, voxel.DecodeOptions{})
			defer reg.Close() //nolint:errcheck // best-effort cleanup

			block, ok, err := reg.GetBlock(ctx, int32(x), int32(y), int32(z))
			if err != nil {
				return err
			}
			if !ok {
				textui.Fprintf(cmd.OutOrStdout(), "(%d,%d,%d): air\n", x, y, z)
				return nil
			}
			textui.Fprintf(cmd.OutOrStdout(), "(%d,%d,%d): %s\n", x, y, z, block.ID)
			return nil
		},
	})
}
