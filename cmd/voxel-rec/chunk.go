// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"bufio"
	"fmt"
	"strconv"

	"git.lukeshu.com/go/lowmemjson"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"git.lukeshu.com/voxel-rec/lib/voxel"
	"git.lukeshu.com/voxel-rec/lib/worldcache"
)

type chunkBlockJSON struct {
	ID string `json:"id"`
	X  int32  `json:"x"`
	Y  int32  `json:"y"`
	Z  int32  `json:"z"`
}

type chunkJSON struct {
	X      int32            `json:"x"`
	Z      int32            `json:"z"`
	Blocks []chunkBlockJSON `json:"blocks"`
}

func init() {
	var lenient bool
	cmd := cobra.Command{
		Use:   "chunk X Z",
		Short: "Dump a chunk's decoded blocks as JSON",
		Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(2)),
	}
	cmd.Flags().BoolVar(&lenient, "lenient", false, "skip out-of-range palette indices instead of failing")
	commands = append(commands, subcommand{
		Command: cmd,
		RunE: func(worldDir string, cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cx, err := strconv.ParseInt(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("X: %w", err)
			}
			cz, err := strconv.ParseInt(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("Z: %w", err)
			}

			reg := worldcache.NewRegistry(worldDir, 16, 256, voxel.DecodeOptions{Lenient: lenient})
			defer reg.Close() //nolint:errcheck // best-effort cleanup

			chunk, err := reg.GetChunk(ctx, int32(cx), int32(cz))
			if err != nil {
				return err
			}

			out := chunkJSON{X: chunk.Pos.X, Z: chunk.Pos.Z}
			chunk.All(func(b voxel.Block) {
				out.Blocks = append(out.Blocks, chunkBlockJSON{ID: b.ID, X: b.Pos.X, Y: b.Pos.Y, Z: b.Pos.Z})
			})

			w := bufio.NewWriter(cmd.OutOrStdout())
			defer w.Flush() //nolint:errcheck // best-effort flush
			re := lowmemjson.NewReEncoder(w, lowmemjson.ReEncoderConfig{
				Indent:                "\t",
				ForceTrailingNewlines: true,
			})
			return lowmemjson.NewEncoder(re).Encode(out)
		},
	})
}
