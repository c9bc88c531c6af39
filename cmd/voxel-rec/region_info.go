// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"git.lukeshu.com/voxel-rec/lib/region"
	"git.lukeshu.com/voxel-rec/lib/textui"
)

func init() {
	var recover_ bool
	cmd := cobra.Command{
		Use:   "region-info RX RZ",
		Short: "Print a region file's header occupancy",
		Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(2)),
	}
	cmd.Flags().BoolVar(&recover_, "recover", false, "also scan the raw file for zlib stream magic bytes, for a header that can't be trusted")
	commands = append(commands, subcommand{
		Command: cmd,
		RunE: func(worldDir string, cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rx, err := strconv.ParseInt(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("RX: %w", err)
			}
			rz, err := strconv.ParseInt(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("RZ: %w", err)
			}

			path := filepath.Join(worldDir, region.Filename(int32(rx), int32(rz)))
			r := region.NewReader(path)
			if err := r.Read(ctx, true); err != nil {
				return err
			}
			defer r.Close() //nolint:errcheck // best-effort cleanup

			hdr, err := r.Header(ctx)
			if err != nil {
				return err
			}
			stats := hdr.Stats()
			textui.Fprintf(cmd.OutOrStdout(), "%d chunks present, %d sectors reserved:\n",
				stats.OccupiedSlots, stats.ReservedSectors)
			for _, xz := range hdr.Occupied() {
				ci, err := hdr.Get(xz[0], xz[1])
				if err != nil {
					return err
				}
				textui.Fprintf(cmd.OutOrStdout(), "  (%d,%d) offset=%d sectors=%d modtime=%d\n",
					xz[0], xz[1], ci.Offset, ci.SectorCount, ci.ModTime)
			}

			if recover_ {
				offsets, err := r.ScanForChunkPayloads(ctx)
				if err != nil {
					return err
				}
				textui.Fprintf(cmd.OutOrStdout(), "%d candidate zlib streams found by raw scan:\n", len(offsets))
				for _, off := range offsets {
					textui.Fprintf(cmd.OutOrStdout(), "  offset=%d\n", off)
				}
			}
			return nil
		},
	})
}
