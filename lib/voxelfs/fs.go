// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package voxelfs mounts a directory of region files read-only over
// FUSE, exposing one directory per region file and one JSON-encoded
// chunk dump per occupied chunk slot within it.
package voxelfs

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"git.lukeshu.com/go/lowmemjson"
	"git.lukeshu.com/go/typedsync"
	"github.com/datawire/dlib/dcontext"
	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"
	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"

	"git.lukeshu.com/voxel-rec/lib/region"
	"git.lukeshu.com/voxel-rec/lib/textui"
	"git.lukeshu.com/voxel-rec/lib/voxel"
)

// MountRO mounts the region files in dir read-only at mountpoint,
// blocking until ctx is cancelled and the filesystem is unmounted.
func MountRO(ctx context.Context, dir, mountpoint string, opts voxel.DecodeOptions) error {
	fs := &fileSystem{
		dir:  dir,
		opts: opts,
	}
	fs.nodes.Store(fuseops.RootInodeID, &node{kind: kindRoot})

	cfg := &fuse.MountConfig{
		FSName:   "voxelfs",
		Subtype:  "voxel-region",
		ReadOnly: true,
	}
	return fuseMount(ctx, mountpoint, fuseutil.NewFileSystemServer(fs), cfg)
}

// fuseMount runs server under mountpoint until ctx is cancelled,
// retrying Unmount against a possibly-busy filesystem.
func fuseMount(ctx context.Context, mountpoint string, server fuse.Server, cfg *fuse.MountConfig) error {
	grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{
		ShutdownOnNonError: true,
	})
	grp.Go("memstats", func(ctx context.Context) error {
		var mem textui.LiveMemUse
		ticker := time.NewTicker(textui.Tunable(30 * time.Second))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				dlog.Debugf(ctx, "voxelfs: memory use: %s", mem.String())
			}
		}
	})
	mounted := uint32(1)
	grp.Go("unmount", func(ctx context.Context) error {
		<-ctx.Done()
		var err error
		var gotNil bool
		for atomic.LoadUint32(&mounted) != 0 {
			if _err := fuse.Unmount(mountpoint); _err == nil {
				gotNil = true
			} else if !gotNil {
				err = _err
			}
		}
		if gotNil {
			return nil
		}
		return err
	})
	grp.Go("mount", func(ctx context.Context) error {
		defer atomic.StoreUint32(&mounted, 0)
		cfg.OpContext = ctx
		cfg.ErrorLogger = dlog.StdLogger(ctx, dlog.LogLevelError)
		cfg.DebugLogger = dlog.StdLogger(ctx, dlog.LogLevelDebug)
		mountHandle, err := fuse.Mount(mountpoint, server, cfg)
		if err != nil {
			return err
		}
		dlog.Infof(ctx, "voxelfs: mounted %q", mountpoint)
		return mountHandle.Join(dcontext.HardContext(ctx))
	})
	return grp.Wait()
}

type nodeKind int

const (
	kindRoot nodeKind = iota
	kindRegionDir
	kindChunkFile
)

// node is the in-memory record behind an inode: either the
// filesystem root, a region file's directory, or one chunk's JSON
// dump.
type node struct {
	kind nodeKind

	// valid for kindRegionDir and kindChunkFile
	rx, rz int32
	// valid for kindChunkFile
	cx, cz int

	once sync.Once
	data []byte
	err  error
}

func regionDirName(rx, rz int32) string { return fmt.Sprintf("%d.%d", rx, rz) }

func chunkFileName(cx, cz int) string { return fmt.Sprintf("%d.%d.json", cx, cz) }

type dirHandle struct {
	entries []fuseutil.Dirent
}

type fileSystem struct {
	fuseutil.NotImplementedFileSystem

	dir  string
	opts voxel.DecodeOptions

	lastInode  uint64
	lastHandle uint64

	nodes typedsync.Map[fuseops.InodeID, *node]

	inodesMu sync.Mutex
	byPath   map[string]fuseops.InodeID

	regionMu      sync.Mutex
	regionReaders map[[2]int32]*region.Reader

	dirHandles  typedsync.Map[fuseops.HandleID, *dirHandle]
	fileHandles typedsync.Map[fuseops.HandleID, []byte]
}

// pathKey identifies a node for inode-stability purposes: repeat
// lookups of the same region/chunk must return the same inode number.
func pathKey(n *node) string {
	switch n.kind {
	case kindRegionDir:
		return fmt.Sprintf("d:%d:%d", n.rx, n.rz)
	case kindChunkFile:
		return fmt.Sprintf("f:%d:%d:%d:%d", n.rx, n.rz, n.cx, n.cz)
	default:
		return "root"
	}
}

// newInode returns the stable inode ID for n, allocating one on first
// sight of its path key.
func (fs *fileSystem) newInode(n *node) fuseops.InodeID {
	key := pathKey(n)

	fs.inodesMu.Lock()
	defer fs.inodesMu.Unlock()
	if fs.byPath == nil {
		fs.byPath = make(map[string]fuseops.InodeID)
	}
	if id, ok := fs.byPath[key]; ok {
		return id
	}
	id := fuseops.InodeID(atomic.AddUint64(&fs.lastInode, 1) + 1) // +1: inode 1 is reserved for root
	fs.byPath[key] = id
	fs.nodes.Store(id, n)
	return id
}

func (fs *fileSystem) newHandle() fuseops.HandleID {
	return fuseops.HandleID(atomic.AddUint64(&fs.lastHandle, 1))
}

func (fs *fileSystem) reader(ctx context.Context, rx, rz int32) (*region.Reader, error) {
	fs.regionMu.Lock()
	defer fs.regionMu.Unlock()
	if fs.regionReaders == nil {
		fs.regionReaders = make(map[[2]int32]*region.Reader)
	}
	key := [2]int32{rx, rz}
	if r, ok := fs.regionReaders[key]; ok {
		return r, nil
	}
	path := fs.dir + "/" + region.Filename(rx, rz)
	r := region.NewReader(path)
	if err := r.Read(ctx, true); err != nil {
		return nil, err
	}
	fs.regionReaders[key] = r
	return r, nil
}

// chunkPayload is the on-disk JSON shape of a dumped chunk.
type chunkPayload struct {
	X      int32        `json:"x"`
	Z      int32        `json:"z"`
	Blocks []blockEntry `json:"blocks"`
}

type blockEntry struct {
	ID string `json:"id"`
	X  int32  `json:"x"`
	Y  int32  `json:"y"`
	Z  int32  `json:"z"`
}

func (fs *fileSystem) materializeChunk(ctx context.Context, n *node) ([]byte, error) {
	n.once.Do(func() {
		r, err := fs.reader(ctx, n.rx, n.rz)
		if err != nil {
			n.err = err
			return
		}
		chunk, err := r.GetChunkAt(ctx, n.cx, n.cz, fs.opts)
		if err != nil {
			n.err = err
			return
		}
		payload := chunkPayload{X: chunk.Pos.X, Z: chunk.Pos.Z}
		chunk.All(func(b voxel.Block) {
			payload.Blocks = append(payload.Blocks, blockEntry{ID: b.ID, X: b.Pos.X, Y: b.Pos.Y, Z: b.Pos.Z})
		})
		sort.Slice(payload.Blocks, func(i, j int) bool {
			a, b := payload.Blocks[i], payload.Blocks[j]
			if a.Y != b.Y {
				return a.Y < b.Y
			}
			if a.Z != b.Z {
				return a.Z < b.Z
			}
			return a.X < b.X
		})
		var buf bytes.Buffer
		re := lowmemjson.NewReEncoder(&buf, lowmemjson.ReEncoderConfig{
			Indent:                "\t",
			ForceTrailingNewlines: true,
		})
		n.err = lowmemjson.NewEncoder(re).Encode(payload)
		n.data = buf.Bytes()
	})
	return n.data, n.err
}
