// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package voxelfs

import (
	"context"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"

	"git.lukeshu.com/voxel-rec/lib/region"
)

func (fs *fileSystem) StatFS(_ context.Context, op *fuseops.StatFSOp) error {
	op.BlockSize = 4096
	op.IoSize = 4096
	return nil
}

// regionFiles lists the "r.<rx>.<rz>.mca" basenames present in fs.dir.
func (fs *fileSystem) regionFiles() ([]string, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, _, err := region.ParseFilename(e.Name()); err == nil {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func (fs *fileSystem) lookupRootChild(name string) (*node, error) {
	parts := strings.SplitN(name, ".", 2)
	if len(parts) != 2 {
		return nil, syscall.ENOENT
	}
	rx, err := strconv.ParseInt(parts[0], 10, 32)
	if err != nil {
		return nil, syscall.ENOENT
	}
	rz, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil {
		return nil, syscall.ENOENT
	}
	if _, err := os.Stat(fs.dir + "/" + region.Filename(int32(rx), int32(rz))); err != nil {
		return nil, syscall.ENOENT
	}
	return &node{kind: kindRegionDir, rx: int32(rx), rz: int32(rz)}, nil
}

func (fs *fileSystem) lookupRegionChild(ctx context.Context, parent *node, name string) (*node, error) {
	base := strings.TrimSuffix(name, ".json")
	if base == name {
		return nil, syscall.ENOENT
	}
	parts := strings.SplitN(base, ".", 2)
	if len(parts) != 2 {
		return nil, syscall.ENOENT
	}
	cx, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, syscall.ENOENT
	}
	cz, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, syscall.ENOENT
	}
	r, err := fs.reader(ctx, parent.rx, parent.rz)
	if err != nil {
		return nil, err
	}
	hdr, err := r.Header(ctx)
	if err != nil {
		return nil, err
	}
	ci, err := hdr.Get(cx, cz)
	if err != nil || ci.Empty() {
		return nil, syscall.ENOENT
	}
	return &node{kind: kindChunkFile, rx: parent.rx, rz: parent.rz, cx: cx, cz: cz}, nil
}

func (fs *fileSystem) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) error {
	parent, ok := fs.nodes.Load(op.Parent)
	if !ok {
		return syscall.ENOENT
	}

	var child *node
	var err error
	switch parent.kind {
	case kindRoot:
		child, err = fs.lookupRootChild(op.Name)
	case kindRegionDir:
		child, err = fs.lookupRegionChild(ctx, parent, op.Name)
	default:
		return syscall.ENOTDIR
	}
	if err != nil {
		if errno, ok := err.(syscall.Errno); ok { //nolint:errorlint // syscall.Errno is a plain value type
			return errno
		}
		return syscall.EIO
	}

	id := fs.newInode(child)
	op.Entry = fuseops.ChildInodeEntry{
		Child:      id,
		Attributes: fs.attrsFor(ctx, child),
	}
	return nil
}

func (fs *fileSystem) attrsFor(ctx context.Context, n *node) fuseops.InodeAttributes {
	switch n.kind {
	case kindRoot, kindRegionDir:
		return fuseops.InodeAttributes{Nlink: 1, Mode: uint32(syscall.S_IFDIR | 0o555)}
	default:
		size := uint64(0)
		if data, err := fs.materializeChunk(ctx, n); err == nil {
			size = uint64(len(data))
		}
		return fuseops.InodeAttributes{Nlink: 1, Mode: uint32(syscall.S_IFREG | 0o444), Size: size}
	}
}

func (fs *fileSystem) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) error {
	n, ok := fs.nodes.Load(op.Inode)
	if !ok {
		return syscall.ENOENT
	}
	op.Attributes = fs.attrsFor(ctx, n)
	return nil
}

func (fs *fileSystem) buildDirents(ctx context.Context, n *node) ([]fuseutil.Dirent, error) {
	switch n.kind {
	case kindRoot:
		names, err := fs.regionFiles()
		if err != nil {
			return nil, err
		}
		var out []fuseutil.Dirent
		for i, name := range names {
			rx, rz, _ := region.ParseFilename(name)
			out = append(out, fuseutil.Dirent{
				Offset: fuseops.DirOffset(i + 1),
				Inode:  fs.newInode(&node{kind: kindRegionDir, rx: rx, rz: rz}),
				Name:   regionDirName(rx, rz),
				Type:   fuseutil.DT_Directory,
			})
		}
		return out, nil
	case kindRegionDir:
		r, err := fs.reader(ctx, n.rx, n.rz)
		if err != nil {
			return nil, err
		}
		hdr, err := r.Header(ctx)
		if err != nil {
			return nil, err
		}
		var out []fuseutil.Dirent
		for i, xz := range hdr.Occupied() {
			out = append(out, fuseutil.Dirent{
				Offset: fuseops.DirOffset(i + 1),
				Inode:  fs.newInode(&node{kind: kindChunkFile, rx: n.rx, rz: n.rz, cx: xz[0], cz: xz[1]}),
				Name:   chunkFileName(xz[0], xz[1]),
				Type:   fuseutil.DT_File,
			})
		}
		return out, nil
	default:
		return nil, syscall.ENOTDIR
	}
}

func (fs *fileSystem) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) error {
	n, ok := fs.nodes.Load(op.Inode)
	if !ok {
		return syscall.ENOENT
	}
	entries, err := fs.buildDirents(ctx, n)
	if err != nil {
		return err
	}
	handle := fs.newHandle()
	fs.dirHandles.Store(handle, &dirHandle{entries: entries})
	op.Handle = handle
	return nil
}

func (fs *fileSystem) ReadDir(_ context.Context, op *fuseops.ReadDirOp) error {
	dh, ok := fs.dirHandles.Load(op.Handle)
	if !ok {
		return syscall.EBADF
	}
	for _, entry := range dh.entries {
		if int64(entry.Offset) <= int64(op.Offset) {
			continue
		}
		n := fuseutil.WriteDirent(op.Dst[op.BytesRead:], entry)
		if n == 0 {
			break
		}
		op.BytesRead += n
	}
	return nil
}

func (fs *fileSystem) ReleaseDirHandle(_ context.Context, op *fuseops.ReleaseDirHandleOp) error {
	_, ok := fs.dirHandles.LoadAndDelete(op.Handle)
	if !ok {
		return syscall.EBADF
	}
	return nil
}

func (fs *fileSystem) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) error {
	n, ok := fs.nodes.Load(op.Inode)
	if !ok {
		return syscall.ENOENT
	}
	if n.kind != kindChunkFile {
		return syscall.EISDIR
	}
	data, err := fs.materializeChunk(ctx, n)
	if err != nil {
		return err
	}
	handle := fs.newHandle()
	fs.fileHandles.Store(handle, data)
	op.Handle = handle
	op.KeepPageCache = true
	return nil
}

func (fs *fileSystem) ReadFile(_ context.Context, op *fuseops.ReadFileOp) error {
	data, ok := fs.fileHandles.Load(op.Handle)
	if !ok {
		return syscall.EBADF
	}
	if op.Offset >= int64(len(data)) {
		op.BytesRead = 0
		return nil
	}
	var dst []byte
	if op.Dst != nil {
		dst = op.Dst
	} else {
		dst = make([]byte, op.Size)
		op.Data = [][]byte{dst}
	}
	op.BytesRead = copy(dst, data[op.Offset:])
	return nil
}

func (fs *fileSystem) ReleaseFileHandle(_ context.Context, op *fuseops.ReleaseFileHandleOp) error {
	_, ok := fs.fileHandles.LoadAndDelete(op.Handle)
	if !ok {
		return syscall.EBADF
	}
	return nil
}

func (*fileSystem) Destroy() {}
