// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

package fuseadapter

import (
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/coldbrew-systems/memfuse/lib/vfs"
)

// blockSize is the synthetic block size used to compute st_blocks
// from content length, matching common in-memory filesystem practice.
const blockSize = 512

// typeBits returns the S_IFxxx bits for a node kind.
func typeBits(kind vfs.Kind) uint32 {
	switch kind {
	case vfs.KindDir:
		return syscall.S_IFDIR
	case vfs.KindSymlink:
		return syscall.S_IFLNK
	default:
		return syscall.S_IFREG
	}
}

// fillAttr populates a fuse.Attr from a NodeInfo, per spec.md §4.4's
// attribute mapping: engine mode bits OR'ed with the type bits,
// nlink/size/timestamps taken directly from the node, uid/gid from
// the mounting process, and block counts synthesized from size.
func fillAttr(attr *fuse.Attr, info vfs.NodeInfo, uid, gid uint32) {
	attr.Ino = uint64(info.Ino)
	attr.Mode = typeBits(info.Kind) | (info.Mode & 0o7777)
	attr.Size = info.Size
	attr.Nlink = info.Nlink
	attr.Uid = uid
	attr.Gid = gid
	attr.Blksize = 4096
	attr.Blocks = (info.Size + blockSize - 1) / blockSize

	setTime(&attr.Atime, &attr.Atimensec, info.Atime)
	setTime(&attr.Mtime, &attr.Mtimensec, info.Mtime)
	setTime(&attr.Ctime, &attr.Ctimensec, info.Ctime)
}

func setTime(sec *uint64, nsec *uint32, t time.Time) {
	*sec = uint64(t.Unix())
	*nsec = uint32(t.Nanosecond())
}

// fillEntryOut populates the EntryOut returned by Lookup, Create,
// Mkdir, and Symlink. Attribute and entry cache validity are both
// zero: nodes can be mutated by any client at any time (there is no
// notion of a distinguished writer here), so the kernel is told not
// to cache either.
func fillEntryOut(out *fuse.EntryOut, info vfs.NodeInfo, uid, gid uint32) {
	out.NodeId = uint64(info.Ino)
	out.Generation = 1
	fillAttr(&out.Attr, info, uid, gid)
}
