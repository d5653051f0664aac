// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

package fuseadapter

import (
	"syscall"
	"testing"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/coldbrew-systems/memfuse/lib/vfs"
)

func sampleInfo(kind vfs.Kind, mode uint32, size uint64) vfs.NodeInfo {
	when := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return vfs.NodeInfo{
		Ino:   42,
		Kind:  kind,
		Mode:  mode,
		Nlink: 1,
		Size:  size,
		Ctime: when,
		Mtime: when,
		Atime: when,
	}
}

func TestFillAttrSetsTypeBitsForDirectory(t *testing.T) {
	var attr fuse.Attr
	fillAttr(&attr, sampleInfo(vfs.KindDir, 0o755, 0), 1000, 1000)

	if attr.Mode&syscall.S_IFMT != syscall.S_IFDIR {
		t.Errorf("mode = %o, missing S_IFDIR bit", attr.Mode)
	}
	if attr.Mode&0o7777 != 0o755 {
		t.Errorf("permission bits = %o, want %o", attr.Mode&0o7777, 0o755)
	}
}

func TestFillAttrSetsTypeBitsForSymlink(t *testing.T) {
	var attr fuse.Attr
	fillAttr(&attr, sampleInfo(vfs.KindSymlink, 0o777, 5), 0, 0)

	if attr.Mode&syscall.S_IFMT != syscall.S_IFLNK {
		t.Errorf("mode = %o, missing S_IFLNK bit", attr.Mode)
	}
}

func TestFillAttrComputesBlocksFromSize(t *testing.T) {
	var attr fuse.Attr
	fillAttr(&attr, sampleInfo(vfs.KindFile, 0o644, 1000), 0, 0)

	want := uint64((1000 + blockSize - 1) / blockSize)
	if attr.Blocks != want {
		t.Errorf("blocks = %d, want %d", attr.Blocks, want)
	}
}

func TestFillAttrPropagatesUidGid(t *testing.T) {
	var attr fuse.Attr
	fillAttr(&attr, sampleInfo(vfs.KindFile, 0o644, 0), 1234, 5678)

	if attr.Uid != 1234 || attr.Gid != 5678 {
		t.Errorf("uid/gid = %d/%d, want 1234/5678", attr.Uid, attr.Gid)
	}
}

func TestFillEntryOutSetsNodeIDAndGeneration(t *testing.T) {
	var out fuse.EntryOut
	fillEntryOut(&out, sampleInfo(vfs.KindFile, 0o644, 0), 0, 0)

	if out.NodeId != 42 {
		t.Errorf("NodeId = %d, want 42", out.NodeId)
	}
	if out.Generation != 1 {
		t.Errorf("Generation = %d, want 1", out.Generation)
	}
}
