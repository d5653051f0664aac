// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

// Package fuseadapter implements the kernel-facing callback surface
// of the FUSE low-level protocol (github.com/hanwen/go-fuse/v2/fuse's
// RawFileSystem) on top of a *vfs.Engine.
//
// The raw layer is used deliberately, rather than go-fuse's
// higher-level fs.InodeEmbedder layer: spec.md §4.4 requires the
// adapter itself to own the inode-number <-> node-identity mapping
// and the per-inode kernel lookup count (incremented by Lookup,
// decremented by Forget) — exactly the bookkeeping the high-level
// layer internalizes and hides. The raw callback surface is the layer
// that actually exposes Forget to application code.
package fuseadapter

import (
	"log/slog"
	"os"
	"sync"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/coldbrew-systems/memfuse/lib/vfs"
)

// Options configures the adapter.
type Options struct {
	// Engine is the filesystem backing every callback.
	Engine *vfs.Engine

	// Logger receives diagnostic messages for unexpected internal
	// failures (translated to EIO). If nil, a text logger writing to
	// stderr at error level is used.
	Logger *slog.Logger

	// Uid/Gid are reported as the owner of every node; in-memory
	// nodes carry no owner of their own (spec.md §4.4: uid/gid
	// default to the mounting process's effective IDs).
	Uid uint32
	Gid uint32
}

// entry is one row of the adapter's inode table: the bidirectional
// mapping between a kernel-visible inode number and the engine's
// node identity, plus the kernel's lookup count on that inode.
//
// The kernel's inode number and the engine's Ino are the same integer
// here — nodes never move between numbering spaces — but the table
// still exists as the thing spec.md §4.4 requires the adapter to
// maintain: lookupCount is purely adapter-side kernel-reference
// bookkeeping, independent of the engine's own handle refcounting
// (lib/vfs's open-unlink semantics).
//
// handle is an engine-level Handle held for as long as the kernel
// holds any lookup reference to this inode. It exists to bridge the
// two refcounting systems: the engine destroys a detached node's
// arena slot as soon as its own handle refcount reaches zero, but the
// kernel is entitled to keep issuing GETATTR/READLINK/etc. against an
// inode it has looked up until it explicitly FORGETs it, even after
// the node has been unlinked from every directory. Holding handle
// keeps that arena slot alive across the gap; Forget closes it once
// nlookup reaches zero, at which point the engine's own orphan check
// runs and the node is actually destroyed if it is still detached.
type entry struct {
	lookupCount uint64
	handle      vfs.Handle
}

// FS implements fuse.RawFileSystem over an in-memory vfs.Engine. It
// embeds go-fuse's default raw filesystem so that protocol callbacks
// this adapter does not need — hard links, POSIX locks, ioctl,
// xattrs, fallocate — fall back to ENOSYS, "only where the protocol
// permits" (spec.md §6), without this file having to enumerate every
// one of them.
type FS struct {
	fuse.RawFileSystem

	options Options

	mu          sync.Mutex
	table       map[uint64]*entry // kernel inode number -> entry
	handles     map[uint64]*dirHandle
	fileHandles map[uint64]*vfs.File
	nextFh      uint64

	server *fuse.Server // set by Init; used to send notifications
}

var _ fuse.RawFileSystem = (*FS)(nil)

// New constructs an adapter. The root (inode 1) is registered
// immediately with an initial lookup count of 1, matching "Inode 1 is
// the root, established at session start."
func New(options Options) *FS {
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	fs := &FS{
		RawFileSystem: fuse.NewDefaultRawFileSystem(),
		options:       options,
		table:         make(map[uint64]*entry),
		handles:       make(map[uint64]*dirHandle),
		fileHandles:   make(map[uint64]*vfs.File),
	}
	if root, err := options.Engine.ByIno(vfs.RootIno); err == nil {
		fs.table[uint64(vfs.RootIno)] = &entry{lookupCount: 1, handle: root}
	}
	return fs
}

// String identifies the filesystem for debug output.
func (fs *FS) String() string { return "memfuse" }

// SetDebug is a no-op; debug logging goes through options.Logger.
func (fs *FS) SetDebug(bool) {}

// Init stashes the server reference for future use (e.g. cache
// invalidation notifications, not currently exercised).
func (fs *FS) Init(server *fuse.Server) { fs.server = server }

// retain records a new kernel reference to ino, acquiring the
// keep-alive engine handle on first sight. Every successful Lookup,
// Create, Mkdir, and Symlink callback calls this exactly once for the
// inode it hands back to the kernel.
func (fs *FS) retain(ino vfs.Ino, handle vfs.Handle) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	e, ok := fs.table[uint64(ino)]
	if !ok {
		fs.table[uint64(ino)] = &entry{lookupCount: 1, handle: handle}
		return
	}
	handle.Close() // already held one keep-alive handle for this inode
	e.lookupCount++
}

// Forget decrements nodeid's kernel lookup count by nlookup. Once the
// count reaches zero the table entry is dropped and its keep-alive
// handle closed, letting the engine destroy the node if it is also
// detached from the tree.
func (fs *FS) Forget(nodeid, nlookup uint64) {
	fs.mu.Lock()
	e, ok := fs.table[nodeid]
	if !ok {
		fs.mu.Unlock()
		return
	}
	if nlookup >= e.lookupCount {
		delete(fs.table, nodeid)
		fs.mu.Unlock()
		e.handle.Close()
		return
	}
	e.lookupCount -= nlookup
	fs.mu.Unlock()
}
