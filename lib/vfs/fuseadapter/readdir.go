// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

package fuseadapter

import (
	"sort"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/coldbrew-systems/memfuse/lib/vfs"
)

// dirHandle is a snapshot of a directory's children taken at OpenDir
// time. spec.md §4.4 requires readdir results to reflect the
// directory's contents as of the matching opendir, not whatever the
// tree looks like by the time each individual ReadDir call lands —
// concurrent mutation of the directory between opendir and releasedir
// must not be visible through this handle. entries is therefore
// populated once, in a stable name order so successive ReadDir calls
// (each resuming at an entry index into the same logical list) see a
// consistent sequence.
type dirHandle struct {
	ino     vfs.Ino
	entries []fuse.DirEntry
}

// snapshotDir builds a dirHandle for the directory identified by ino,
// prefixing the conventional "." and ".." entries.
func snapshotDir(engine *vfs.Engine, ino vfs.Ino) (*dirHandle, error) {
	info, err := engine.InfoByIno(ino)
	if err != nil {
		return nil, err
	}
	children, err := engine.ChildrenByIno(ino)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]fuse.DirEntry, 0, len(names)+2)
	entries = append(entries, fuse.DirEntry{Mode: syscallModeDir, Name: ".", Ino: uint64(ino)})
	entries = append(entries, fuse.DirEntry{Mode: syscallModeDir, Name: "..", Ino: uint64(info.Parent)})
	for _, name := range names {
		childIno := children[name]
		info, err := engine.InfoByIno(childIno)
		if err != nil {
			// The child was removed between the ChildrenByIno snapshot
			// and this lookup; skip it rather than fail the whole
			// listing.
			continue
		}
		entries = append(entries, fuse.DirEntry{
			Mode: typeBits(info.Kind),
			Name: name,
			Ino:  uint64(childIno),
		})
	}
	return &dirHandle{ino: ino, entries: entries}, nil
}

const syscallModeDir = 0o040000

// registerDir stores handle under a freshly allocated file handle
// number and returns it.
func (fs *FS) registerDir(handle *dirHandle) uint64 {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.nextFh++
	fh := fs.nextFh
	fs.handles[fh] = handle
	return fh
}

func (fs *FS) lookupDir(fh uint64) (*dirHandle, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	h, ok := fs.handles[fh]
	return h, ok
}

func (fs *FS) releaseDir(fh uint64) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.handles, fh)
}

// registerFile stores an open engine file handle under a freshly
// allocated file handle number, shared with the dirHandle numbering
// space above — the two are never confused because the kernel always
// tells us which kind of fh it is handing back (via Open vs OpenDir).
func (fs *FS) registerFile(handle *vfs.File) uint64 {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.nextFh++
	fh := fs.nextFh
	fs.fileHandles[fh] = handle
	return fh
}

func (fs *FS) lookupFile(fh uint64) (*vfs.File, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	h, ok := fs.fileHandles[fh]
	return h, ok
}

func (fs *FS) releaseFile(fh uint64) *vfs.File {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	h := fs.fileHandles[fh]
	delete(fs.fileHandles, fh)
	return h
}
