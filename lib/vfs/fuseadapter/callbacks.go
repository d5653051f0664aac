// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

package fuseadapter

import (
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/coldbrew-systems/memfuse/lib/vfs"
)

// Lookup resolves name under the directory header.NodeId and, on
// success, registers a kernel lookup reference on the child.
func (fs *FS) Lookup(cancel <-chan struct{}, header *fuse.InHeader, name string, out *fuse.EntryOut) fuse.Status {
	handle, err := fs.options.Engine.LookupChild(vfs.Ino(header.NodeId), name)
	if err != nil {
		return toStatus(err)
	}
	info, err := handle.Info()
	if err != nil {
		handle.Close()
		return toStatus(err)
	}
	fillEntryOut(out, info, fs.options.Uid, fs.options.Gid)
	fs.retain(info.Ino, handle)
	return fuse.OK
}

// GetAttr reports the current attributes of header.NodeId.
func (fs *FS) GetAttr(cancel <-chan struct{}, input *fuse.GetAttrIn, out *fuse.AttrOut) fuse.Status {
	info, err := fs.options.Engine.InfoByIno(vfs.Ino(input.NodeId))
	if err != nil {
		return toStatus(err)
	}
	fillAttr(&out.Attr, info, fs.options.Uid, fs.options.Gid)
	return fuse.OK
}

// SetAttr applies whichever of mode/size the kernel requested to
// change; other requested fields (uid/gid/times) are accepted but
// have no in-memory representation to persist beyond what the engine
// already tracks automatically, so they are silently accepted rather
// than rejected.
func (fs *FS) SetAttr(cancel <-chan struct{}, input *fuse.SetAttrIn, out *fuse.AttrOut) fuse.Status {
	ino := vfs.Ino(input.NodeId)
	handle, err := fs.options.Engine.ByIno(ino)
	if err != nil {
		return toStatus(err)
	}
	defer handle.Close()

	if input.Valid&fuse.FATTR_MODE != 0 {
		switch h := handle.(type) {
		case *vfs.File:
			err = h.SetMode(input.Mode)
		case *vfs.Directory:
			err = h.SetMode(input.Mode)
		}
		if err != nil {
			return toStatus(err)
		}
	}
	if input.Valid&fuse.FATTR_SIZE != 0 {
		file, ok := handle.(*vfs.File)
		if !ok {
			return fuse.Status(1) // EPERM: truncate on a non-file
		}
		if err := file.Truncate(int(input.Size)); err != nil {
			return toStatus(err)
		}
	}

	info, err := handle.Info()
	if err != nil {
		return toStatus(err)
	}
	fillAttr(&out.Attr, info, fs.options.Uid, fs.options.Gid)
	return fuse.OK
}

// Mkdir creates a directory named name under header.NodeId.
func (fs *FS) Mkdir(cancel <-chan struct{}, input *fuse.MkdirIn, name string, out *fuse.EntryOut) fuse.Status {
	dir, err := fs.options.Engine.MkdirChild(vfs.Ino(input.NodeId), name, input.Mode&^input.Umask)
	if err != nil {
		return toStatus(err)
	}
	info, err := dir.Info()
	if err != nil {
		dir.Close()
		return toStatus(err)
	}
	fillEntryOut(out, info, fs.options.Uid, fs.options.Gid)
	fs.retain(info.Ino, dir)
	return fuse.OK
}

// Create creates a regular file named name under header.NodeId and
// immediately opens it, returning both the entry and a file handle in
// one round trip.
func (fs *FS) Create(cancel <-chan struct{}, input *fuse.CreateIn, name string, out *fuse.CreateOut) fuse.Status {
	file, err := fs.options.Engine.CreateFileChild(vfs.Ino(input.NodeId), name, input.Mode&^input.Umask)
	if err != nil {
		return toStatus(err)
	}
	info, err := file.Info()
	if err != nil {
		file.Close()
		return toStatus(err)
	}
	fillEntryOut(&out.EntryOut, info, fs.options.Uid, fs.options.Gid)
	fs.retain(info.Ino, file)

	// The kernel lookup reference above and the open file handle below
	// are independent: closing the fh on Release must not affect the
	// keep-alive handle retained in the inode table.
	opened, err := fs.options.Engine.ByIno(info.Ino)
	if err != nil {
		return toStatus(err)
	}
	out.Fh = fs.registerFile(opened.(*vfs.File))
	return fuse.OK
}

// Symlink creates a symlink named linkName under header.NodeId whose
// target is pointedTo, stored verbatim.
func (fs *FS) Symlink(cancel <-chan struct{}, header *fuse.InHeader, pointedTo string, linkName string, out *fuse.EntryOut) fuse.Status {
	link, err := fs.options.Engine.SymlinkChild(vfs.Ino(header.NodeId), linkName, pointedTo)
	if err != nil {
		return toStatus(err)
	}
	info, err := link.Info()
	if err != nil {
		link.Close()
		return toStatus(err)
	}
	fillEntryOut(out, info, fs.options.Uid, fs.options.Gid)
	fs.retain(info.Ino, link)
	return fuse.OK
}

// Readlink returns the target stored at header.NodeId.
func (fs *FS) Readlink(cancel <-chan struct{}, header *fuse.InHeader) ([]byte, fuse.Status) {
	handle, err := fs.options.Engine.ByIno(vfs.Ino(header.NodeId))
	if err != nil {
		return nil, toStatus(err)
	}
	defer handle.Close()
	link, ok := handle.(*vfs.Symlink)
	if !ok {
		return nil, toStatus(vfs.NewError(vfs.NotASymlink, "readlink", "", nil))
	}
	target, err := link.Target()
	if err != nil {
		return nil, toStatus(err)
	}
	return target, fuse.OK
}

// Unlink removes the file or symlink named name from header.NodeId.
func (fs *FS) Unlink(cancel <-chan struct{}, header *fuse.InHeader, name string) fuse.Status {
	return toStatus(fs.options.Engine.UnlinkChild(vfs.Ino(header.NodeId), name))
}

// Rmdir removes the empty directory named name from header.NodeId.
func (fs *FS) Rmdir(cancel <-chan struct{}, header *fuse.InHeader, name string) fuse.Status {
	return toStatus(fs.options.Engine.RmdirChild(vfs.Ino(header.NodeId), name))
}

// Rename moves oldName under input.NodeId to newName under
// input.Newdir.
func (fs *FS) Rename(cancel <-chan struct{}, input *fuse.RenameIn, oldName string, newName string) fuse.Status {
	err := fs.options.Engine.RenameChild(vfs.Ino(input.NodeId), oldName, vfs.Ino(input.Newdir), newName)
	return toStatus(err)
}

// Access reports whether the requested access mode would be granted.
// In-memory nodes have no per-caller permission model beyond the mode
// bits already exposed through GetAttr, so any node that exists is
// reported as accessible; only NotFound propagates.
func (fs *FS) Access(cancel <-chan struct{}, input *fuse.AccessIn) fuse.Status {
	_, err := fs.options.Engine.InfoByIno(vfs.Ino(input.NodeId))
	return toStatus(err)
}

// Open opens the existing file header.NodeId for reading and/or
// writing.
func (fs *FS) Open(cancel <-chan struct{}, input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	handle, err := fs.options.Engine.ByIno(vfs.Ino(input.NodeId))
	if err != nil {
		return toStatus(err)
	}
	file, ok := handle.(*vfs.File)
	if !ok {
		handle.Close()
		return toStatus(vfs.NewError(vfs.InvalidArgument, "open", "", nil))
	}
	out.Fh = fs.registerFile(file)
	return fuse.OK
}

// Read services a pread against the open file handle in input.Fh.
func (fs *FS) Read(cancel <-chan struct{}, input *fuse.ReadIn, buf []byte) (fuse.ReadResult, fuse.Status) {
	file, ok := fs.lookupFile(input.Fh)
	if !ok {
		return nil, fuse.Status(9) // EBADF
	}
	n, err := file.ReadAt(buf, int64(input.Offset))
	if err != nil {
		return nil, toStatus(err)
	}
	return fuse.ReadResultData(buf[:n]), fuse.OK
}

// Write services a pwrite against the open file handle in input.Fh.
func (fs *FS) Write(cancel <-chan struct{}, input *fuse.WriteIn, data []byte) (uint32, fuse.Status) {
	file, ok := fs.lookupFile(input.Fh)
	if !ok {
		return 0, fuse.Status(9) // EBADF
	}
	if err := file.WriteAt(data, int64(input.Offset)); err != nil {
		return 0, toStatus(err)
	}
	return uint32(len(data)), fuse.OK
}

// Flush is a no-op: writes are already committed synchronously by
// WriteAt, so there is nothing to flush.
func (fs *FS) Flush(cancel <-chan struct{}, input *fuse.FlushIn) fuse.Status { return fuse.OK }

// Release closes the open file handle in input.Fh, independent of the
// keep-alive handle held in the inode table for the kernel's lookup
// count on the same inode.
func (fs *FS) Release(cancel <-chan struct{}, input *fuse.ReleaseIn) {
	if file := fs.releaseFile(input.Fh); file != nil {
		file.Close()
	}
}

// OpenDir snapshots header.NodeId's children for a consistent
// readdir sequence.
func (fs *FS) OpenDir(cancel <-chan struct{}, input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	handle, err := snapshotDir(fs.options.Engine, vfs.Ino(input.NodeId))
	if err != nil {
		return toStatus(err)
	}
	out.Fh = fs.registerDir(handle)
	return fuse.OK
}

// ReadDir serves entries from the snapshot taken at OpenDir, resuming
// at input.Offset (an index into the snapshot, not a byte cookie).
func (fs *FS) ReadDir(cancel <-chan struct{}, input *fuse.ReadIn, out *fuse.DirEntryList) fuse.Status {
	handle, ok := fs.lookupDir(input.Fh)
	if !ok {
		return fuse.Status(9) // EBADF
	}
	for i := int(input.Offset); i < len(handle.entries); i++ {
		if !out.AddDirEntry(handle.entries[i]) {
			break
		}
	}
	return fuse.OK
}

// ReleaseDir discards the snapshot opened under input.Fh.
func (fs *FS) ReleaseDir(input *fuse.ReleaseIn) {
	fs.releaseDir(input.Fh)
}

// StatFs reports synthetic filesystem-wide statistics. An in-memory
// tree has no fixed capacity, so total/free block and inode counts
// are reported as large fixed values rather than measured ones.
func (fs *FS) StatFs(cancel <-chan struct{}, header *fuse.InHeader, out *fuse.StatfsOut) fuse.Status {
	const totalBlocks = 1 << 30
	out.Blocks = totalBlocks
	out.Bfree = totalBlocks
	out.Bavail = totalBlocks
	out.Files = 1 << 20
	out.Ffree = 1 << 20
	out.Bsize = 4096
	out.NameLen = 255
	out.Frsize = 4096
	return fuse.OK
}
