// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

package fuseadapter

import (
	"errors"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/coldbrew-systems/memfuse/lib/vfs"
)

// toStatus maps a *vfs.Error's closed Kind to the POSIX errno the
// spec assigns it. Any other error (a programming bug, not a
// modeled failure) surfaces as EIO, matching "unexpected internal
// failures surface as EIO."
func toStatus(err error) fuse.Status {
	if err == nil {
		return fuse.OK
	}
	var verr *vfs.Error
	if !errors.As(err, &verr) {
		return fuse.Status(syscall.EIO)
	}
	switch verr.Kind {
	case vfs.NotFound:
		return fuse.Status(syscall.ENOENT)
	case vfs.AlreadyExists:
		return fuse.Status(syscall.EEXIST)
	case vfs.NotADirectory:
		return fuse.Status(syscall.ENOTDIR)
	case vfs.IsADirectory:
		return fuse.Status(syscall.EISDIR)
	case vfs.NotEmpty:
		return fuse.Status(syscall.ENOTEMPTY)
	case vfs.NotASymlink:
		return fuse.Status(syscall.EINVAL)
	case vfs.BadPath:
		return fuse.Status(syscall.EINVAL)
	case vfs.InvalidArgument:
		return fuse.Status(syscall.EINVAL)
	default:
		return fuse.Status(syscall.EIO)
	}
}
