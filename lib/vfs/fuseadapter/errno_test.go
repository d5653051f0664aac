// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

package fuseadapter

import (
	"errors"
	"syscall"
	"testing"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/coldbrew-systems/memfuse/lib/vfs"
)

func TestToStatusOK(t *testing.T) {
	if got := toStatus(nil); got != fuse.OK {
		t.Errorf("toStatus(nil) = %v, want OK", got)
	}
}

func TestToStatusMapsKnownKinds(t *testing.T) {
	cases := []struct {
		kind vfs.ErrorKind
		want syscall.Errno
	}{
		{vfs.NotFound, syscall.ENOENT},
		{vfs.AlreadyExists, syscall.EEXIST},
		{vfs.NotADirectory, syscall.ENOTDIR},
		{vfs.IsADirectory, syscall.EISDIR},
		{vfs.NotEmpty, syscall.ENOTEMPTY},
		{vfs.NotASymlink, syscall.EINVAL},
		{vfs.BadPath, syscall.EINVAL},
		{vfs.InvalidArgument, syscall.EINVAL},
	}
	for _, tc := range cases {
		err := &vfs.Error{Kind: tc.kind, Op: "test"}
		got := toStatus(err)
		if got != fuse.Status(tc.want) {
			t.Errorf("toStatus(%v) = %v, want %v", tc.kind, got, tc.want)
		}
	}
}

func TestToStatusUnknownErrorIsEIO(t *testing.T) {
	got := toStatus(errors.New("some unmodeled failure"))
	if got != fuse.Status(syscall.EIO) {
		t.Errorf("toStatus(unmodeled) = %v, want EIO", got)
	}
}
