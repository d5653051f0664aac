// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

// Package mount manages the lifecycle of a kernel FUSE session backed
// by a *vfs.Engine: mounting, waiting for the kernel to establish the
// session, and unmounting (both on request and, via a signal handler,
// when the process receives an interrupt or termination signal).
package mount

import (
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/coldbrew-systems/memfuse/lib/vfs"
	"github.com/coldbrew-systems/memfuse/lib/vfs/fuseadapter"
)

// state is the mount lifecycle: creating -> mounted -> unmounting ->
// terminated. Unmount is idempotent from any state at or after
// mounted; calling it twice, or calling it before Mount finishes
// establishing the session, is a no-op rather than an error.
type state int

const (
	stateCreating state = iota
	stateMounted
	stateUnmounting
	stateTerminated
)

// Options configures a mount attempt.
type Options struct {
	// MountPoint is the directory the filesystem is mounted onto.
	// It must already exist and be an empty directory.
	MountPoint string

	// Engine is the filesystem backing the mount.
	Engine *vfs.Engine

	// AllowOther permits users other than the mount's owner to
	// access it. Requires user_allow_other in /etc/fuse.conf on
	// the host, matching the FUSE kernel module's own policy.
	AllowOther bool

	// Uid/Gid are reported as the owner of every node. Zero value
	// defaults to the calling process's effective IDs.
	Uid uint32
	Gid uint32

	// Logger receives diagnostic messages. If nil, a text logger
	// writing to stderr at error level is used.
	Logger *slog.Logger

	// UnmountTimeout bounds how long Unmount waits for in-flight
	// kernel requests to drain before forcing the connection
	// closed. Zero uses DefaultUnmountTimeout.
	UnmountTimeout time.Duration
}

// DefaultUnmountTimeout bounds a graceful unmount's wait for
// in-flight requests before the connection is forced closed.
const DefaultUnmountTimeout = 5 * time.Second

// Handle controls one mounted session. The zero Handle is not usable;
// obtain one from Mount.
type Handle struct {
	mu         sync.Mutex
	state      state
	server     *fuse.Server
	mountPoint string
	timeout    time.Duration
	cleanup    func()
}

// Mount establishes a FUSE session for engine at mountPoint and
// blocks until the kernel has confirmed it (or reports MountPoint()
// as failed). The returned Handle owns the session: callers must call
// Unmount when finished. As a backstop against a forgotten Unmount, an
// interrupt or termination signal received while the session is
// mounted also unmounts it before the process exits; a normal return
// from main or a call to os.Exit does not unmount.
func Mount(options Options) (*Handle, error) {
	const op = "mount"

	if options.MountPoint == "" {
		return nil, newError(NoSuchMountPoint, op, "", errors.New("mount point is required"))
	}
	if options.Engine == nil {
		return nil, newError(NoSuchMountPoint, op, options.MountPoint, errors.New("engine is required"))
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	if options.UnmountTimeout == 0 {
		options.UnmountTimeout = DefaultUnmountTimeout
	}
	if options.Uid == 0 {
		options.Uid = uint32(os.Geteuid())
	}
	if options.Gid == 0 {
		options.Gid = uint32(os.Getegid())
	}

	info, err := os.Stat(options.MountPoint)
	if err != nil {
		return nil, newError(NoSuchMountPoint, op, options.MountPoint, err)
	}
	if !info.IsDir() {
		return nil, newError(NotADirectory, op, options.MountPoint, nil)
	}
	if !claimMountPoint(options.MountPoint) {
		return nil, newError(AlreadyMounted, op, options.MountPoint, nil)
	}

	adapter := fuseadapter.New(fuseadapter.Options{
		Engine: options.Engine,
		Logger: options.Logger,
		Uid:    options.Uid,
		Gid:    options.Gid,
	})

	server, err := fuse.NewServer(adapter, options.MountPoint, &fuse.MountOptions{
		FsName:     "memfuse",
		Name:       "memfuse",
		AllowOther: options.AllowOther,
	})
	if err != nil {
		releaseMountPoint(options.MountPoint)
		return nil, classifyMountError(op, options.MountPoint, err)
	}

	handle := &Handle{
		state:      stateMounted,
		server:     server,
		mountPoint: options.MountPoint,
		timeout:    options.UnmountTimeout,
	}

	go server.Serve()
	if err := server.WaitMount(); err != nil {
		handle.forceTerminate()
		releaseMountPoint(options.MountPoint)
		return nil, newError(SessionAborted, op, options.MountPoint, err)
	}

	handle.cleanup = func() { handle.Unmount() }
	registerExitCleanup(handle.cleanup)

	options.Logger.Info("filesystem mounted", "mount_point", options.MountPoint)
	return handle, nil
}

// classifyMountError maps a raw kernel mount failure to the closest
// ErrorKind. fuse.NewServer's errors are opaque wrapped syscall
// errors, so this inspects the underlying errno.
func classifyMountError(op, mountPoint string, err error) error {
	switch {
	case errors.Is(err, os.ErrPermission), errors.Is(err, syscall.EPERM), errors.Is(err, syscall.EACCES):
		return newError(PermissionDenied, op, mountPoint, err)
	case errors.Is(err, syscall.ENODEV), errors.Is(err, syscall.ENOENT):
		return newError(KernelUnavailable, op, mountPoint, err)
	default:
		return newError(SessionAborted, op, mountPoint, err)
	}
}

// MountPoint returns the directory this handle is mounted onto.
func (h *Handle) MountPoint() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mountPoint
}

// IsMounted reports whether the session is currently active.
func (h *Handle) IsMounted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state == stateMounted
}

// Unmount tears the session down. It is idempotent: calling it more
// than once, or from more than one goroutine, is safe and every call
// after the first observes the same outcome as the first.
func (h *Handle) Unmount() error {
	h.mu.Lock()
	if h.state != stateMounted {
		h.mu.Unlock()
		return nil
	}
	h.state = stateUnmounting
	server := h.server
	timeout := h.timeout
	mountPoint := h.mountPoint
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		server.Unmount()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		// The kernel hasn't confirmed the unmount within the grace
		// period, likely because a client still has the mount point
		// open. Force the connection closed rather than hang forever.
		forceUnmount(mountPoint)
		<-done
	}

	h.mu.Lock()
	h.state = stateTerminated
	h.mu.Unlock()
	releaseMountPoint(mountPoint)
	return nil
}

var mountPointRegistry struct {
	mu     sync.Mutex
	active map[string]bool
}

// claimMountPoint reports whether mountPoint was not already claimed
// by another live handle in this process, claiming it if so. This
// only catches double-mounts issued by the same process; a mount
// point already in use by an unrelated process is instead rejected by
// the kernel and surfaces through classifyMountError.
func claimMountPoint(mountPoint string) bool {
	mountPointRegistry.mu.Lock()
	defer mountPointRegistry.mu.Unlock()
	if mountPointRegistry.active == nil {
		mountPointRegistry.active = make(map[string]bool)
	}
	if mountPointRegistry.active[mountPoint] {
		return false
	}
	mountPointRegistry.active[mountPoint] = true
	return true
}

func releaseMountPoint(mountPoint string) {
	mountPointRegistry.mu.Lock()
	delete(mountPointRegistry.active, mountPoint)
	mountPointRegistry.mu.Unlock()
}

func (h *Handle) forceTerminate() {
	h.mu.Lock()
	h.state = stateTerminated
	h.mu.Unlock()
}

// forceUnmount issues a lazy unmount so a wedged mount point does not
// block process shutdown indefinitely.
func forceUnmount(mountPoint string) {
	_ = syscall.Unmount(mountPoint, syscall.MNT_DETACH)
}

var exitCleanupOnce sync.Once
var exitCleanups struct {
	mu    sync.Mutex
	funcs []func()
}

// registerExitCleanup arranges for fn to run if the process receives
// an interrupt or termination signal while the mount is still active,
// so a crashed or killed daemon does not leave a stale mount point
// behind. Registration is cumulative: every mount handle a process
// creates is torn down on the same signal.
func registerExitCleanup(fn func()) {
	exitCleanups.mu.Lock()
	exitCleanups.funcs = append(exitCleanups.funcs, fn)
	exitCleanups.mu.Unlock()

	exitCleanupOnce.Do(func() {
		installSignalHandler()
	})
}

func installSignalHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		exitCleanups.mu.Lock()
		funcs := append([]func(){}, exitCleanups.funcs...)
		exitCleanups.mu.Unlock()
		for _, fn := range funcs {
			fn()
		}
		os.Exit(1)
	}()
}
