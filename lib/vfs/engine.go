// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

// Package vfs is the in-memory, hierarchical filesystem engine: the
// node store plus the synchronous operations over it. Every mutation
// to the tree — from in-process callers or from the FUSE adapter —
// goes through an Engine method, which serializes on a single
// exclusive lock (spec.md §5).
package vfs

import (
	"sync"
	"time"

	"github.com/coldbrew-systems/memfuse/lib/clock"
	"github.com/coldbrew-systems/memfuse/lib/vfs/pathutil"
)

// Clock is the minimal time source the engine needs: just Now. Any
// clock.Clock (clock.Real or clock.Fake) satisfies it, along with any
// simpler fixed-time stub a test wants to substitute for deterministic
// ctime/mtime/atime assertions.
type Clock interface {
	Now() time.Time
}

// Engine is the in-memory filesystem. The zero value is not usable;
// construct with New.
type Engine struct {
	mu    sync.RWMutex
	tree  *tree
	clock Clock
}

// New creates an empty engine with a single root directory (inode 1),
// timestamped from the wall clock.
func New() *Engine {
	return NewWithClock(clock.Real())
}

// NewWithClock creates an empty engine using the given time source,
// for deterministic tests.
func NewWithClock(clock Clock) *Engine {
	return &Engine{
		tree:  newTree(clock.Now()),
		clock: clock,
	}
}

// NodeInfo is a read-only metadata projection of a node, safe to
// retain without holding the engine's lock.
type NodeInfo struct {
	Ino    Ino
	Kind   Kind
	Name   string
	Mode   uint32
	Nlink  uint32
	Size   uint64
	Ctime  time.Time
	Mtime  time.Time
	Atime  time.Time
	// Parent is the containing directory's inode, or the node's own
	// inode for the root (which has no parent). FUSE ".." entries and
	// similar callers use this instead of walking the tree.
	Parent Ino
}

func infoFrom(n *node, t *tree) NodeInfo {
	parent := n.parent
	if n.ino == t.root().ino {
		parent = n.ino
	}
	return NodeInfo{
		Ino:    n.ino,
		Kind:   n.kind,
		Name:   n.name,
		Mode:   n.mode,
		Nlink:  n.nlink(t),
		Size:   n.size(),
		Ctime:  n.ctime,
		Mtime:  n.mtime,
		Atime:  n.atime,
		Parent: parent,
	}
}

// resolve walks components structurally from the root, never
// following symlinks (spec.md §4.3 get contract). It returns the
// terminal node or a *Error wrapping NotFound / NotADirectory.
func (e *Engine) resolve(op string, components []string) (*node, error) {
	current := e.tree.root()
	for i, name := range components {
		if current.kind != KindDir {
			return nil, newError(NotADirectory, op, "/"+joinN(components, i), nil)
		}
		childIno, ok := current.children[name]
		if !ok {
			return nil, newError(NotFound, op, "/"+joinN(components, i+1), nil)
		}
		current = e.tree.nodes[childIno]
	}
	return current, nil
}

// resolveParent resolves the parent directory of components and
// returns it along with the final path component. It fails NotFound
// if the parent path does not exist and NotADirectory if some
// intermediate component (including the parent itself) is not a
// directory.
func (e *Engine) resolveParent(op string, components []string) (*node, string, error) {
	if len(components) == 0 {
		return nil, "", newError(InvalidArgument, op, "/", nil)
	}
	parentComponents := components[:len(components)-1]
	name := components[len(components)-1]
	parent, err := e.resolve(op, parentComponents)
	if err != nil {
		return nil, "", err
	}
	if parent.kind != KindDir {
		return nil, "", newError(NotADirectory, op, "/"+joinN(components, len(components)-1), nil)
	}
	return parent, name, nil
}

func joinN(components []string, n int) string {
	if n <= 0 {
		return ""
	}
	out := ""
	for _, c := range components[:n] {
		out += "/" + c
	}
	return out
}

// parsePath is the single path-boundary entry point: every public
// Engine method starts by parsing its path argument(s) via pathutil,
// converting a bad path directly into a *Error{Kind: BadPath}.
func parsePath(op, path string) ([]string, error) {
	components, err := pathutil.Split(path)
	if err != nil {
		return nil, newError(BadPath, op, path, err)
	}
	return components, nil
}
