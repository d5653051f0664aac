// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

// The FUSE adapter (spec.md §4.4) receives kernel requests addressed
// by inode number and child name, not by path. These methods are the
// engine's inode-keyed counterpart to the path-keyed public contract
// in operations.go, operating on exactly the same arena and under the
// same lock. Both surfaces are equally "the engine"; the FUSE adapter
// never bypasses locking or invariant checks by using these instead
// of the path-keyed methods.

// ByIno returns a handle to the live node with the given inode number.
func (e *Engine) ByIno(ino Ino) (Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.mustNode(ino, "byino")
	if err != nil {
		return nil, err
	}
	return wrapHandle(e, n), nil
}

// InfoByIno is a lock-scoped metadata read by inode number.
func (e *Engine) InfoByIno(ino Ino) (NodeInfo, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n, err := e.mustNode(ino, "getattr")
	if err != nil {
		return NodeInfo{}, err
	}
	return infoFrom(n, e.tree), nil
}

// RootIno is the engine-wide constant root inode number.
const RootIno Ino = 1

// LookupChild resolves name under the directory identified by
// parentIno, returning a handle to the child. Fails NotADirectory if
// parentIno does not name a directory, NotFound if name is absent.
func (e *Engine) LookupChild(parentIno Ino, name string) (Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	parent, err := e.mustNode(parentIno, "lookup")
	if err != nil {
		return nil, err
	}
	if parent.kind != KindDir {
		return nil, newError(NotADirectory, "lookup", name, nil)
	}
	childIno, ok := parent.children[name]
	if !ok {
		return nil, newError(NotFound, "lookup", name, nil)
	}
	return wrapHandle(e, e.tree.nodes[childIno]), nil
}

// ChildrenByIno returns a read-only snapshot of a directory's
// children, keyed by name.
func (e *Engine) ChildrenByIno(ino Ino) (map[string]Ino, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n, err := e.mustNode(ino, "readdir")
	if err != nil {
		return nil, err
	}
	if n.kind != KindDir {
		return nil, newError(NotADirectory, "readdir", "", nil)
	}
	out := make(map[string]Ino, len(n.children))
	for name, childIno := range n.children {
		out[name] = childIno
	}
	return out, nil
}

// CreateFileChild creates a file named name under parentIno.
func (e *Engine) CreateFileChild(parentIno Ino, name string, mode uint32) (*File, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	parent, err := e.mustNode(parentIno, "create")
	if err != nil {
		return nil, err
	}
	if parent.kind != KindDir {
		return nil, newError(NotADirectory, "create", name, nil)
	}
	if _, exists := parent.children[name]; exists {
		return nil, newError(AlreadyExists, "create", name, nil)
	}
	now := e.clock.Now()
	n := e.tree.constructFile(parent.ino, name, mode&0o7777, nil, now)
	e.tree.insertChild(parent, n)
	parent.mtime = now
	parent.ctime = now
	return wrapHandle(e, n).(*File), nil
}

// MkdirChild creates a directory named name under parentIno.
func (e *Engine) MkdirChild(parentIno Ino, name string, mode uint32) (*Directory, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	parent, err := e.mustNode(parentIno, "mkdir")
	if err != nil {
		return nil, err
	}
	if parent.kind != KindDir {
		return nil, newError(NotADirectory, "mkdir", name, nil)
	}
	if _, exists := parent.children[name]; exists {
		return nil, newError(AlreadyExists, "mkdir", name, nil)
	}
	now := e.clock.Now()
	n := e.tree.constructDir(parent.ino, name, mode&0o7777, now)
	e.tree.insertChild(parent, n)
	parent.mtime = now
	parent.ctime = now
	return wrapHandle(e, n).(*Directory), nil
}

// SymlinkChild creates a symlink named name under parentIno.
func (e *Engine) SymlinkChild(parentIno Ino, name string, target string) (*Symlink, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	parent, err := e.mustNode(parentIno, "symlink")
	if err != nil {
		return nil, err
	}
	if parent.kind != KindDir {
		return nil, newError(NotADirectory, "symlink", name, nil)
	}
	if _, exists := parent.children[name]; exists {
		return nil, newError(AlreadyExists, "symlink", name, nil)
	}
	now := e.clock.Now()
	n := e.tree.constructSymlink(parent.ino, name, []byte(target), now)
	e.tree.insertChild(parent, n)
	parent.mtime = now
	parent.ctime = now
	return wrapHandle(e, n).(*Symlink), nil
}

// UnlinkChild removes a file or symlink named name from parentIno.
func (e *Engine) UnlinkChild(parentIno Ino, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	parent, err := e.mustNode(parentIno, "unlink")
	if err != nil {
		return err
	}
	childIno, ok := parent.children[name]
	if !ok {
		return newError(NotFound, "unlink", name, nil)
	}
	child := e.tree.nodes[childIno]
	if child.kind == KindDir {
		return newError(IsADirectory, "unlink", name, nil)
	}
	e.tree.removeChild(parent, name)
	child.detached = true
	now := e.clock.Now()
	parent.mtime = now
	parent.ctime = now
	e.tree.destroyNodeIfOrphaned(child)
	return nil
}

// RmdirChild removes an empty directory named name from parentIno.
func (e *Engine) RmdirChild(parentIno Ino, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	parent, err := e.mustNode(parentIno, "rmdir")
	if err != nil {
		return err
	}
	childIno, ok := parent.children[name]
	if !ok {
		return newError(NotFound, "rmdir", name, nil)
	}
	child := e.tree.nodes[childIno]
	if child.kind != KindDir {
		return newError(NotADirectory, "rmdir", name, nil)
	}
	if len(child.children) > 0 {
		return newError(NotEmpty, "rmdir", name, nil)
	}
	e.tree.removeChild(parent, name)
	child.detached = true
	now := e.clock.Now()
	parent.mtime = now
	parent.ctime = now
	e.tree.destroyNodeIfOrphaned(child)
	return nil
}

// RenameChild moves the node named oldName under oldParentIno to
// newName under newParentIno, applying the same rules as Rename.
func (e *Engine) RenameChild(oldParentIno Ino, oldName string, newParentIno Ino, newName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	oldParent, err := e.mustNode(oldParentIno, "rename")
	if err != nil {
		return err
	}
	movedIno, ok := oldParent.children[oldName]
	if !ok {
		return newError(NotFound, "rename", oldName, nil)
	}
	moved := e.tree.nodes[movedIno]

	newParent, err := e.mustNode(newParentIno, "rename")
	if err != nil {
		return err
	}
	if newParent.kind != KindDir {
		return newError(NotADirectory, "rename", newName, nil)
	}

	if moved.kind == KindDir && isSelfOrDescendant(e.tree, moved, newParent) {
		return newError(InvalidArgument, "rename", newName, nil)
	}

	var replaced *node
	if existingIno, exists := newParent.children[newName]; exists {
		replaced = e.tree.nodes[existingIno]
		if replaced.ino == moved.ino {
			return nil
		}
		if replaced.kind != moved.kind {
			return newError(InvalidArgument, "rename", newName, nil)
		}
		if replaced.kind == KindDir && len(replaced.children) > 0 {
			return newError(NotEmpty, "rename", newName, nil)
		}
	}

	if replaced != nil {
		e.tree.removeChild(newParent, newName)
		replaced.detached = true
		e.tree.destroyNodeIfOrphaned(replaced)
	}

	e.tree.renameChild(moved, oldParent, newParent, newName)

	now := e.clock.Now()
	moved.ctime = now
	oldParent.mtime = now
	oldParent.ctime = now
	newParent.mtime = now
	newParent.ctime = now
	return nil
}
