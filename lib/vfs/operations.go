// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

// CreateFile creates a new file at path. The parent of path must
// exist and be a directory; the final component must not already
// exist.
func (e *Engine) CreateFile(path string, content []byte, mode uint32) (*File, error) {
	const op = "create_file"
	components, err := parsePath(op, path)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	parent, name, err := e.resolveParent(op, components)
	if err != nil {
		return nil, err
	}
	if _, exists := parent.children[name]; exists {
		return nil, newError(AlreadyExists, op, path, nil)
	}

	now := e.clock.Now()
	n := e.tree.constructFile(parent.ino, name, mode&0o7777, cloneBytes(content), now)
	e.tree.insertChild(parent, n)
	parent.mtime = now
	parent.ctime = now

	return wrapHandle(e, n).(*File), nil
}

// CreateDir creates a new, empty directory at path. Fails if the
// final component already exists.
func (e *Engine) CreateDir(path string, mode uint32) (*Directory, error) {
	const op = "create_dir"
	components, err := parsePath(op, path)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	parent, name, err := e.resolveParent(op, components)
	if err != nil {
		return nil, err
	}
	if _, exists := parent.children[name]; exists {
		return nil, newError(AlreadyExists, op, path, nil)
	}

	now := e.clock.Now()
	n := e.tree.constructDir(parent.ino, name, mode&0o7777, now)
	e.tree.insertChild(parent, n)
	parent.mtime = now
	parent.ctime = now

	return wrapHandle(e, n).(*Directory), nil
}

// MakeDirs creates all missing intermediate directories along path
// with the same mode, returning the final directory. Idempotent: if
// the full path already exists as a directory, it succeeds and
// returns it. Fails with NotADirectory if an existing path component
// is not a directory. Partial failures leave the tree in whatever
// state was reached — MakeDirs is not all-or-nothing, matching
// mkdir -p.
func (e *Engine) MakeDirs(path string, mode uint32) (*Directory, error) {
	const op = "makedirs"
	components, err := parsePath(op, path)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.tree.root()
	for i, name := range components {
		if current.kind != KindDir {
			return nil, newError(NotADirectory, op, "/"+joinN(components, i), nil)
		}
		childIno, exists := current.children[name]
		if !exists {
			now := e.clock.Now()
			n := e.tree.constructDir(current.ino, name, mode&0o7777, now)
			e.tree.insertChild(current, n)
			current.mtime = now
			current.ctime = now
			current = n
			continue
		}
		child := e.tree.nodes[childIno]
		if i == len(components)-1 && child.kind != KindDir {
			return nil, newError(NotADirectory, op, path, nil)
		}
		current = child
	}

	if current.kind != KindDir {
		return nil, newError(NotADirectory, op, path, nil)
	}
	return wrapHandle(e, current).(*Directory), nil
}

// Get resolves path structurally, without following symlinks on any
// component, and returns a handle to whichever kind of node lives
// there.
func (e *Engine) Get(path string) (Handle, error) {
	const op = "get"
	components, err := parsePath(op, path)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	n, err := e.resolve(op, components)
	if err != nil {
		return nil, err
	}
	return wrapHandle(e, n), nil
}

// Exists reports whether path resolves to a live node. It is total:
// it never returns an error, including for malformed paths.
func (e *Engine) Exists(path string) bool {
	components, err := parsePath("exists", path)
	if err != nil {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, err = e.resolve("exists", components)
	return err == nil
}

// Symlink creates a symlink at path whose target is stored verbatim,
// with no validation of existence or reachability.
func (e *Engine) Symlink(target string, path string) (*Symlink, error) {
	const op = "symlink"
	components, err := parsePath(op, path)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	parent, name, err := e.resolveParent(op, components)
	if err != nil {
		return nil, err
	}
	if _, exists := parent.children[name]; exists {
		return nil, newError(AlreadyExists, op, path, nil)
	}

	now := e.clock.Now()
	n := e.tree.constructSymlink(parent.ino, name, []byte(target), now)
	e.tree.insertChild(parent, n)
	parent.mtime = now
	parent.ctime = now

	return wrapHandle(e, n).(*Symlink), nil
}

// Readlink returns the symlink target at path, failing NotASymlink if
// the node there is not a symlink.
func (e *Engine) Readlink(path string) (string, error) {
	const op = "readlink"
	components, err := parsePath(op, path)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	n, err := e.resolve(op, components)
	if err != nil {
		return "", err
	}
	if n.kind != KindSymlink {
		return "", newError(NotASymlink, op, path, nil)
	}
	n.atime = e.clock.Now()
	return string(n.target), nil
}

// IsSymlink reports whether path resolves to a symlink. Total.
func (e *Engine) IsSymlink(path string) bool {
	components, err := parsePath("is_symlink", path)
	if err != nil {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	n, err := e.resolve("is_symlink", components)
	if err != nil {
		return false
	}
	return n.kind == KindSymlink
}

// RemoveFile removes a file or symlink. Fails IsADirectory if path
// names a directory.
func (e *Engine) RemoveFile(path string) error {
	const op = "remove_file"
	components, err := parsePath(op, path)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	parent, name, err := e.resolveParent(op, components)
	if err != nil {
		return err
	}
	childIno, exists := parent.children[name]
	if !exists {
		return newError(NotFound, op, path, nil)
	}
	child := e.tree.nodes[childIno]
	if child.kind == KindDir {
		return newError(IsADirectory, op, path, nil)
	}

	e.tree.removeChild(parent, name)
	child.detached = true
	now := e.clock.Now()
	parent.mtime = now
	parent.ctime = now
	e.tree.destroyNodeIfOrphaned(child)
	return nil
}

// RemoveDir removes an empty directory. Fails NotEmpty if it has
// children, NotADirectory if path is not a directory, and
// InvalidArgument on the root.
func (e *Engine) RemoveDir(path string) error {
	const op = "remove_dir"
	components, err := parsePath(op, path)
	if err != nil {
		return err
	}
	if len(components) == 0 {
		return newError(InvalidArgument, op, path, nil)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	parent, name, err := e.resolveParent(op, components)
	if err != nil {
		return err
	}
	childIno, exists := parent.children[name]
	if !exists {
		return newError(NotFound, op, path, nil)
	}
	child := e.tree.nodes[childIno]
	if child.kind != KindDir {
		return newError(NotADirectory, op, path, nil)
	}
	if len(child.children) > 0 {
		return newError(NotEmpty, op, path, nil)
	}

	e.tree.removeChild(parent, name)
	child.detached = true
	now := e.clock.Now()
	parent.mtime = now
	parent.ctime = now
	e.tree.destroyNodeIfOrphaned(child)
	return nil
}

// ListDir returns the names of path's children. Order is unspecified
// but stable within a single call. Fails NotADirectory otherwise.
func (e *Engine) ListDir(path string) ([]string, error) {
	const op = "listdir"
	components, err := parsePath(op, path)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	n, err := e.resolve(op, components)
	if err != nil {
		return nil, err
	}
	if n.kind != KindDir {
		return nil, newError(NotADirectory, op, path, nil)
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	return names, nil
}

// Rename atomically moves the node at old to new, preserving node
// identity and inode number. See spec.md §4.3 for the full rule set:
// same-kind replacement is allowed, cross-kind and non-empty-dir
// replacement are rejected, and a directory cannot be renamed under
// itself or a descendant.
func (e *Engine) Rename(oldPath, newPath string) error {
	const op = "rename"
	oldComponents, err := parsePath(op, oldPath)
	if err != nil {
		return err
	}
	newComponents, err := parsePath(op, newPath)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	oldParent, oldName, err := e.resolveParent(op, oldComponents)
	if err != nil {
		return err
	}
	movedIno, exists := oldParent.children[oldName]
	if !exists {
		return newError(NotFound, op, oldPath, nil)
	}
	moved := e.tree.nodes[movedIno]

	newParent, newName, err := e.resolveParent(op, newComponents)
	if err != nil {
		return err
	}

	if moved.kind == KindDir && isSelfOrDescendant(e.tree, moved, newParent) {
		return newError(InvalidArgument, op, newPath, nil)
	}

	var replaced *node
	if existingIno, exists := newParent.children[newName]; exists {
		replaced = e.tree.nodes[existingIno]
		if replaced.ino == moved.ino {
			// Renaming a path onto itself is a no-op.
			return nil
		}
		if replaced.kind != moved.kind {
			return newError(InvalidArgument, op, newPath, nil)
		}
		if replaced.kind == KindDir && len(replaced.children) > 0 {
			return newError(NotEmpty, op, newPath, nil)
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

// isSelfOrDescendant reports whether candidate is n itself or lies
// somewhere under n in the tree, by walking candidate's ancestors.
func isSelfOrDescendant(t *tree, n *node, candidate *node) bool {
	for cur := candidate; ; {
		if cur.ino == n.ino {
			return true
		}
		if cur.ino == 1 {
			return false
		}
		cur = t.nodes[cur.parent]
	}
}

// Stat is a read-only metadata projection of path, equivalent to
// Get(path).Info() without holding a handle open afterward.
func (e *Engine) Stat(path string) (NodeInfo, error) {
	const op = "stat"
	components, err := parsePath(op, path)
	if err != nil {
		return NodeInfo{}, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	n, err := e.resolve(op, components)
	if err != nil {
		return NodeInfo{}, err
	}
	return infoFrom(n, e.tree), nil
}

// WalkFunc is called once per node visited by Walk, in some
// depth-first order. Returning an error stops the walk early.
type WalkFunc func(path string, info NodeInfo) error

// Walk visits root and every descendant, calling fn for each. It is
// built entirely from ListDir/Stat and introduces no new invariant.
func (e *Engine) Walk(root string, fn WalkFunc) error {
	info, err := e.Stat(root)
	if err != nil {
		return err
	}
	if err := fn(root, info); err != nil {
		return err
	}
	if info.Kind != KindDir {
		return nil
	}
	names, err := e.ListDir(root)
	if err != nil {
		return err
	}
	for _, name := range names {
		var childPath string
		if root == "/" {
			childPath = "/" + name
		} else {
			childPath = root + "/" + name
		}
		if err := e.Walk(childPath, fn); err != nil {
			return err
		}
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
