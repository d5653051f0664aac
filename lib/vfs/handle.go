// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

// Handle is a caller-visible reference to a live node. It keeps the
// node's arena slot alive (via a refcount) independent of whether the
// node is still attached to its parent, matching POSIX open-unlink
// semantics: reads and writes through a handle continue to succeed
// after the path that produced it has been removed.
//
// A Handle re-acquires the engine's lock on every field access; it
// must not outlive the Engine that produced it.
type Handle interface {
	Ino() Ino
	Kind() Kind
	Info() (NodeInfo, error)
	// Debug returns a best-effort, read-only summary of the node's
	// current state for diagnostics (cmd/memfusectl browse). Its keys are not part of any stability
	// contract and it never participates in engine invariants.
	Debug() (map[string]any, error)
	// Close releases this handle's hold on the node's arena slot. A
	// detached node with no remaining handles is deleted from the
	// arena on the Close that drops its refcount to zero.
	Close()
}

// wrapHandle increments n's refcount and returns the handle
// appropriate to its kind. Callers must hold e.mu for writing.
func wrapHandle(e *Engine, n *node) Handle {
	n.refcount++
	switch n.kind {
	case KindFile:
		return &File{engine: e, ino: n.ino}
	case KindDir:
		return &Directory{engine: e, ino: n.ino}
	case KindSymlink:
		return &Symlink{engine: e, ino: n.ino}
	default:
		panic("vfs: unknown node kind")
	}
}

func (e *Engine) closeHandle(ino Ino) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.tree.nodes[ino]
	if !ok {
		return
	}
	n.refcount--
	e.tree.destroyNodeIfOrphaned(n)
}

// File is a handle to a live file node.
type File struct {
	engine *Engine
	ino    Ino
}

// Ino returns the file's stable inode number.
func (f *File) Ino() Ino { return f.ino }

// Kind always returns KindFile.
func (f *File) Kind() Kind { return KindFile }

// Info returns a metadata snapshot, or a NotFound error if the node
// has since been fully destroyed (only possible after Close).
func (f *File) Info() (NodeInfo, error) { return infoOf(f.engine, f.ino, "stat") }

// Close releases this handle.
func (f *File) Close() { f.engine.closeHandle(f.ino) }

// Debug returns a diagnostic summary of the file's current state.
func (f *File) Debug() (map[string]any, error) {
	info, err := f.Info()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"inode": info.Ino,
		"kind":  info.Kind.String(),
		"mode":  info.Mode,
		"nlink": info.Nlink,
		"size":  info.Size,
	}, nil
}

// Read returns a copy of the file's current content.
func (f *File) Read() ([]byte, error) {
	f.engine.mu.Lock()
	defer f.engine.mu.Unlock()
	n, err := f.engine.mustNode(f.ino, "read")
	if err != nil {
		return nil, err
	}
	n.atime = f.engine.clock.Now()
	out := make([]byte, len(n.content))
	copy(out, n.content)
	return out, nil
}

// Write replaces the file's content wholesale and updates mtime/ctime.
func (f *File) Write(data []byte) error {
	f.engine.mu.Lock()
	defer f.engine.mu.Unlock()
	n, err := f.engine.mustNode(f.ino, "write")
	if err != nil {
		return err
	}
	content := make([]byte, len(data))
	copy(content, data)
	n.content = content
	now := f.engine.clock.Now()
	n.mtime = now
	n.ctime = now
	return nil
}

// Truncate sets the file's length to n. Bytes beyond the prior length
// are zero-filled.
func (f *File) Truncate(size int) error {
	f.engine.mu.Lock()
	defer f.engine.mu.Unlock()
	n, err := f.engine.mustNode(f.ino, "truncate")
	if err != nil {
		return err
	}
	if size < 0 {
		return newError(InvalidArgument, "truncate", "", nil)
	}
	switch {
	case size < len(n.content):
		n.content = n.content[:size]
	case size > len(n.content):
		grown := make([]byte, size)
		copy(grown, n.content)
		n.content = grown
	}
	now := f.engine.clock.Now()
	n.mtime = now
	n.ctime = now
	return nil
}

// WriteAt patches data into the file's content at offset, zero-filling
// any gap if offset lies beyond the current length, then commits the
// result as the new content in a single locked critical section. This
// is how the FUSE adapter supports the kernel's offset-addressed
// Write callback on top of the wholesale-replace Write contract above:
// a pwrite() at an arbitrary offset is a read-patch-write against the
// same node, done atomically so concurrent writers cannot interleave.
func (f *File) WriteAt(data []byte, offset int64) error {
	f.engine.mu.Lock()
	defer f.engine.mu.Unlock()
	n, err := f.engine.mustNode(f.ino, "write")
	if err != nil {
		return err
	}
	if offset < 0 {
		return newError(InvalidArgument, "write", "", nil)
	}
	end := offset + int64(len(data))
	if end > int64(len(n.content)) {
		grown := make([]byte, end)
		copy(grown, n.content)
		n.content = grown
	}
	copy(n.content[offset:end], data)
	now := f.engine.clock.Now()
	n.mtime = now
	n.ctime = now
	return nil
}

// ReadAt returns up to len(dest) bytes of content starting at offset,
// returning the slice actually filled. Matches io.ReaderAt semantics
// except that reading past end-of-file returns (0, nil) rather than
// io.EOF, since the FUSE Read callback signals end-of-file with a
// short (possibly zero-length) result rather than an error.
func (f *File) ReadAt(dest []byte, offset int64) (int, error) {
	f.engine.mu.Lock()
	defer f.engine.mu.Unlock()
	n, err := f.engine.mustNode(f.ino, "read")
	if err != nil {
		return 0, err
	}
	n.atime = f.engine.clock.Now()
	if offset < 0 || offset >= int64(len(n.content)) {
		return 0, nil
	}
	count := copy(dest, n.content[offset:])
	return count, nil
}

// Size returns the current content length.
func (f *File) Size() (uint64, error) {
	info, err := f.Info()
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// Mode returns the file's permission bits.
func (f *File) Mode() (uint32, error) {
	info, err := f.Info()
	if err != nil {
		return 0, err
	}
	return info.Mode, nil
}

// SetMode updates the file's permission bits (metadata change: ctime
// updates, mtime does not).
func (f *File) SetMode(mode uint32) error { return f.engine.setMode(f.ino, mode) }

// Directory is a handle to a live directory node.
type Directory struct {
	engine *Engine
	ino    Ino
}

// Ino returns the directory's stable inode number.
func (d *Directory) Ino() Ino { return d.ino }

// Kind always returns KindDir.
func (d *Directory) Kind() Kind { return KindDir }

// Info returns a metadata snapshot.
func (d *Directory) Info() (NodeInfo, error) { return infoOf(d.engine, d.ino, "stat") }

// Close releases this handle.
func (d *Directory) Close() { d.engine.closeHandle(d.ino) }

// Debug returns a diagnostic summary of the directory's current
// state, including its live child count.
func (d *Directory) Debug() (map[string]any, error) {
	info, err := d.Info()
	if err != nil {
		return nil, err
	}
	children, err := d.Children()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"inode":       info.Ino,
		"kind":        info.Kind.String(),
		"mode":        info.Mode,
		"nlink":       info.Nlink,
		"child_count": len(children),
	}, nil
}

// Children returns a read-only snapshot of the directory's current
// child names mapped to inode numbers. Mutating the returned map has
// no effect on the tree — per spec.md §9's resolved open question,
// children is a read-only view; mutation happens only through engine
// operations.
func (d *Directory) Children() (map[string]Ino, error) {
	d.engine.mu.RLock()
	defer d.engine.mu.RUnlock()
	n, err := d.engine.mustNode(d.ino, "listdir")
	if err != nil {
		return nil, err
	}
	out := make(map[string]Ino, len(n.children))
	for name, ino := range n.children {
		out[name] = ino
	}
	return out, nil
}

// Mode returns the directory's permission bits.
func (d *Directory) Mode() (uint32, error) {
	info, err := d.Info()
	if err != nil {
		return 0, err
	}
	return info.Mode, nil
}

// SetMode updates the directory's permission bits.
func (d *Directory) SetMode(mode uint32) error { return d.engine.setMode(d.ino, mode) }

// Symlink is a handle to a live symlink node.
type Symlink struct {
	engine *Engine
	ino    Ino
}

// Ino returns the symlink's stable inode number.
func (s *Symlink) Ino() Ino { return s.ino }

// Kind always returns KindSymlink.
func (s *Symlink) Kind() Kind { return KindSymlink }

// Info returns a metadata snapshot.
func (s *Symlink) Info() (NodeInfo, error) { return infoOf(s.engine, s.ino, "stat") }

// Close releases this handle.
func (s *Symlink) Close() { s.engine.closeHandle(s.ino) }

// Debug returns a diagnostic summary of the symlink's current state,
// including its target.
func (s *Symlink) Debug() (map[string]any, error) {
	info, err := s.Info()
	if err != nil {
		return nil, err
	}
	target, err := s.Target()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"inode":  info.Ino,
		"kind":   info.Kind.String(),
		"mode":   info.Mode,
		"nlink":  info.Nlink,
		"target": string(target),
	}, nil
}

// Target returns the symlink's stored target, verbatim and
// unresolved. The target is immutable after creation.
func (s *Symlink) Target() ([]byte, error) {
	s.engine.mu.RLock()
	defer s.engine.mu.RUnlock()
	n, err := s.engine.mustNode(s.ino, "readlink")
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(n.target))
	copy(out, n.target)
	return out, nil
}

// mustNode looks up ino, returning a NotFound *Error if it is no
// longer live. Callers must hold e.mu (read or write).
func (e *Engine) mustNode(ino Ino, op string) (*node, error) {
	n, ok := e.tree.nodes[ino]
	if !ok {
		return nil, newError(NotFound, op, "", nil)
	}
	return n, nil
}

func infoOf(e *Engine, ino Ino, op string) (NodeInfo, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n, err := e.mustNode(ino, op)
	if err != nil {
		return NodeInfo{}, err
	}
	return infoFrom(n, e.tree), nil
}

func (e *Engine) setMode(ino Ino, mode uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.mustNode(ino, "chmod")
	if err != nil {
		return err
	}
	n.mode = mode & 0o7777
	n.ctime = e.clock.Now()
	return nil
}
