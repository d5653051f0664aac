// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot produces a point-in-time, in-memory manifest of a
// *vfs.Engine's tree: paths, kinds, sizes, modes, and mtimes. It is a
// one-way diagnostic export, not a persistence mechanism — nothing
// reads a snapshot back into an engine. Its purpose is introspection:
// cmd/memfusectl and tests use it to assert on or display the whole
// tree's shape without walking it by hand, the same way lib/codec's
// deterministic CBOR is used elsewhere for reproducible wire output
// rather than storage.
package snapshot

import (
	"fmt"
	"sort"

	"github.com/coldbrew-systems/memfuse/lib/codec"
	"github.com/coldbrew-systems/memfuse/lib/vfs"
)

// formatVersion identifies the entry encoding below. Bump it whenever
// the Entry shape changes in a way that would break a consumer
// decoding an older export.
const formatVersion = 1

// Snapshot is the top-level exported document. Entries are listed in
// a fixed pre-order (root first, then children in name order at every
// level), so two exports of the same engine state always produce
// byte-identical CBOR via codec's deterministic encoding.
type Snapshot struct {
	Version uint32  `cbor:"version"`
	Entries []Entry `cbor:"entries"`
}

// Entry is one node's metadata as of the export. Path is the entry's
// full path from the root, which also fixes tree position without
// needing separate parent pointers in the output.
type Entry struct {
	Path  string   `cbor:"path"`
	Ino   vfs.Ino  `cbor:"ino"`
	Kind  vfs.Kind `cbor:"kind"`
	Mode  uint32   `cbor:"mode"`
	Nlink uint32   `cbor:"nlink"`
	Size  uint64   `cbor:"size"`
	Mtime int64    `cbor:"mtime"` // Unix nanoseconds

	// Target holds a symlink's target string. Empty for files and
	// directories.
	Target string `cbor:"target,omitempty"`
}

// Export walks engine from root and returns a deterministic CBOR
// encoding of its tree's metadata.
func Export(engine *vfs.Engine) ([]byte, error) {
	snap, err := Collect(engine)
	if err != nil {
		return nil, err
	}
	data, err := codec.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encoding: %w", err)
	}
	return data, nil
}

// Collect walks engine from root and builds the Snapshot value
// without encoding it, for callers (Export, and this package's tests)
// that want the structured entries directly rather than CBOR bytes.
func Collect(engine *vfs.Engine) (Snapshot, error) {
	snap := Snapshot{Version: formatVersion}

	err := walkSorted(engine, "/", func(path string, info vfs.NodeInfo) error {
		entry := Entry{
			Path:  path,
			Ino:   info.Ino,
			Kind:  info.Kind,
			Mode:  info.Mode,
			Nlink: info.Nlink,
			Size:  info.Size,
			Mtime: info.Mtime.UnixNano(),
		}

		if info.Kind == vfs.KindSymlink {
			target, err := engine.Readlink(path)
			if err != nil {
				return fmt.Errorf("snapshot: reading target of %s: %w", path, err)
			}
			entry.Target = target
		}

		snap.Entries = append(snap.Entries, entry)
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Decode parses a CBOR export produced by Export.
func Decode(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := codec.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: decoding: %w", err)
	}
	if snap.Version != formatVersion {
		return Snapshot{}, fmt.Errorf("snapshot: unsupported format version %d", snap.Version)
	}
	return snap, nil
}

// walkSorted is vfs.Engine.Walk with children visited in
// lexicographic name order at every level, so Export's output is
// stable across calls regardless of the tree's internal map iteration
// order.
func walkSorted(engine *vfs.Engine, root string, fn func(path string, info vfs.NodeInfo) error) error {
	info, err := engine.Stat(root)
	if err != nil {
		return err
	}
	if err := fn(root, info); err != nil {
		return err
	}
	if info.Kind != vfs.KindDir {
		return nil
	}
	names, err := engine.ListDir(root)
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		var childPath string
		if root == "/" {
			childPath = "/" + name
		} else {
			childPath = root + "/" + name
		}
		if err := walkSorted(engine, childPath, fn); err != nil {
			return err
		}
	}
	return nil
}
