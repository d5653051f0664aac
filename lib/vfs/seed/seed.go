// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

// Package seed loads a filesystem tree into a *vfs.Engine from a
// JSONC manifest: a single file describing the directories, files,
// and symlinks to create before a mount is handed to a client. This
// is how test fixtures and preconfigured mounts are constructed
// without a client having to make hundreds of individual create
// calls over the wire.
package seed

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/coldbrew-systems/memfuse/lib/vfs"
)

// Manifest is the top-level JSONC document. Entries are applied in
// order, so a manifest can rely on an earlier directory entry having
// already created a path a later entry writes into.
type Manifest struct {
	Entries []Entry `json:"entries"`
}

// Entry describes one node to create. Exactly one of the
// content-bearing fields is meaningful for a given Kind:
// Content/ContentBase64 for "file", Target for "symlink", neither for
// "dir".
type Entry struct {
	Path string `json:"path"`
	Kind string `json:"kind"` // "file", "dir", or "symlink"
	Mode uint32 `json:"mode,omitempty"`

	// Content is used verbatim for a file entry's bytes when
	// present. Use ContentBase64 instead for content that is not
	// valid UTF-8 or JSON-safe text.
	Content string `json:"content,omitempty"`
	// ContentBase64 is decoded and used as a file entry's bytes when
	// Content is empty.
	ContentBase64 string `json:"content_base64,omitempty"`

	// Target is the symlink target for a "symlink" entry, stored
	// verbatim and never validated.
	Target string `json:"target,omitempty"`
}

// Parse strips JSONC comments and trailing commas from data and
// unmarshals the result into a Manifest.
func Parse(data []byte) (*Manifest, error) {
	stripped := jsonc.ToJSON(data)
	var manifest Manifest
	if err := json.Unmarshal(stripped, &manifest); err != nil {
		return nil, fmt.Errorf("parsing seed manifest: %w", err)
	}
	return &manifest, nil
}

// ReadFile reads and parses a JSONC seed manifest from disk.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	manifest, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return manifest, nil
}

// Apply creates every entry in the manifest, in order, on engine.
// Directory entries use MakeDirs so intermediate components need not
// be listed explicitly; file and symlink entries require their
// parent directory to already exist.
func Apply(engine *vfs.Engine, manifest *Manifest) error {
	for i, entry := range manifest.Entries {
		mode := entry.Mode
		if mode == 0 {
			mode = defaultModeFor(entry.Kind)
		}
		switch entry.Kind {
		case "dir":
			dir, err := engine.MakeDirs(entry.Path, mode)
			if err != nil {
				return fmt.Errorf("seed entry %d (%s): %w", i, entry.Path, err)
			}
			dir.Close()
		case "file":
			content, err := entry.decodedContent()
			if err != nil {
				return fmt.Errorf("seed entry %d (%s): %w", i, entry.Path, err)
			}
			file, err := engine.CreateFile(entry.Path, content, mode)
			if err != nil {
				return fmt.Errorf("seed entry %d (%s): %w", i, entry.Path, err)
			}
			file.Close()
		case "symlink":
			link, err := engine.Symlink(entry.Target, entry.Path)
			if err != nil {
				return fmt.Errorf("seed entry %d (%s): %w", i, entry.Path, err)
			}
			link.Close()
		default:
			return fmt.Errorf("seed entry %d (%s): unknown kind %q", i, entry.Path, entry.Kind)
		}
	}
	return nil
}

func (e Entry) decodedContent() ([]byte, error) {
	if e.Content != "" {
		return []byte(e.Content), nil
	}
	if e.ContentBase64 != "" {
		return base64.StdEncoding.DecodeString(e.ContentBase64)
	}
	return nil, nil
}

func defaultModeFor(kind string) uint32 {
	if kind == "dir" {
		return 0o755
	}
	return 0o644
}
