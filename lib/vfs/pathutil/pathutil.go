// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

// Package pathutil parses and normalizes the absolute POSIX-style
// paths accepted at the memfuse engine boundary. It never touches
// the node store: splitting and normalizing a path is pure.
package pathutil

import (
	"errors"
	"strings"
)

// ErrBadPath is returned for any path that is empty, not absolute, or
// contains a NUL byte.
var ErrBadPath = errors.New("pathutil: bad path")

// Split parses an absolute path into its ordered, normalized
// components. "." segments are omitted; ".." segments pop the prior
// component (popping past the root yields the root, i.e. an empty
// component slice). Repeated slashes collapse.
//
//	Split("/") == nil, nil
//	Split("/a//b/./c/../d") == []string{"a", "b", "d"}, nil
func Split(path string) ([]string, error) {
	if path == "" {
		return nil, ErrBadPath
	}
	if path[0] != '/' {
		return nil, ErrBadPath
	}
	if strings.IndexByte(path, 0) >= 0 {
		return nil, ErrBadPath
	}

	var components []string
	for _, segment := range strings.Split(path, "/") {
		switch segment {
		case "", ".":
			// Collapse repeated slashes and omit "." segments.
		case "..":
			if len(components) > 0 {
				components = components[:len(components)-1]
			}
		default:
			components = append(components, segment)
		}
	}
	if len(components) == 0 {
		return nil, nil
	}
	return components, nil
}

// Join reassembles components into a canonical absolute path. An
// empty component slice joins to the root, "/".
func Join(components []string) string {
	if len(components) == 0 {
		return "/"
	}
	return "/" + strings.Join(components, "/")
}

// Base returns the final component of a normalized component slice,
// or "" for the root.
func Base(components []string) string {
	if len(components) == 0 {
		return ""
	}
	return components[len(components)-1]
}

// Parent returns the components of the parent of a normalized
// component slice. The parent of the root is the root.
func Parent(components []string) []string {
	if len(components) == 0 {
		return nil
	}
	return components[:len(components)-1]
}
