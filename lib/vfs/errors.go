// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import "fmt"

// ErrorKind is the closed taxonomy of engine error kinds from which
// every operation failure is drawn. The FUSE adapter maps each kind
// to a POSIX errno; the boundary layer maps each to a host-language
// exception.
type ErrorKind string

// The closed set of engine error kinds.
const (
	NotFound        ErrorKind = "not-found"
	AlreadyExists   ErrorKind = "already-exists"
	NotADirectory   ErrorKind = "not-a-directory"
	IsADirectory    ErrorKind = "is-a-directory"
	NotEmpty        ErrorKind = "not-empty"
	NotASymlink     ErrorKind = "not-a-symlink"
	BadPath         ErrorKind = "bad-path"
	InvalidArgument ErrorKind = "invalid-argument"
)

// Error is the single error family engine operations return. It
// carries a closed Kind plus enough context to form a human message.
type Error struct {
	Kind ErrorKind
	Op   string // operation name, e.g. "create_file"
	Path string
	Err  error // optional wrapped cause (e.g. from an underlying primitive)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vfs: %s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("vfs: %s %s: %s", e.Op, e.Path, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, vfs.KindError(vfs.NotFound)) style
// classification by kind. ErrorKind itself is not an error; the
// kindSentinel wrapper below is what errors.Is compares against.
func (e *Error) Is(target error) bool {
	if kindErr, ok := target.(kindSentinel); ok {
		return e.Kind == kindErr.kind
	}
	return false
}

// kindSentinel lets callers write errors.Is(err, vfs.KindError(NotFound))
// without constructing a full *Error.
type kindSentinel struct{ kind ErrorKind }

func (k kindSentinel) Error() string { return string(k.kind) }

// KindError returns a sentinel usable with errors.Is to test whether
// an error carries the given Kind, regardless of Op/Path/Err.
func KindError(kind ErrorKind) error { return kindSentinel{kind: kind} }

func newError(kind ErrorKind, op, path string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: cause}
}

// NewError constructs a *Error for callers outside this package that
// need to report a failure the engine itself never observes directly
// (e.g. the FUSE adapter rejecting Readlink against a non-symlink, or
// Open against a non-file). Use KindError instead when the only need
// is an errors.Is match target, not a real error to return.
func NewError(kind ErrorKind, op, path string, cause error) *Error {
	return newError(kind, op, path, cause)
}
