// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"testing"
	"time"

	"github.com/coldbrew-systems/memfuse/lib/clock"
)

var testTimestamp = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return NewWithClock(clock.Fake(testTimestamp))
}

func TestNewEngineHasEmptyRoot(t *testing.T) {
	e := newTestEngine()
	info, err := e.Stat("/")
	if err != nil {
		t.Fatalf("Stat(/): %v", err)
	}
	if info.Kind != KindDir {
		t.Fatalf("root kind = %v, want dir", info.Kind)
	}
	if info.Ino != 1 {
		t.Fatalf("root ino = %d, want 1", info.Ino)
	}
	if info.Nlink != 2 {
		t.Fatalf("root nlink = %d, want 2", info.Nlink)
	}
}

func TestCreateFileAndRead(t *testing.T) {
	e := newTestEngine()
	handle, err := e.CreateFile("/a.txt", []byte("hello"), 0o644)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	defer handle.Close()

	content, err := handle.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(content) != "hello" {
		t.Fatalf("content = %q, want %q", content, "hello")
	}
}

func TestCreateFileRejectsDuplicate(t *testing.T) {
	e := newTestEngine()
	if _, err := e.CreateFile("/a.txt", nil, 0o644); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	_, err := e.CreateFile("/a.txt", nil, 0o644)
	if !errors.Is(err, KindError(AlreadyExists)) {
		t.Fatalf("err = %v, want AlreadyExists", err)
	}
}

func TestCreateFileRejectsMissingParent(t *testing.T) {
	e := newTestEngine()
	_, err := e.CreateFile("/missing/a.txt", nil, 0o644)
	if !errors.Is(err, KindError(NotFound)) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestCreateFileRejectsNonDirParent(t *testing.T) {
	e := newTestEngine()
	if _, err := e.CreateFile("/a.txt", nil, 0o644); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	_, err := e.CreateFile("/a.txt/b.txt", nil, 0o644)
	if !errors.Is(err, KindError(NotADirectory)) {
		t.Fatalf("err = %v, want NotADirectory", err)
	}
}

func TestMakeDirsCreatesIntermediates(t *testing.T) {
	e := newTestEngine()
	dir, err := e.MakeDirs("/a/b/c", 0o755)
	if err != nil {
		t.Fatalf("MakeDirs: %v", err)
	}
	defer dir.Close()
	if !e.Exists("/a") || !e.Exists("/a/b") || !e.Exists("/a/b/c") {
		t.Fatal("expected all intermediate directories to exist")
	}
}

func TestMakeDirsIsIdempotent(t *testing.T) {
	e := newTestEngine()
	if _, err := e.MakeDirs("/a/b", 0o755); err != nil {
		t.Fatalf("MakeDirs: %v", err)
	}
	if _, err := e.MakeDirs("/a/b", 0o755); err != nil {
		t.Fatalf("second MakeDirs: %v", err)
	}
}

func TestMakeDirsFailsOnFileComponent(t *testing.T) {
	e := newTestEngine()
	if _, err := e.CreateFile("/a", nil, 0o644); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	_, err := e.MakeDirs("/a/b", 0o755)
	if !errors.Is(err, KindError(NotADirectory)) {
		t.Fatalf("err = %v, want NotADirectory", err)
	}
}

func TestDirectoryNlinkCountsSubdirectories(t *testing.T) {
	e := newTestEngine()
	if _, err := e.CreateDir("/a", 0o755); err != nil {
		t.Fatalf("CreateDir: %v", err)
	}
	if _, err := e.CreateDir("/b", 0o755); err != nil {
		t.Fatalf("CreateDir: %v", err)
	}
	if _, err := e.CreateFile("/c.txt", nil, 0o644); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	info, err := e.Stat("/")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Nlink != 4 { // 2 base + 2 subdirectories
		t.Fatalf("root nlink = %d, want 4", info.Nlink)
	}
}

func TestSymlinkAndReadlink(t *testing.T) {
	e := newTestEngine()
	link, err := e.Symlink("/a/b/c", "/link")
	if err != nil {
		t.Fatalf("Symlink: %v", err)
	}
	defer link.Close()

	target, err := e.Readlink("/link")
	if err != nil {
		t.Fatalf("Readlink: %v", err)
	}
	if target != "/a/b/c" {
		t.Fatalf("target = %q, want %q", target, "/a/b/c")
	}
	if !e.IsSymlink("/link") {
		t.Fatal("expected IsSymlink true")
	}
}

func TestSymlinkTargetIsNeverValidated(t *testing.T) {
	e := newTestEngine()
	// Target does not exist and is never resolved; Symlink still
	// succeeds, matching POSIX symlink() semantics.
	if _, err := e.Symlink("/does/not/exist", "/link"); err != nil {
		t.Fatalf("Symlink: %v", err)
	}
}

func TestReadlinkOnNonSymlinkFails(t *testing.T) {
	e := newTestEngine()
	if _, err := e.CreateFile("/a.txt", nil, 0o644); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	_, err := e.Readlink("/a.txt")
	if !errors.Is(err, KindError(NotASymlink)) {
		t.Fatalf("err = %v, want NotASymlink", err)
	}
}

func TestRemoveFileRejectsDirectory(t *testing.T) {
	e := newTestEngine()
	if _, err := e.CreateDir("/a", 0o755); err != nil {
		t.Fatalf("CreateDir: %v", err)
	}
	err := e.RemoveFile("/a")
	if !errors.Is(err, KindError(IsADirectory)) {
		t.Fatalf("err = %v, want IsADirectory", err)
	}
}

func TestRemoveDirRejectsNonEmpty(t *testing.T) {
	e := newTestEngine()
	if _, err := e.CreateDir("/a", 0o755); err != nil {
		t.Fatalf("CreateDir: %v", err)
	}
	if _, err := e.CreateFile("/a/b.txt", nil, 0o644); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	err := e.RemoveDir("/a")
	if !errors.Is(err, KindError(NotEmpty)) {
		t.Fatalf("err = %v, want NotEmpty", err)
	}
}

func TestRemoveDirRejectsRoot(t *testing.T) {
	e := newTestEngine()
	err := e.RemoveDir("/")
	if !errors.Is(err, KindError(InvalidArgument)) {
		t.Fatalf("err = %v, want InvalidArgument", err)
	}
}

func TestOpenUnlinkKeepsContentAccessibleUntilClose(t *testing.T) {
	e := newTestEngine()
	handle, err := e.CreateFile("/a.txt", []byte("payload"), 0o644)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	if err := e.RemoveFile("/a.txt"); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	if e.Exists("/a.txt") {
		t.Fatal("expected /a.txt to be gone from the tree")
	}

	content, err := handle.Read()
	if err != nil {
		t.Fatalf("Read after unlink: %v", err)
	}
	if string(content) != "payload" {
		t.Fatalf("content = %q, want %q", content, "payload")
	}

	handle.Close()
	// The node is now fully destroyed; a fresh lookup by the same
	// (reused-would-be) path must not resurrect it.
	if e.Exists("/a.txt") {
		t.Fatal("expected /a.txt still gone after Close")
	}
}

func TestRenameSameKindReplace(t *testing.T) {
	e := newTestEngine()
	if _, err := e.CreateFile("/a.txt", []byte("a"), 0o644); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if _, err := e.CreateFile("/b.txt", []byte("b"), 0o644); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := e.Rename("/a.txt", "/b.txt"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	handle, err := e.Get("/b.txt")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer handle.Close()
	content, _ := handle.(*File).Read()
	if string(content) != "a" {
		t.Fatalf("content = %q, want %q", content, "a")
	}
	if e.Exists("/a.txt") {
		t.Fatal("expected /a.txt to be gone")
	}
}

func TestRenameCrossKindFails(t *testing.T) {
	e := newTestEngine()
	if _, err := e.CreateFile("/a.txt", nil, 0o644); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if _, err := e.CreateDir("/b", 0o755); err != nil {
		t.Fatalf("CreateDir: %v", err)
	}
	err := e.Rename("/a.txt", "/b")
	if !errors.Is(err, KindError(InvalidArgument)) {
		t.Fatalf("err = %v, want InvalidArgument", err)
	}
}

func TestRenameNonEmptyDirDestinationFails(t *testing.T) {
	e := newTestEngine()
	if _, err := e.CreateDir("/a", 0o755); err != nil {
		t.Fatalf("CreateDir: %v", err)
	}
	if _, err := e.CreateDir("/b", 0o755); err != nil {
		t.Fatalf("CreateDir: %v", err)
	}
	if _, err := e.CreateFile("/b/inner.txt", nil, 0o644); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	err := e.Rename("/a", "/b")
	if !errors.Is(err, KindError(NotEmpty)) {
		t.Fatalf("err = %v, want NotEmpty", err)
	}
}

func TestRenameDirectoryUnderItselfFails(t *testing.T) {
	e := newTestEngine()
	if _, err := e.CreateDir("/a", 0o755); err != nil {
		t.Fatalf("CreateDir: %v", err)
	}
	if _, err := e.CreateDir("/a/b", 0o755); err != nil {
		t.Fatalf("CreateDir: %v", err)
	}
	err := e.Rename("/a", "/a/b/c")
	if !errors.Is(err, KindError(InvalidArgument)) {
		t.Fatalf("err = %v, want InvalidArgument", err)
	}
}

func TestRenameOntoSelfIsNoop(t *testing.T) {
	e := newTestEngine()
	if _, err := e.CreateFile("/a.txt", []byte("x"), 0o644); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := e.Rename("/a.txt", "/a.txt"); err != nil {
		t.Fatalf("Rename onto self: %v", err)
	}
}

func TestWalkVisitsEveryNode(t *testing.T) {
	e := newTestEngine()
	if _, err := e.CreateDir("/a", 0o755); err != nil {
		t.Fatalf("CreateDir: %v", err)
	}
	if _, err := e.CreateFile("/a/b.txt", nil, 0o644); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if _, err := e.CreateFile("/c.txt", nil, 0o644); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	seen := map[string]bool{}
	err := e.Walk("/", func(path string, info NodeInfo) error {
		seen[path] = true
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	for _, want := range []string{"/", "/a", "/a/b.txt", "/c.txt"} {
		if !seen[want] {
			t.Errorf("Walk did not visit %q", want)
		}
	}
}

func TestGetAndExistsAreTotalOnBadPaths(t *testing.T) {
	e := newTestEngine()
	if e.Exists("relative") {
		t.Fatal("expected Exists(relative) to be false, not panic or error")
	}
	if _, err := e.Get("relative"); !errors.Is(err, KindError(BadPath)) {
		t.Fatalf("err = %v, want BadPath", err)
	}
}

func TestInodeNumbersAreUniqueAndNeverReused(t *testing.T) {
	e := newTestEngine()
	first, err := e.CreateFile("/a.txt", nil, 0o644)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	firstIno := first.Ino()
	first.Close()
	if err := e.RemoveFile("/a.txt"); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}

	second, err := e.CreateFile("/a.txt", nil, 0o644)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	defer second.Close()
	if second.Ino() == firstIno {
		t.Fatalf("inode number %d reused", firstIno)
	}
}
