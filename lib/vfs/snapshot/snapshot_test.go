// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bytes"
	"testing"
	"time"

	"github.com/coldbrew-systems/memfuse/lib/clock"
	"github.com/coldbrew-systems/memfuse/lib/codec"
	"github.com/coldbrew-systems/memfuse/lib/vfs"
)

var testTimestamp = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestEngine() *vfs.Engine {
	return vfs.NewWithClock(clock.Fake(testTimestamp))
}

func buildSampleTree(t *testing.T, engine *vfs.Engine) {
	t.Helper()
	if _, err := engine.MakeDirs("/a/b", 0o755); err != nil {
		t.Fatalf("MakeDirs: %v", err)
	}
	file, err := engine.CreateFile("/a/b/c.txt", []byte("hello world"), 0o644)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	file.Close()
	link, err := engine.Symlink("/a/b/c.txt", "/a/link")
	if err != nil {
		t.Fatalf("Symlink: %v", err)
	}
	link.Close()
}

func TestCollectVisitsEveryNodeInSortedOrder(t *testing.T) {
	engine := newTestEngine()
	buildSampleTree(t, engine)

	snap, err := Collect(engine)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	var paths []string
	for _, entry := range snap.Entries {
		paths = append(paths, entry.Path)
	}
	want := []string{"/", "/a", "/a/b", "/a/b/c.txt", "/a/link"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i, p := range want {
		if paths[i] != p {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], p)
		}
	}
}

func TestCollectRecordsSymlinkTarget(t *testing.T) {
	engine := newTestEngine()
	buildSampleTree(t, engine)

	snap, err := Collect(engine)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	var found bool
	for _, entry := range snap.Entries {
		if entry.Path != "/a/link" {
			continue
		}
		found = true
		if entry.Kind != vfs.KindSymlink {
			t.Errorf("kind = %v, want symlink", entry.Kind)
		}
		if entry.Target != "/a/b/c.txt" {
			t.Errorf("target = %q, want %q", entry.Target, "/a/b/c.txt")
		}
	}
	if !found {
		t.Fatal("expected an entry for /a/link")
	}
}

func TestCollectRecordsFileSize(t *testing.T) {
	engine := newTestEngine()
	buildSampleTree(t, engine)

	snap, err := Collect(engine)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	for _, entry := range snap.Entries {
		if entry.Path == "/a/b/c.txt" {
			if entry.Size != uint64(len("hello world")) {
				t.Errorf("size = %d, want %d", entry.Size, len("hello world"))
			}
			return
		}
	}
	t.Fatal("expected an entry for /a/b/c.txt")
}

func TestExportIsDeterministic(t *testing.T) {
	engine := newTestEngine()
	buildSampleTree(t, engine)

	first, err := Export(engine)
	if err != nil {
		t.Fatalf("first Export: %v", err)
	}
	second, err := Export(engine)
	if err != nil {
		t.Fatalf("second Export: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("Export is not deterministic: %x != %x", first, second)
	}
}

func TestExportDecodeRoundtrip(t *testing.T) {
	engine := newTestEngine()
	buildSampleTree(t, engine)

	data, err := Export(engine)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	snap, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(snap.Entries) != 5 {
		t.Fatalf("len(Entries) = %d, want 5", len(snap.Entries))
	}
}

func TestDecodeRejectsUnsupportedVersion(t *testing.T) {
	future := Snapshot{Version: formatVersion + 1}
	data, err := codec.Marshal(future)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := Decode(data); err == nil {
		t.Fatal("expected an error for an unsupported format version")
	}
}
