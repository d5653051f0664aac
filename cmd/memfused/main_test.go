// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigPrefersExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memfuse.yaml")
	if err := os.WriteFile(path, []byte("mount_point: /mnt/memfuse\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.MountPoint != "/mnt/memfuse" {
		t.Errorf("MountPoint = %q, want %q", cfg.MountPoint, "/mnt/memfuse")
	}
}

func TestLoadConfigFallsBackToEnvironment(t *testing.T) {
	orig := os.Getenv("MEMFUSE_CONFIG")
	defer os.Setenv("MEMFUSE_CONFIG", orig)
	os.Unsetenv("MEMFUSE_CONFIG")

	if _, err := loadConfig(""); err == nil {
		t.Fatal("expected an error when neither --config nor MEMFUSE_CONFIG is set")
	}
}
