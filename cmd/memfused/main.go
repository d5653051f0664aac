// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

// memfused mounts an in-memory filesystem engine at a directory via
// FUSE and serves it until terminated. Configuration is a single YAML
// file named by --config or MEMFUSE_CONFIG; an optional JSONC seed
// manifest populates the tree before the mount is served.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/coldbrew-systems/memfuse/lib/memfsconfig"
	"github.com/coldbrew-systems/memfuse/lib/vfs"
	"github.com/coldbrew-systems/memfuse/lib/vfs/mount"
	"github.com/coldbrew-systems/memfuse/lib/vfs/seed"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var mountPointOverride string
	var showVersion bool

	flagSet := pflag.NewFlagSet("memfused", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to memfuse.yaml config file (or set MEMFUSE_CONFIG)")
	flagSet.StringVar(&mountPointOverride, "mount-point", "", "override the config file's mount_point")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Println("memfused (development build)")
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if mountPointOverride != "" {
		cfg.MountPoint = mountPointOverride
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel.SlogLevel(),
	}))
	slog.SetDefault(logger)

	engine := vfs.New()

	if cfg.SeedManifest != "" {
		manifest, err := seed.ReadFile(cfg.SeedManifest)
		if err != nil {
			return fmt.Errorf("loading seed manifest: %w", err)
		}
		if err := seed.Apply(engine, manifest); err != nil {
			return fmt.Errorf("applying seed manifest: %w", err)
		}
		logger.Info("seed manifest applied", "path", cfg.SeedManifest, "entries", len(manifest.Entries))
	}

	handle, err := mount.Mount(mount.Options{
		MountPoint:     cfg.MountPoint,
		Engine:         engine,
		AllowOther:     cfg.AllowOther,
		Logger:         logger,
		UnmountTimeout: cfg.UnmountTimeout(),
	})
	if err != nil {
		return fmt.Errorf("mounting: %w", err)
	}
	logger.Info("mounted", "mount_point", handle.MountPoint())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	if err := handle.Unmount(); err != nil {
		return fmt.Errorf("unmounting: %w", err)
	}
	return nil
}

func loadConfig(configPath string) (*memfsconfig.Config, error) {
	if configPath != "" {
		return memfsconfig.LoadFile(configPath)
	}
	return memfsconfig.Load()
}
