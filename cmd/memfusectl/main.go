// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

// memfusectl is a companion CLI for working with an in-memory
// filesystem engine without a running daemon: it builds an engine
// in-process (optionally pre-populated from a seed manifest) and
// either browses it interactively or exports a snapshot.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/coldbrew-systems/memfuse/lib/vfs"
	"github.com/coldbrew-systems/memfuse/lib/vfs/browser"
	"github.com/coldbrew-systems/memfuse/lib/vfs/seed"
	"github.com/coldbrew-systems/memfuse/lib/vfs/snapshot"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return nil
	}

	switch args[0] {
	case "browse":
		return runBrowse(args[1:])
	case "snapshot":
		return runSnapshot(args[1:])
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return fmt.Errorf("unknown command %q; see 'memfusectl help'", args[0])
	}
}

func printUsage() {
	fmt.Println(`memfusectl — inspect an in-memory memfuse tree without a running daemon

Usage:
  memfusectl browse   [--seed manifest.jsonc]
  memfusectl snapshot [--seed manifest.jsonc] [--out file.cbor]
  memfusectl help`)
}

// buildEngine constructs a fresh engine and, if seedPath is non-empty,
// applies the JSONC seed manifest at that path.
func buildEngine(seedPath string) (*vfs.Engine, error) {
	engine := vfs.New()
	if seedPath == "" {
		return engine, nil
	}
	manifest, err := seed.ReadFile(seedPath)
	if err != nil {
		return nil, fmt.Errorf("loading seed manifest: %w", err)
	}
	if err := seed.Apply(engine, manifest); err != nil {
		return nil, fmt.Errorf("applying seed manifest: %w", err)
	}
	return engine, nil
}

func runBrowse(args []string) error {
	var seedPath string
	flagSet := pflag.NewFlagSet("memfusectl browse", pflag.ContinueOnError)
	flagSet.StringVar(&seedPath, "seed", "", "JSONC seed manifest to populate the tree with before browsing")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	engine, err := buildEngine(seedPath)
	if err != nil {
		return err
	}
	return browser.Run(engine)
}

func runSnapshot(args []string) error {
	var seedPath string
	var outPath string
	flagSet := pflag.NewFlagSet("memfusectl snapshot", pflag.ContinueOnError)
	flagSet.StringVar(&seedPath, "seed", "", "JSONC seed manifest to populate the tree with before exporting")
	flagSet.StringVar(&outPath, "out", "", "write the CBOR snapshot here instead of stdout")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	engine, err := buildEngine(seedPath)
	if err != nil {
		return err
	}

	data, err := snapshot.Export(engine)
	if err != nil {
		return fmt.Errorf("exporting snapshot: %w", err)
	}

	if outPath == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return nil
}
