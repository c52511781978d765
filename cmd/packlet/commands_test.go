// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	flagConfig = filepath.Join(t.TempDir(), "missing.yaml")

	if err := bundleCmd.ParseFlags([]string{"--max-depth", "7", "--exclude", "dist, build"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(bundleCmd)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Traversal.MaxDepth != 7 {
		t.Errorf("max depth = %d, want 7", cfg.Traversal.MaxDepth)
	}
	found := 0
	for _, pattern := range cfg.Traversal.Exclude {
		if pattern == "dist" || pattern == "build" {
			found++
		}
	}
	if found != 2 {
		t.Errorf("exclude patterns = %v, want dist and build", cfg.Traversal.Exclude)
	}
}

func TestBundleCommand_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	entry := writeFixture(t, dir, "a.ts", "import { b } from './b';\nexport const a = b + 1;\n")
	writeFixture(t, dir, "b.ts", "export const b = 41;\n")
	out := filepath.Join(dir, "bundle.md")

	rootCmd.SetArgs([]string{
		"bundle", entry,
		"--output", out,
		"--config", filepath.Join(dir, "missing.yaml"),
		"--quiet",
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("bundle: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read bundle: %v", err)
	}
	content := string(data)
	for _, want := range []string{
		"# Packlet Dependency Bundle",
		"## Dependency Tree",
		"## File Contents",
		"a.ts",
		"b.ts",
		"export const b = 41;",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("bundle missing %q", want)
		}
	}
}

func TestBundleCommand_RejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	entry := writeFixture(t, dir, "a.ts", "export {};\n")

	rootCmd.SetArgs([]string{"bundle", entry, "--format", "xml", "--quiet"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected an error for unsupported format")
	}
}
