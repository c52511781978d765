// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPathCache_Canonicalize(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.ts")
	if err := os.WriteFile(file, []byte("export {}"), 0o644); err != nil {
		t.Fatal(err)
	}

	pc := NewPathCache(16)

	t.Run("dotdot segments are normalized", func(t *testing.T) {
		raw := filepath.Join(dir, "sub", "..", "a.ts")
		canonical, err := pc.Canonicalize(raw)
		if err != nil {
			t.Fatalf("canonicalize: %v", err)
		}
		want, _ := filepath.EvalSymlinks(file)
		if canonical != want {
			t.Errorf("expected %s, got %s", want, canonical)
		}
	})

	t.Run("second lookup is a hit with identical result", func(t *testing.T) {
		raw := filepath.Join(dir, "sub", "..", "a.ts")
		first, err := pc.Canonicalize(raw)
		if err != nil {
			t.Fatal(err)
		}
		hitsBefore, _, _ := pc.Stats()

		second, err := pc.Canonicalize(raw)
		if err != nil {
			t.Fatal(err)
		}
		hitsAfter, _, _ := pc.Stats()

		if second != first {
			t.Errorf("cache returned a different canonical path: %s vs %s", second, first)
		}
		if hitsAfter != hitsBefore+1 {
			t.Errorf("expected a cache hit, hits went %d -> %d", hitsBefore, hitsAfter)
		}
	})

	t.Run("nonexistent path is an error and not cached", func(t *testing.T) {
		raw := filepath.Join(dir, "missing.ts")
		if _, err := pc.Canonicalize(raw); err == nil {
			t.Fatal("expected error for missing file")
		}
		lenBefore := pc.Len()
		pc.Canonicalize(raw) //nolint:errcheck
		if pc.Len() != lenBefore {
			t.Error("failed canonicalizations must not be cached")
		}
	})
}

func TestContentCache_Read(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "b.ts")
	if err := os.WriteFile(file, []byte("export const b = 1;"), 0o644); err != nil {
		t.Fatal(err)
	}

	cc := NewContentCache(4)

	content, err := cc.Read(file)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if content != "export const b = 1;" {
		t.Errorf("unexpected content: %q", content)
	}

	// Second read must come from cache even if the file disappears.
	if err := os.Remove(file); err != nil {
		t.Fatal(err)
	}
	cached, err := cc.Read(file)
	if err != nil {
		t.Fatalf("cached read: %v", err)
	}
	if cached != content {
		t.Errorf("cached content differs: %q", cached)
	}

	hits, _, _ := cc.Stats()
	if hits != 1 {
		t.Errorf("expected 1 hit, got %d", hits)
	}
}
