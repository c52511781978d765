// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolve

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/packlet/internal/cache"
)

// writeFile creates a file (and its parents) under root.
func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return path
}

// canonical resolves symlinks so expectations match Canonicalize output
// (t.TempDir may sit behind a symlink).
func canonical(t *testing.T, path string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		t.Fatalf("eval symlinks %s: %v", path, err)
	}
	return resolved
}

func TestResolver_RelativeImports(t *testing.T) {
	root := t.TempDir()
	from := writeFile(t, root, "src/a.ts", "")
	writeFile(t, root, "src/b.ts", "")
	writeFile(t, root, "src/b.js", "")
	writeFile(t, root, "src/widgets/index.tsx", "")
	writeFile(t, root, "src/exact.mjs", "")

	r := New(nil)

	t.Run("extension probing prefers TypeScript", func(t *testing.T) {
		res, err := r.Resolve("./b", from)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Status != StatusLocal {
			t.Fatalf("status = %s, want local", res.Status)
		}
		if want := canonical(t, filepath.Join(root, "src/b.ts")); res.Path != want {
			t.Errorf("resolved %s, want %s", res.Path, want)
		}
	})

	t.Run("exact path with extension", func(t *testing.T) {
		res, err := r.Resolve("./exact.mjs", from)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := canonical(t, filepath.Join(root, "src/exact.mjs")); res.Path != want {
			t.Errorf("resolved %s, want %s", res.Path, want)
		}
	})

	t.Run("directory resolves to index file", func(t *testing.T) {
		res, err := r.Resolve("./widgets", from)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := canonical(t, filepath.Join(root, "src/widgets/index.tsx")); res.Path != want {
			t.Errorf("resolved %s, want %s", res.Path, want)
		}
	})

	t.Run("missing file is a soft error", func(t *testing.T) {
		res, err := r.Resolve("./nope", from)
		if !errors.Is(err, ErrUnresolved) {
			t.Fatalf("error = %v, want ErrUnresolved", err)
		}
		if res.Status != StatusUnresolved {
			t.Errorf("status = %s, want unresolved", res.Status)
		}
	})
}

func TestResolver_Externals(t *testing.T) {
	root := t.TempDir()
	from := writeFile(t, root, "src/a.ts", "")
	writeFile(t, root, "node_modules/pkg/index.js", "")

	r := New(nil)

	t.Run("known framework is external", func(t *testing.T) {
		for _, specifier := range []string{"react", "@mui/material/Button", "lodash-es"} {
			res, err := r.Resolve(specifier, from)
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", specifier, err)
			}
			if res.Status != StatusExternal {
				t.Errorf("Resolve(%q) = %s, want external", specifier, res.Status)
			}
		}
	})

	t.Run("bare specifier without alias is external", func(t *testing.T) {
		res, err := r.Resolve("some-unknown-package", from)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Status != StatusExternal {
			t.Errorf("status = %s, want external", res.Status)
		}
	})

	t.Run("relative path into node_modules is external", func(t *testing.T) {
		res, err := r.Resolve("../node_modules/pkg/index.js", from)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Status != StatusExternal {
			t.Errorf("status = %s, want external", res.Status)
		}
	})
}

func TestResolver_Assets(t *testing.T) {
	root := t.TempDir()
	from := writeFile(t, root, "src/App.tsx", "")
	writeFile(t, root, "src/App.module.css", "")
	writeFile(t, root, "src/logo.svg", "")

	r := New(nil)

	t.Run("stylesheet resolves as asset", func(t *testing.T) {
		res, err := r.Resolve("./App.module.css", from)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Status != StatusLocal || !res.Asset {
			t.Errorf("got status=%s asset=%v, want local asset", res.Status, res.Asset)
		}
	})

	t.Run("transform query is stripped", func(t *testing.T) {
		res, err := r.Resolve("./logo.svg?react", from)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := canonical(t, filepath.Join(root, "src/logo.svg")); res.Path != want {
			t.Errorf("resolved %s, want %s", res.Path, want)
		}
		if !res.Asset {
			t.Error("expected asset flag")
		}
	})

	t.Run("missing asset is a soft error", func(t *testing.T) {
		_, err := r.Resolve("./missing.png", from)
		if !errors.Is(err, ErrUnresolved) {
			t.Fatalf("error = %v, want ErrUnresolved", err)
		}
	})
}

func TestResolver_TSConfigAliases(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tsconfig.json", `{
		// JSONC is allowed in tsconfig files
		"compilerOptions": {
			/* resolve from src */
			"baseUrl": "./src",
			"paths": {
				"@app/*": ["app/*"],
				"store": ["state/store.ts"],
			},
		},
	}`)
	from := writeFile(t, root, "src/pages/Home.tsx", "")
	writeFile(t, root, "src/app/auth.ts", "")
	writeFile(t, root, "src/state/store.ts", "")

	r := New(nil)

	t.Run("wildcard alias", func(t *testing.T) {
		res, err := r.Resolve("@app/auth", from)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := canonical(t, filepath.Join(root, "src/app/auth.ts")); res.Path != want {
			t.Errorf("resolved %s, want %s", res.Path, want)
		}
	})

	t.Run("exact alias", func(t *testing.T) {
		res, err := r.Resolve("store", from)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := canonical(t, filepath.Join(root, "src/state/store.ts")); res.Path != want {
			t.Errorf("resolved %s, want %s", res.Path, want)
		}
	})

	t.Run("aliased bare specifier is not external", func(t *testing.T) {
		res, _ := r.Resolve("@app/auth", from)
		if res.Status != StatusLocal {
			t.Errorf("status = %s, want local", res.Status)
		}
	})
}

func TestResolver_TSConfigExtends(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tsconfig.base.json", `{
		"compilerOptions": {
			"baseUrl": "./src",
			"paths": {
				"@base/*": ["base/*"],
				"@shared/*": ["overridden/*"]
			}
		}
	}`)
	writeFile(t, root, "tsconfig.json", `{
		"extends": "./tsconfig.base.json",
		"compilerOptions": {
			"paths": {
				"@shared/*": ["shared/*"]
			}
		}
	}`)
	from := writeFile(t, root, "src/a.ts", "")
	writeFile(t, root, "src/base/util.ts", "")
	writeFile(t, root, "src/shared/types.ts", "")

	r := New(nil)

	t.Run("inherited alias", func(t *testing.T) {
		res, err := r.Resolve("@base/util", from)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := canonical(t, filepath.Join(root, "src/base/util.ts")); res.Path != want {
			t.Errorf("resolved %s, want %s", res.Path, want)
		}
	})

	t.Run("child alias wins over parent", func(t *testing.T) {
		res, err := r.Resolve("@shared/types", from)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := canonical(t, filepath.Join(root, "src/shared/types.ts")); res.Path != want {
			t.Errorf("resolved %s, want %s", res.Path, want)
		}
	})
}

func TestResolver_ConfiguredAliases(t *testing.T) {
	root := t.TempDir()
	from := writeFile(t, root, "src/a.ts", "")
	writeFile(t, root, "lib/helpers.ts", "")

	r := New(nil, WithAliases(map[string][]string{"#lib/*": {"lib/*"}}, root))

	res, err := r.Resolve("#lib/helpers", from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := canonical(t, filepath.Join(root, "lib/helpers.ts")); res.Path != want {
		t.Errorf("resolved %s, want %s", res.Path, want)
	}
}

func TestResolver_CanonicalizationCached(t *testing.T) {
	root := t.TempDir()
	from := writeFile(t, root, "src/a.ts", "")
	writeFile(t, root, "src/b.ts", "")

	pathCache := cache.NewPathCache(16)
	r := New(pathCache)

	first, err := r.Resolve("./b", from)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := r.Resolve("./b", from)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if first.Path != second.Path {
		t.Errorf("canonical paths differ: %s vs %s", first.Path, second.Path)
	}
	hits, _, _ := pathCache.Stats()
	if hits == 0 {
		t.Error("expected a canonicalization cache hit on the second resolve")
	}
}

func TestNormalizeJSONC(t *testing.T) {
	input := `{
		// line comment
		"a": "value // not a comment",
		/* block
		   comment */
		"b": "slash \" inside /* string */",
		"c": ["x", "y",],
	}`

	normalized := normalizeJSONC(input)

	for _, want := range []string{`"value // not a comment"`, `"slash \" inside /* string */"`} {
		if !strings.Contains(normalized, want) {
			t.Errorf("normalized output lost string content %q", want)
		}
	}
	if strings.Contains(normalized, "line comment") || strings.Contains(normalized, "block") {
		t.Errorf("comments survived stripping: %s", normalized)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(normalized), &decoded); err != nil {
		t.Fatalf("normalized output is not strict JSON: %v\n%s", err, normalized)
	}
	if decoded["a"] != "value // not a comment" {
		t.Errorf("a = %v", decoded["a"])
	}
}

func TestTSConfig_AliasSpecificity(t *testing.T) {
	cfg := &TSConfig{
		ConfigDir: "/proj",
		Paths: map[string][]string{
			"@app/*":      {"app/general/*"},
			"@app/deep/*": {"app/deep/*"},
		},
	}

	// "@app/deep/x" matches both patterns; the longer literal prefix
	// must win no matter how the map iterates.
	for i := 0; i < 20; i++ {
		got := cfg.ResolveAlias("@app/deep/x")
		if want := []string{filepath.Join("/proj", "app/deep/x")}; len(got) != 1 || got[0] != want[0] {
			t.Fatalf("iteration %d: candidates = %v, want %v", i, got, want)
		}
	}

	got := cfg.ResolveAlias("@app/other/x")
	if want := filepath.Join("/proj", "app/general/other/x"); len(got) != 1 || got[0] != want {
		t.Errorf("general pattern candidates = %v, want [%s]", got, want)
	}
}
