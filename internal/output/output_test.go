// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package output

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/packlet/internal/ast"
	"github.com/AleutianAI/packlet/internal/traverse"
)

// fixtureGraph builds a small graph by hand: a -> b -> a (cycle), with
// one external edge from b.
func fixtureGraph() *traverse.DependencyGraph {
	return &traverse.DependencyGraph{
		Entry: "/proj/src/a.ts",
		Nodes: map[string]*traverse.SourceNode{
			"/proj/src/a.ts": {Path: "/proj/src/a.ts", Text: "import b from './b';\n", Depth: 0, Status: traverse.NodeDone},
			"/proj/src/b.ts": {Path: "/proj/src/b.ts", Text: "import a from './a';\n", Depth: 1, Status: traverse.NodeDone},
		},
		Edges: []traverse.ImportEdge{
			{From: "/proj/src/a.ts", Specifier: "./b", Kind: ast.KindStatic, Line: 1, Resolved: "/proj/src/b.ts", Disposition: traverse.DispositionLocal},
			{From: "/proj/src/b.ts", Specifier: "./a", Kind: ast.KindStatic, Line: 1, Resolved: "/proj/src/a.ts", Disposition: traverse.DispositionLocal, Circular: true},
			{From: "/proj/src/b.ts", Specifier: "react", Kind: ast.KindStatic, Line: 2, Disposition: traverse.DispositionExternal},
		},
		Stats:   traverse.Stats{Processed: 2, SkippedExternal: 1},
		Outcome: traverse.OutcomeComplete,
	}
}

func TestMarkdownFormatter_Format(t *testing.T) {
	f := NewMarkdownFormatter("/proj")
	f.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }

	got, err := f.Format(fixtureGraph())
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	for _, want := range []string{
		"# Packlet Dependency Bundle",
		"**Entry:** `src/a.ts`",
		"- **Outcome:** complete",
		"- **Files bundled:** 2",
		"- **Skipped (external):** 1",
		"## Dependency Tree",
		"src/a.ts (circular)",
		"## File Contents",
		"### `src/b.ts`",
		"```ts",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("bundle missing %q\n%s", want, got)
		}
	}
}

func TestMarkdownFormatter_TreeMarksCycle(t *testing.T) {
	f := NewMarkdownFormatter("/proj")

	tree := f.FormatTree(fixtureGraph())

	lines := strings.Split(strings.TrimSpace(tree), "\n")
	if len(lines) != 3 {
		t.Fatalf("tree has %d lines, want 3:\n%s", len(lines), tree)
	}
	if !strings.HasSuffix(lines[2], "src/a.ts (circular)") {
		t.Errorf("cycle not marked:\n%s", tree)
	}
	if !strings.Contains(lines[1], "└──") {
		t.Errorf("missing branch glyph:\n%s", tree)
	}
}

func TestMarkdownFormatter_SkipsEmptyText(t *testing.T) {
	graph := fixtureGraph()
	graph.Nodes["/proj/src/b.ts"].Text = ""

	f := NewMarkdownFormatter("/proj")
	got, err := f.Format(graph)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if strings.Contains(got, "### `src/b.ts`") {
		t.Error("empty-text node should not appear in file contents")
	}
}

func TestMarkdownFormatter_AbortedRunReportsHealth(t *testing.T) {
	graph := fixtureGraph()
	graph.Outcome = traverse.OutcomeAborted
	graph.Stats.TotalErrors = 57
	graph.Health.State = "aborted"

	f := NewMarkdownFormatter("/proj")
	got, _ := f.Format(graph)

	if !strings.Contains(got, "- **Outcome:** aborted") {
		t.Error("outcome not reported")
	}
	if !strings.Contains(got, "**Total errors:** 57") {
		t.Error("error total not reported for aborted run")
	}
}

func TestDOTFormatter_Format(t *testing.T) {
	f := NewDOTFormatter("/proj")

	got, err := f.Format(fixtureGraph())
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	for _, want := range []string{
		"digraph dependencies {",
		`"/proj/src/a.ts" -> "/proj/src/b.ts"`,
		`color=red`,
		`"ext: react"`,
		`[label="src/a.ts", style=bold]`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("dot output missing %q\n%s", want, got)
		}
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	var f JSONFormatter

	got, err := f.Format(fixtureGraph())
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["entry"] != "/proj/src/a.ts" {
		t.Errorf("entry = %v", decoded["entry"])
	}
	if strings.Contains(got, "import b from") {
		t.Error("node text leaked into JSON output")
	}
}
