// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package output renders a completed dependency graph as a markdown
// bundle, a DOT graph, or JSON. Formatters are pure: they never touch
// the filesystem.
package output

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/packlet/internal/traverse"
)

// Formatter renders a dependency graph to a string.
type Formatter interface {
	Format(graph *traverse.DependencyGraph) (string, error)
}

// formatPath renders path relative to root when possible.
func formatPath(path, root string) string {
	if root != "" {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	return path
}

// MarkdownFormatter renders the full bundle: header, traversal summary,
// dependency tree, and file contents.
type MarkdownFormatter struct {
	// Root, when set, shortens paths to root-relative form.
	Root string

	// now is swappable for tests.
	now func() time.Time
}

// NewMarkdownFormatter creates a markdown formatter rooted at root.
func NewMarkdownFormatter(root string) *MarkdownFormatter {
	return &MarkdownFormatter{Root: root, now: time.Now}
}

// Format renders the complete markdown bundle.
func (f *MarkdownFormatter) Format(graph *traverse.DependencyGraph) (string, error) {
	var out strings.Builder

	fmt.Fprintf(&out, "# Packlet Dependency Bundle\n\n")
	fmt.Fprintf(&out, "**Generated:** %s\n", f.now().UTC().Format(time.RFC1123Z))
	fmt.Fprintf(&out, "**Entry:** `%s`\n\n", formatPath(graph.Entry, f.Root))

	f.writeSummary(&out, graph)

	fmt.Fprintf(&out, "## Dependency Tree\n\n")
	fmt.Fprintf(&out, "```\n")
	out.WriteString(f.FormatTree(graph))
	fmt.Fprintf(&out, "```\n\n")

	f.writeContents(&out, graph)

	return out.String(), nil
}

// writeSummary reports the outcome and the pruning/error counters, kept
// distinct so a degraded or aborted run is visible at a glance.
func (f *MarkdownFormatter) writeSummary(out *strings.Builder, graph *traverse.DependencyGraph) {
	fmt.Fprintf(out, "## Traversal Summary\n\n")
	fmt.Fprintf(out, "- **Outcome:** %s\n", graph.Outcome)
	fmt.Fprintf(out, "- **Files bundled:** %d\n", graph.Stats.Processed)
	fmt.Fprintf(out, "- **Skipped (external):** %d\n", graph.Stats.SkippedExternal)
	fmt.Fprintf(out, "- **Rejected (unsafe path):** %d\n", graph.Stats.RejectedUnsafe)
	fmt.Fprintf(out, "- **Excluded (patterns):** %d\n", graph.Stats.Excluded)
	fmt.Fprintf(out, "- **Unresolved imports:** %d\n", graph.Stats.Unresolved)
	fmt.Fprintf(out, "- **Failed files:** %d\n", graph.Stats.Failed)
	if graph.Stats.Truncated {
		fmt.Fprintf(out, "- **Note:** traversal limits pruned part of the graph\n")
	}
	if graph.Outcome != traverse.OutcomeComplete {
		fmt.Fprintf(out, "- **Total errors:** %d (health: %s)\n",
			graph.Stats.TotalErrors, graph.Health.State)
	}
	fmt.Fprintf(out, "\n")
}

// FormatTree renders only the dependency tree, for graph-only runs.
func (f *MarkdownFormatter) FormatTree(graph *traverse.DependencyGraph) string {
	var out strings.Builder
	visited := make(map[string]bool)
	f.writeTree(&out, graph, visited, graph.Entry, "")
	return out.String()
}

func (f *MarkdownFormatter) writeTree(out *strings.Builder, graph *traverse.DependencyGraph, visited map[string]bool, path, prefix string) {
	display := formatPath(path, f.Root)
	if visited[path] {
		fmt.Fprintf(out, "%s %s (circular)\n", prefix, display)
		return
	}
	fmt.Fprintf(out, "%s %s\n", prefix, display)
	visited[path] = true

	var children []string
	for _, edge := range graph.EdgesFrom(path) {
		if edge.Disposition == traverse.DispositionLocal && edge.Resolved != "" {
			children = append(children, edge.Resolved)
		}
	}
	sort.Strings(children)

	for i, child := range children {
		var nextPrefix, branch string
		if i == len(children)-1 {
			nextPrefix, branch = prefix+"    ", "└──"
		} else {
			nextPrefix, branch = prefix+"│   ", "├──"
		}
		f.writeTree(out, graph, visited, child, nextPrefix+branch)
	}
}

// writeContents emits each bundled file as a fenced code block, sorted
// by path. Nodes without retained text (assets, graph-only runs, failed
// reads) are skipped.
func (f *MarkdownFormatter) writeContents(out *strings.Builder, graph *traverse.DependencyGraph) {
	fmt.Fprintf(out, "## File Contents\n\n")

	for _, path := range graph.SortedPaths() {
		node := graph.Node(path)
		if node.Text == "" {
			continue
		}

		lang := strings.TrimPrefix(filepath.Ext(path), ".")
		fmt.Fprintf(out, "### `%s`\n\n", formatPath(path, f.Root))
		fmt.Fprintf(out, "```%s\n", lang)
		out.WriteString(node.Text)
		if !strings.HasSuffix(node.Text, "\n") {
			out.WriteString("\n")
		}
		fmt.Fprintf(out, "```\n\n")
	}
}
