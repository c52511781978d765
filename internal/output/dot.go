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
	"fmt"
	"strings"

	"github.com/AleutianAI/packlet/internal/traverse"
)

// DOTFormatter renders the graph in Graphviz DOT syntax. Local edges
// are solid; external and unresolved targets appear as dashed leaves so
// the project boundary stays visible.
type DOTFormatter struct {
	// Root, when set, shortens node labels to root-relative form.
	Root string
}

// NewDOTFormatter creates a DOT formatter rooted at root.
func NewDOTFormatter(root string) *DOTFormatter {
	return &DOTFormatter{Root: root}
}

// Format renders the graph as a digraph.
func (f *DOTFormatter) Format(graph *traverse.DependencyGraph) (string, error) {
	var out strings.Builder

	fmt.Fprintf(&out, "digraph dependencies {\n")
	fmt.Fprintf(&out, "  rankdir=LR;\n")
	fmt.Fprintf(&out, "  node [shape=box, fontname=\"monospace\"];\n\n")

	for _, path := range graph.SortedPaths() {
		node := graph.Node(path)
		attrs := ""
		switch {
		case path == graph.Entry:
			attrs = ", style=bold"
		case node.Status == traverse.NodeFailed:
			attrs = ", color=red"
		case node.Asset:
			attrs = ", style=dotted"
		}
		fmt.Fprintf(&out, "  %q [label=%q%s];\n", path, formatPath(path, f.Root), attrs)
	}
	fmt.Fprintf(&out, "\n")

	for _, edge := range graph.Edges {
		switch edge.Disposition {
		case traverse.DispositionLocal:
			attrs := fmt.Sprintf("label=%q", edge.Kind.String())
			if edge.Circular {
				attrs += ", color=red"
			}
			fmt.Fprintf(&out, "  %q -> %q [%s];\n", edge.From, edge.Resolved, attrs)
		case traverse.DispositionExternal:
			target := "ext: " + edge.Specifier
			fmt.Fprintf(&out, "  %q -> %q [style=dashed];\n", edge.From, target)
		case traverse.DispositionUnresolved:
			target := "unresolved: " + edge.Specifier
			fmt.Fprintf(&out, "  %q -> %q [style=dashed, color=orange];\n", edge.From, target)
		}
	}

	fmt.Fprintf(&out, "}\n")
	return out.String(), nil
}

// JSONFormatter renders the graph as indented JSON, suitable for
// machine consumption. Node text is excluded by the graph's field tags.
type JSONFormatter struct{}

// Format marshals the graph.
func (f *JSONFormatter) Format(graph *traverse.DependencyGraph) (string, error) {
	data, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding graph: %w", err)
	}
	return string(data) + "\n", nil
}
