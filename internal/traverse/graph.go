// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package traverse

import (
	"sort"

	"github.com/AleutianAI/packlet/internal/ast"
	"github.com/AleutianAI/packlet/internal/health"
)

// NodeStatus is the visitation status of a source node.
type NodeStatus int

const (
	// NodePending means the node is discovered but not yet expanded.
	NodePending NodeStatus = iota
	// NodeInProgress means a worker is expanding the node.
	NodeInProgress
	// NodeDone means the node was loaded and its imports extracted.
	NodeDone
	// NodeFailed means the node could not be loaded or parsed.
	NodeFailed
)

// String returns a human-readable status name.
func (s NodeStatus) String() string {
	switch s {
	case NodePending:
		return "pending"
	case NodeInProgress:
		return "in-progress"
	case NodeDone:
		return "done"
	case NodeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SourceNode is one project file in the dependency graph, keyed by its
// canonical absolute path. A node is created the first time any edge
// discovers it and is never duplicated: the visited set guarantees one
// node per canonical path for the whole run.
type SourceNode struct {
	// Path is the canonical absolute path, the node's unique key.
	Path string `json:"path"`

	// Text is the file content. Empty in graph-only mode and for assets.
	Text string `json:"-"`

	// Dialect is the module dialect detected from the node's imports.
	Dialect ast.Dialect `json:"dialect"`

	// Depth is the distance from the entry point. The entry is 0; a
	// discovered node is always its first discoverer's depth + 1.
	Depth int `json:"depth"`

	// Status is the node's final visitation status.
	Status NodeStatus `json:"status"`

	// Asset marks non-code targets (stylesheets, images, data files)
	// that are recorded but never parsed.
	Asset bool `json:"asset,omitempty"`
}

// Disposition classifies what traversal did with an edge's target.
type Disposition int

const (
	// DispositionLocal means the target is a project file present in
	// the node table.
	DispositionLocal Disposition = iota
	// DispositionExternal means the target is a package dependency and
	// was not expanded.
	DispositionExternal
	// DispositionRejected means the safety classifier refused the
	// target path.
	DispositionRejected
	// DispositionExcluded means the target matched an exclude pattern.
	DispositionExcluded
	// DispositionPruned means a depth or file-count limit stopped
	// expansion at this edge.
	DispositionPruned
	// DispositionUnresolved means the specifier matched no file.
	DispositionUnresolved
)

// String returns a human-readable disposition name.
func (d Disposition) String() string {
	switch d {
	case DispositionLocal:
		return "local"
	case DispositionExternal:
		return "external"
	case DispositionRejected:
		return "rejected"
	case DispositionExcluded:
		return "excluded"
	case DispositionPruned:
		return "pruned"
	case DispositionUnresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// ImportEdge is one import relationship, immutable once recorded.
//
// The graph guarantees that every DispositionLocal edge's Resolved path
// exists in the node table; all other dispositions explain why the
// target is absent.
type ImportEdge struct {
	// From is the canonical path of the importing node.
	From string `json:"from"`

	// Specifier is the raw import string as written in source.
	Specifier string `json:"specifier"`

	// Kind is the syntactic import mechanism.
	Kind ast.ImportKind `json:"kind"`

	// Line is the 1-based source line of the import.
	Line int `json:"line"`

	// Resolved is the canonical target path when resolution succeeded.
	Resolved string `json:"resolved,omitempty"`

	// Disposition records what traversal did with the target.
	Disposition Disposition `json:"disposition"`

	// Circular marks a back edge: the target is an ancestor of From in
	// the rooted view of the graph (including self-imports).
	Circular bool `json:"circular,omitempty"`
}

// Outcome is the overall result category of a traversal run.
type Outcome int

const (
	// OutcomeComplete means traversal visited everything reachable
	// within the configured limits.
	OutcomeComplete Outcome = iota
	// OutcomeDegraded means an error burst was observed but traversal
	// ran to the end.
	OutcomeDegraded
	// OutcomeAborted means the circuit breaker stopped traversal early;
	// the graph is partial.
	OutcomeAborted
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeComplete:
		return "complete"
	case OutcomeDegraded:
		return "degraded"
	case OutcomeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Stats aggregates per-run traversal counters.
type Stats struct {
	Processed       int64 `json:"processed"`
	SkippedExternal int64 `json:"skipped_external"`
	RejectedUnsafe  int64 `json:"rejected_unsafe"`
	Excluded        int64 `json:"excluded"`
	Unresolved      int64 `json:"unresolved"`
	Failed          int64 `json:"failed"`
	SoftParseErrors int64 `json:"soft_parse_errors"`
	TotalErrors     int64 `json:"total_errors"`

	// Truncated reports that a depth or file-count limit pruned at
	// least one edge.
	Truncated bool `json:"truncated,omitempty"`
}

// DependencyGraph is the completed result of one traversal run.
type DependencyGraph struct {
	// Entry is the canonical path of the entry point, depth 0.
	Entry string `json:"entry"`

	// Nodes maps canonical path to node.
	Nodes map[string]*SourceNode `json:"nodes"`

	// Edges is the full edge list, sorted by source file and line.
	Edges []ImportEdge `json:"edges"`

	// Stats are the aggregate traversal counters.
	Stats Stats `json:"stats"`

	// Outcome distinguishes complete from degraded and aborted runs.
	Outcome Outcome `json:"outcome"`

	// Health is the final circuit breaker snapshot.
	Health health.Stats `json:"health"`
}

// Node returns the node for a canonical path, or nil.
func (g *DependencyGraph) Node(path string) *SourceNode {
	return g.Nodes[path]
}

// SortedPaths returns all node paths in lexical order.
func (g *DependencyGraph) SortedPaths() []string {
	paths := make([]string, 0, len(g.Nodes))
	for path := range g.Nodes {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// EdgesFrom returns the edges originating at path, in source order.
func (g *DependencyGraph) EdgesFrom(path string) []ImportEdge {
	var out []ImportEdge
	for _, edge := range g.Edges {
		if edge.From == path {
			out = append(out, edge)
		}
	}
	return out
}

// sortEdges puts the edge list in a deterministic order regardless of
// which worker recorded each edge first.
func (g *DependencyGraph) sortEdges() {
	sort.Slice(g.Edges, func(i, j int) bool {
		a, b := g.Edges[i], g.Edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Specifier < b.Specifier
	})
}

// markCircular walks the rooted graph depth-first and flags edges whose
// Local target is on the current walk path. Self-imports and longer
// cycles both get the flag; diamonds do not.
func (g *DependencyGraph) markCircular() {
	onPath := make(map[string]bool, len(g.Nodes))
	visited := make(map[string]bool, len(g.Nodes))

	edgesFrom := make(map[string][]int, len(g.Nodes))
	for i, edge := range g.Edges {
		edgesFrom[edge.From] = append(edgesFrom[edge.From], i)
	}

	var walk func(path string)
	walk = func(path string) {
		onPath[path] = true
		for _, i := range edgesFrom[path] {
			edge := &g.Edges[i]
			if edge.Disposition != DispositionLocal || edge.Resolved == "" {
				continue
			}
			if onPath[edge.Resolved] {
				edge.Circular = true
				continue
			}
			if !visited[edge.Resolved] {
				visited[edge.Resolved] = true
				walk(edge.Resolved)
			}
		}
		onPath[path] = false
	}

	visited[g.Entry] = true
	walk(g.Entry)
}
