// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package traverse builds the dependency graph: a bounded pool of
// workers expands the frontier level by level from the entry point,
// extracting imports, resolving and classifying each specifier, and
// deduplicating discoveries through a shared visited set. A health
// monitor watches error rates and can abort the run while still
// returning the partial graph.
package traverse

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/packlet/internal/ast"
	"github.com/AleutianAI/packlet/internal/cache"
	"github.com/AleutianAI/packlet/internal/classify"
	"github.com/AleutianAI/packlet/internal/health"
	"github.com/AleutianAI/packlet/internal/resolve"
)

// Config holds the traversal limits and knobs.
type Config struct {
	// Root is the project root; exclude patterns are evaluated relative
	// to it. Defaults to the entry point's directory.
	Root string

	// MaxDepth bounds the distance from the entry point (default: 50).
	MaxDepth int

	// MaxFiles bounds the number of fully processed nodes. Zero means
	// unlimited.
	MaxFiles int

	// Workers is the concurrent expansion limit (default: NumCPU).
	Workers int

	// GraphOnly skips content retention: files are still read and
	// parsed, but node text is not kept and the content cache is
	// bypassed.
	GraphOnly bool

	// Exclude is a list of gitignore-syntax patterns.
	Exclude []string

	// Extensions overrides the resolver's extension probing order.
	Extensions []string

	// Aliases adds configured path mappings, relative to Root.
	Aliases map[string][]string

	// ExtraExternals adds specifier prefixes treated as external.
	ExtraExternals []string

	// PathCacheSize bounds the canonicalization cache (default: 2048).
	PathCacheSize int

	// ContentCacheSize bounds the content cache (default: 512).
	ContentCacheSize int

	// Health configures the circuit breaker.
	Health health.Config

	// Score configures the path safety score.
	Score classify.ScoreConfig
}

// Traverser drives one dependency traversal.
//
// Description:
//
//	Traversal is level synchronous: all nodes at depth d are expanded
//	concurrently before any node at depth d+1, which makes depth
//	assignment deterministic (a child's depth is always the minimum
//	parent depth + 1). The visited set is checked and inserted in a
//	single critical section, so a file is loaded and parsed at most
//	once even when several parents discover it in the same level.
//
// Thread Safety: a Traverser is single-use; create one per run.
type Traverser struct {
	config     Config
	registry   *ast.Registry
	resolver   *resolve.Resolver
	classifier *classify.Classifier
	paths      *cache.PathCache
	contents   *cache.ContentCache
	monitor    *health.Monitor
	exclude    *ExcludeMatcher
	logger     *slog.Logger

	mu      sync.Mutex
	visited map[string]*SourceNode
	edges   []ImportEdge

	processed atomic.Int64
	truncated atomic.Bool
	stats     struct {
		skippedExternal atomic.Int64
		rejectedUnsafe  atomic.Int64
		excluded        atomic.Int64
		unresolved      atomic.Int64
		failed          atomic.Int64
		softParse       atomic.Int64
	}
}

// New creates a Traverser for one run. The entry point is given to
// Traverse, not here, so a caller can validate configuration before
// touching the filesystem.
func New(config Config, logger *slog.Logger) *Traverser {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxDepth <= 0 {
		config.MaxDepth = 50
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}

	classifier := classify.New(
		classify.WithScoreConfig(config.Score),
		classify.WithExtraExternals(config.ExtraExternals),
	)
	paths := cache.NewPathCache(config.PathCacheSize)

	resolverOpts := []resolve.Option{
		resolve.WithClassifier(classifier),
		resolve.WithLogger(logger),
	}
	if len(config.Extensions) > 0 {
		resolverOpts = append(resolverOpts, resolve.WithExtensions(config.Extensions))
	}
	if len(config.Aliases) > 0 {
		resolverOpts = append(resolverOpts, resolve.WithAliases(config.Aliases, config.Root))
	}

	return &Traverser{
		config:     config,
		registry:   ast.DefaultRegistry(),
		resolver:   resolve.New(paths, resolverOpts...),
		classifier: classifier,
		paths:      paths,
		contents:   cache.NewContentCache(config.ContentCacheSize),
		monitor:    health.NewMonitor(config.Health, logger),
		exclude:    NewExcludeMatcher(config.Root, config.Exclude),
		logger:     logger,
		visited:    make(map[string]*SourceNode),
	}
}

// Monitor exposes the run's health monitor, mainly for tests and for
// callers that want live state while a traversal runs.
func (t *Traverser) Monitor() *health.Monitor {
	return t.monitor
}

// PathCacheStats returns the canonicalization cache counters.
func (t *Traverser) PathCacheStats() (hits, misses, evictions int64) {
	return t.paths.Stats()
}

// Traverse expands the dependency graph from entryPath.
//
// Inputs:
//   - ctx: cancels the run between node dispatches.
//   - entryPath: the entry file; relative paths resolve against the
//     working directory.
//
// Outputs:
//   - *DependencyGraph: the graph, partial when the run was aborted.
//   - error: non-nil only for fatal pre-traversal failures (unreadable
//     entry point) or context cancellation; per-edge failures are
//     aggregated into the graph's statistics instead.
func (t *Traverser) Traverse(ctx context.Context, entryPath string) (*DependencyGraph, error) {
	start := time.Now()

	ctx, span := tracer.Start(ctx, "traverse.Traverse")
	defer span.End()

	entry, err := t.paths.Canonicalize(entryPath)
	if err != nil {
		return nil, fmt.Errorf("entry point %q: %w", entryPath, err)
	}
	if info, err := os.Stat(entry); err != nil || info.IsDir() {
		return nil, fmt.Errorf("entry point %q is not a readable file", entryPath)
	}
	if t.config.Root == "" {
		t.config.Root = filepath.Dir(entry)
		t.exclude = NewExcludeMatcher(t.config.Root, t.config.Exclude)
	}

	span.SetAttributes(attribute.String("entry", entry))

	entryNode := &SourceNode{Path: entry, Status: NodePending}
	t.visited[entry] = entryNode

	frontier := []*SourceNode{entryNode}
	for len(frontier) > 0 && !t.monitor.Aborted() && ctx.Err() == nil {
		var nextMu sync.Mutex
		var next []*SourceNode

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(t.config.Workers)

		for _, node := range frontier {
			node := node
			g.Go(func() error {
				defer func() {
					if r := recover(); r != nil {
						t.logger.Error("Worker panic while expanding node",
							"path", node.Path, "panic", r)
						node.Status = NodeFailed
						t.stats.failed.Add(1)
						t.monitor.RecordFailure()
					}
				}()

				children := t.expandNode(gCtx, node)
				if len(children) > 0 {
					nextMu.Lock()
					next = append(next, children...)
					nextMu.Unlock()
				}
				return nil
			})
		}
		// Workers never return errors; soft failures land in stats.
		_ = g.Wait()

		frontier = next
	}

	graph := t.finalize(entry)
	recordRun(ctx, graph.Outcome, time.Since(start))
	span.SetAttributes(
		attribute.String("outcome", graph.Outcome.String()),
		attribute.Int("nodes", len(graph.Nodes)),
		attribute.Int("edges", len(graph.Edges)),
	)

	t.logger.Info("Traversal finished",
		"entry", entry,
		"outcome", graph.Outcome.String(),
		"nodes", len(graph.Nodes),
		"edges", len(graph.Edges),
		"elapsed", time.Since(start))

	if ctx.Err() != nil {
		return graph, ctx.Err()
	}
	return graph, nil
}

// expandNode loads, parses, and resolves one node, returning newly
// discovered children for the next level.
func (t *Traverser) expandNode(ctx context.Context, node *SourceNode) []*SourceNode {
	if t.monitor.Aborted() || ctx.Err() != nil {
		return nil
	}

	if t.config.MaxFiles > 0 && t.processed.Add(1) > int64(t.config.MaxFiles) {
		t.processed.Add(-1)
		t.truncated.Store(true)
		return nil
	}

	node.Status = NodeInProgress

	if node.Asset {
		// Assets are recorded, never parsed.
		node.Status = NodeDone
		t.monitor.RecordSuccess()
		recordNode(ctx, node.Status)
		return nil
	}

	text, err := t.loadContent(node.Path)
	if err != nil {
		t.logger.Warn("Failed to read node", "path", node.Path, "error", err)
		node.Status = NodeFailed
		t.stats.failed.Add(1)
		t.monitor.RecordFailure()
		recordNode(ctx, node.Status)
		return nil
	}
	if !t.config.GraphOnly {
		node.Text = text
	}

	parser, ok := t.registry.GetByExtension(filepath.Ext(node.Path))
	if !ok {
		// No parser for this extension; keep the node as a leaf.
		node.Status = NodeDone
		t.monitor.RecordSuccess()
		recordNode(ctx, node.Status)
		return nil
	}

	result, err := parser.Parse(ctx, []byte(text), node.Path)
	if err != nil {
		t.logger.Warn("Failed to parse node", "path", node.Path, "error", err)
		node.Status = NodeFailed
		t.stats.failed.Add(1)
		t.monitor.RecordFailure()
		recordNode(ctx, node.Status)
		return nil
	}
	if result.Partial() {
		t.stats.softParse.Add(int64(len(result.Errors)))
		t.monitor.RecordFailure()
	}
	node.Dialect = result.Dialect()

	var edges []ImportEdge
	var children []*SourceNode
	for _, imp := range result.Imports {
		edge, child := t.resolveImport(node, imp)
		recordEdge(ctx, edge.Disposition)
		edges = append(edges, edge)
		if child != nil {
			children = append(children, child)
		}
	}

	t.mu.Lock()
	t.edges = append(t.edges, edges...)
	t.mu.Unlock()

	node.Status = NodeDone
	t.monitor.RecordSuccess()
	recordNode(ctx, node.Status)
	return children
}

// resolveImport resolves and classifies one import, returning the
// recorded edge and, when the target is a new local node, the child to
// enqueue.
func (t *Traverser) resolveImport(node *SourceNode, imp ast.Import) (ImportEdge, *SourceNode) {
	edge := ImportEdge{
		From:      node.Path,
		Specifier: imp.Specifier,
		Kind:      imp.Kind,
		Line:      imp.Line,
	}

	res, err := t.resolver.Resolve(imp.Specifier, node.Path)
	if err != nil {
		edge.Disposition = DispositionUnresolved
		t.stats.unresolved.Add(1)
		t.monitor.RecordFailure()
		return edge, nil
	}

	if res.Status == resolve.StatusExternal {
		edge.Disposition = DispositionExternal
		t.stats.skippedExternal.Add(1)
		return edge, nil
	}

	childDepth := node.Depth + 1

	// Score the raw candidate before canonicalization collapses the
	// parent-hop segments the score exists to count.
	rawCandidate := res.Path
	if len(imp.Specifier) > 0 && imp.Specifier[0] == '.' {
		rawCandidate = filepath.Dir(node.Path) + string(os.PathSeparator) + imp.Specifier
	}
	switch t.classifier.Classify(rawCandidate, childDepth) {
	case classify.ClassExternal:
		edge.Disposition = DispositionExternal
		t.stats.skippedExternal.Add(1)
		return edge, nil
	case classify.ClassRejected:
		edge.Disposition = DispositionRejected
		t.stats.rejectedUnsafe.Add(1)
		return edge, nil
	}

	if t.exclude.Matches(res.Path) {
		edge.Disposition = DispositionExcluded
		t.stats.excluded.Add(1)
		return edge, nil
	}

	if childDepth > t.config.MaxDepth {
		edge.Resolved = res.Path
		edge.Disposition = DispositionPruned
		t.truncated.Store(true)
		return edge, nil
	}

	edge.Resolved = res.Path
	edge.Disposition = DispositionLocal

	// Atomic check-and-insert: exactly one discoverer creates the node.
	t.mu.Lock()
	if _, seen := t.visited[res.Path]; seen {
		t.mu.Unlock()
		return edge, nil
	}
	child := &SourceNode{
		Path:   res.Path,
		Depth:  childDepth,
		Status: NodePending,
		Asset:  res.Asset,
	}
	t.visited[res.Path] = child
	t.mu.Unlock()

	return edge, child
}

// loadContent reads a file through the content cache, or directly in
// graph-only mode where retention would be wasted.
func (t *Traverser) loadContent(canonicalPath string) (string, error) {
	if t.config.GraphOnly {
		data, err := os.ReadFile(canonicalPath)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return t.contents.Read(canonicalPath)
}

// finalize assembles the result graph from the run's shared state.
func (t *Traverser) finalize(entry string) *DependencyGraph {
	healthStats := t.monitor.Stats()

	graph := &DependencyGraph{
		Entry:  entry,
		Nodes:  t.visited,
		Edges:  t.edges,
		Health: healthStats,
	}

	switch t.monitor.State() {
	case health.StateAborted:
		graph.Outcome = OutcomeAborted
	case health.StateDegraded:
		graph.Outcome = OutcomeDegraded
	default:
		graph.Outcome = OutcomeComplete
	}

	graph.Stats = Stats{
		Processed:       healthStats.Processed,
		SkippedExternal: t.stats.skippedExternal.Load(),
		RejectedUnsafe:  t.stats.rejectedUnsafe.Load(),
		Excluded:        t.stats.excluded.Load(),
		Unresolved:      t.stats.unresolved.Load(),
		Failed:          t.stats.failed.Load(),
		SoftParseErrors: t.stats.softParse.Load(),
		TotalErrors:     healthStats.TotalErrors,
		Truncated:       t.truncated.Load(),
	}

	graph.sortEdges()
	graph.markCircular()
	return graph
}
