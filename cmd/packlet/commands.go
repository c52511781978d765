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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/packlet/internal/config"
	"github.com/AleutianAI/packlet/internal/output"
	"github.com/AleutianAI/packlet/internal/traverse"
	"github.com/AleutianAI/packlet/pkg/logging"
)

var (
	rootCmd = &cobra.Command{
		Use:           "packlet",
		Short:         "Lightning-fast local dependency bundler",
		Long:          `Packlet walks the import graph of a JavaScript or TypeScript entry file and bundles every reachable local source into a single artifact for review or analysis.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	bundleCmd = &cobra.Command{
		Use:   "bundle [file]",
		Short: "Bundle dependencies from an entry file",
		Long:  `Traverses the dependency graph from the entry file and emits a markdown bundle containing the dependency tree and the contents of every local file reached.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runBundle,
	}

	analyzeCmd = &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze dependencies without bundling",
		Long:  `Traverses the dependency graph without retaining file contents and prints a summary of what was found.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}

	graphCmd = &cobra.Command{
		Use:   "graph [file]",
		Short: "Visualize the dependency graph",
		Long:  `Traverses the dependency graph and emits it in DOT or JSON form for visualization tooling.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runGraph,
	}

	flagVerbose    bool
	flagQuiet      bool
	flagConfig     string
	flagLogDir     string
	flagFormat     string
	flagOutput     string
	flagMaxDepth   int
	flagMaxFiles   int
	flagWorkers    int
	flagExtensions string
	flagExclude    string
	flagJSON       bool
	flagStats      bool
	flagGraphFmt   string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress console logging")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "packlet.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&flagLogDir, "log-dir", "", "Directory for JSON log files (console only if empty)")

	bundleCmd.Flags().StringVarP(&flagFormat, "format", "f", "markdown", "Output format (markdown)")
	bundleCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file path (stdout if not specified)")
	bundleCmd.Flags().IntVar(&flagMaxDepth, "max-depth", 0, "Maximum traversal depth")
	bundleCmd.Flags().IntVar(&flagMaxFiles, "max-files", 0, "Maximum number of files to bundle (0 = unlimited)")
	bundleCmd.Flags().IntVar(&flagWorkers, "workers", 0, "Number of concurrent workers (0 = number of CPUs)")
	bundleCmd.Flags().StringVar(&flagExtensions, "extensions", "", "Comma-separated resolution extensions")
	bundleCmd.Flags().StringVar(&flagExclude, "exclude", "", "Comma-separated exclude patterns (gitignore syntax)")
	rootCmd.AddCommand(bundleCmd)

	analyzeCmd.Flags().BoolVar(&flagJSON, "json", false, "Emit the analysis as JSON")
	analyzeCmd.Flags().BoolVar(&flagStats, "stats", false, "Include cache and health statistics")
	analyzeCmd.Flags().IntVar(&flagMaxDepth, "max-depth", 0, "Maximum traversal depth")
	analyzeCmd.Flags().StringVar(&flagExclude, "exclude", "", "Comma-separated exclude patterns (gitignore syntax)")
	rootCmd.AddCommand(analyzeCmd)

	graphCmd.Flags().StringVarP(&flagGraphFmt, "format", "f", "dot", "Graph format (dot, json)")
	graphCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file path (stdout if not specified)")
	graphCmd.Flags().IntVar(&flagMaxDepth, "max-depth", 0, "Maximum traversal depth")
	graphCmd.Flags().StringVar(&flagExclude, "exclude", "", "Comma-separated exclude patterns (gitignore syntax)")
	rootCmd.AddCommand(graphCmd)
}

// newLogger builds the process logger from the global flags. Console output
// goes to stderr so stdout stays clean for the bundle itself.
func newLogger() *logging.Logger {
	level := logging.LevelInfo
	if flagVerbose {
		level = logging.LevelDebug
	}
	return logging.New(logging.Config{
		Level:  level,
		LogDir: flagLogDir,
		Quiet:  flagQuiet,
	})
}

// loadConfig merges the config file, environment, and command-line flags.
// Flags win over everything else, but only when explicitly set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("max-depth") {
		cfg.Traversal.MaxDepth = flagMaxDepth
	}
	if cmd.Flags().Changed("max-files") {
		cfg.Traversal.MaxFiles = flagMaxFiles
	}
	if cmd.Flags().Changed("workers") {
		cfg.Traversal.Workers = flagWorkers
	}
	if cmd.Flags().Changed("extensions") {
		cfg.Resolution.Extensions = config.SplitPatterns(flagExtensions)
	}
	if cmd.Flags().Changed("exclude") {
		cfg.Traversal.Exclude = append(cfg.Traversal.Exclude, config.SplitPatterns(flagExclude)...)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// runTraversal performs the shared entry-point setup and traversal for all
// three subcommands.
func runTraversal(cmd *cobra.Command, entryArg string, graphOnly bool) (*traverse.DependencyGraph, string, error) {
	logger := newLogger()
	defer logger.Close()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, "", err
	}

	entry, err := filepath.Abs(entryArg)
	if err != nil {
		return nil, "", fmt.Errorf("resolve entry path: %w", err)
	}
	root := filepath.Dir(entry)

	tc := cfg.ToTraverseConfig(root)
	tc.GraphOnly = graphOnly || cfg.Traversal.GraphOnly

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	traverser := traverse.New(tc, logger.Slog())
	graph, err := traverser.Traverse(ctx, entry)
	if err != nil {
		return nil, "", err
	}
	if graph.Outcome == traverse.OutcomeAborted {
		logger.Warn("traversal aborted; bundle is partial",
			"processed", graph.Stats.Processed,
			"total_errors", graph.Stats.TotalErrors)
	}
	return graph, root, nil
}

// writeResult writes the formatted output to the --output path, or stdout
// when none was given.
func writeResult(content string) error {
	if flagOutput == "" {
		_, err := fmt.Print(content)
		return err
	}
	return os.WriteFile(flagOutput, []byte(content), 0644)
}

func runBundle(cmd *cobra.Command, args []string) error {
	if flagFormat != "markdown" {
		return fmt.Errorf("unsupported bundle format %q", flagFormat)
	}

	graph, root, err := runTraversal(cmd, args[0], false)
	if err != nil {
		return err
	}

	formatter := output.NewMarkdownFormatter(root)
	rendered, err := formatter.Format(graph)
	if err != nil {
		return fmt.Errorf("format bundle: %w", err)
	}
	return writeResult(rendered)
}

// analysisReport is the JSON shape emitted by `packlet analyze --json`.
type analysisReport struct {
	Entry     string         `json:"entry"`
	Outcome   string         `json:"outcome"`
	Files     []string       `json:"files"`
	Stats     traverse.Stats `json:"stats"`
	CacheHits int64          `json:"cache_hits,omitempty"`
	CacheMiss int64          `json:"cache_misses,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer logger.Close()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	entry, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve entry path: %w", err)
	}
	root := filepath.Dir(entry)

	tc := cfg.ToTraverseConfig(root)
	tc.GraphOnly = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	traverser := traverse.New(tc, logger.Slog())
	graph, err := traverser.Traverse(ctx, entry)
	if err != nil {
		return err
	}

	if flagJSON {
		report := analysisReport{
			Entry:   graph.Entry,
			Outcome: graph.Outcome.String(),
			Files:   graph.SortedPaths(),
			Stats:   graph.Stats,
		}
		if flagStats {
			hits, misses, _ := traverser.PathCacheStats()
			report.CacheHits = hits
			report.CacheMiss = misses
		}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Entry:      %s\n", graph.Entry)
	fmt.Printf("Outcome:    %s\n", graph.Outcome)
	fmt.Printf("Files:      %d\n", graph.Stats.Processed)
	fmt.Printf("External:   %d\n", graph.Stats.SkippedExternal)
	fmt.Printf("Unresolved: %d\n", graph.Stats.Unresolved)
	fmt.Printf("Excluded:   %d\n", graph.Stats.Excluded)
	fmt.Printf("Rejected:   %d\n", graph.Stats.RejectedUnsafe)
	fmt.Printf("Failed:     %d\n", graph.Stats.Failed)
	if graph.Stats.Truncated {
		fmt.Println("Note:       traversal truncated by depth or file limits")
	}
	if flagStats {
		hits, misses, evictions := traverser.PathCacheStats()
		fmt.Printf("Path cache: %d hits, %d misses, %d evictions\n", hits, misses, evictions)
		health := traverser.Monitor().Stats()
		fmt.Printf("Health:     %s (%d errors)\n", health.State, health.TotalErrors)
	}
	return nil
}

func runGraph(cmd *cobra.Command, args []string) error {
	graph, root, err := runTraversal(cmd, args[0], true)
	if err != nil {
		return err
	}

	var formatter output.Formatter
	switch flagGraphFmt {
	case "dot":
		formatter = output.NewDOTFormatter(root)
	case "json":
		formatter = &output.JSONFormatter{}
	default:
		return fmt.Errorf("unsupported graph format %q", flagGraphFmt)
	}

	rendered, err := formatter.Format(graph)
	if err != nil {
		return fmt.Errorf("format graph: %w", err)
	}
	return writeResult(rendered)
}
