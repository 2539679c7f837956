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
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/DepScope/services/depscope/fetch"
	"github.com/AleutianAI/DepScope/services/depscope/graph"
)

// Flag values for the scan command.
var (
	scanJSON    bool
	scanOut     string
	scanExclude []string
	scanRepo    string
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Build the dependency graph for a project",
	Long: "Scans a local project directory (or a remote repository with --repo),\n" +
		"builds its dependency graph, and prints a summary or the full graph\n" +
		"as {nodes, links} JSON.",
	Args: cobra.MaximumNArgs(1),
	RunE: runScanCommand,
}

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Emit the full graph as JSON")
	scanCmd.Flags().StringVar(&scanOut, "out", "", "Write JSON to a file instead of stdout (implies --json)")
	scanCmd.Flags().StringSliceVar(&scanExclude, "exclude", nil, "Node kinds to filter out (local, package, builtin)")
	scanCmd.Flags().StringVar(&scanRepo, "repo", "", "Remote repository owner/name[@ref] to fetch and scan")
}

func runScanCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	root, cleanup, err := resolveScanRoot(ctx, args)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	fsys := afero.NewOsFs()
	scanConfig, err := graph.LoadScanConfig(fsys, root)
	if err != nil {
		return err
	}

	builder := graph.NewBuilder(scanConfig.BuilderOptionsFor(fsys, root)...)
	res, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	g := res.Graph
	for _, name := range append(scanConfig.ExcludeKinds, scanExclude...) {
		kind, ok := graph.ParseNodeKind(name)
		if !ok {
			return fmt.Errorf("unknown node kind %q (expected local, package, or builtin)", name)
		}
		if g, err = g.FilterKind(kind); err != nil {
			return err
		}
	}

	if scanJSON || scanOut != "" {
		return writeGraphJSON(g)
	}

	printScanSummary(root, g, res.Stats)
	return nil
}

// resolveScanRoot picks the scan root from --repo or the positional path.
// The returned cleanup removes a fetched checkout, and is nil for local scans.
func resolveScanRoot(ctx context.Context, args []string) (string, func(), error) {
	if scanRepo != "" {
		if len(args) > 0 {
			return "", nil, fmt.Errorf("provide either a path or --repo, not both")
		}
		ref, err := fetch.ParseRepoRef(scanRepo)
		if err != nil {
			return "", nil, err
		}
		checkout, err := fetch.NewFetcher().Fetch(ctx, ref)
		if err != nil {
			return "", nil, err
		}
		return checkout.Dir, func() { _ = checkout.Cleanup() }, nil
	}

	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	return abs, nil, nil
}

// writeGraphJSON emits the serialized graph to --out or stdout.
func writeGraphJSON(g *graph.Graph) error {
	data, err := json.MarshalIndent(g.ToSerializable(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling graph: %w", err)
	}
	data = append(data, '\n')

	if scanOut != "" {
		if err := os.WriteFile(scanOut, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", scanOut, err)
		}
		fmt.Printf("wrote %s (%d nodes, %d links)\n", scanOut, g.NodeCount(), g.EdgeCount())
		return nil
	}

	_, err = os.Stdout.Write(data)
	return err
}

// printScanSummary prints the human-readable scan report.
func printScanSummary(root string, g *graph.Graph, stats graph.BuildStats) {
	fmt.Printf("Project:    %s\n", root)
	fmt.Printf("Files:      %d scanned", stats.FilesScanned)
	if stats.FilesUnreadable > 0 {
		fmt.Printf(" (%d unreadable)", stats.FilesUnreadable)
	}
	fmt.Println()
	fmt.Printf("Nodes:      %d (%d local, %d package, %d builtin)\n",
		g.NodeCount(),
		g.KindCount(graph.NodeKindLocal),
		g.KindCount(graph.NodeKindPackage),
		g.KindCount(graph.NodeKindBuiltin),
	)
	fmt.Printf("Edges:      %d\n", g.EdgeCount())
	if stats.UnresolvedLocals > 0 {
		fmt.Printf("Unresolved: %d local specifiers\n", stats.UnresolvedLocals)
	}
	fmt.Printf("Duration:   %dms\n", stats.DurationMilli)

	if top := topReferenced(g, 5); len(top) > 0 {
		fmt.Println("\nMost referenced:")
		for _, entry := range top {
			fmt.Printf("  %4d  %s\n", entry.count, entry.key)
		}
	}
}

type refCount struct {
	key   string
	count int
}

// topReferenced returns the n nodes with the most inbound edges.
func topReferenced(g *graph.Graph, n int) []refCount {
	counts := make(map[string]int)
	for _, e := range g.Edges() {
		counts[e.TargetKey]++
	}

	top := make([]refCount, 0, len(counts))
	for key, count := range counts {
		top = append(top, refCount{key: key, count: count})
	}
	// Insertion sort is fine at this size; ties break on key for stable output.
	for i := 1; i < len(top); i++ {
		for j := i; j > 0; j-- {
			a, b := top[j-1], top[j]
			if b.count > a.count || (b.count == a.count && b.key < a.key) {
				top[j-1], top[j] = b, a
			} else {
				break
			}
		}
	}
	if len(top) > n {
		top = top[:n]
	}
	return top
}
