// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command depscope builds and serves JS/TS dependency graphs.
//
// DepScope scans a JavaScript or TypeScript project, extracts its import,
// export-from, dynamic import and require references, and assembles them
// into a dependency graph of local files, packages, and platform builtins.
//
// Usage:
//
//	# One-shot scan, human summary
//	depscope scan /path/to/project
//
//	# Full graph as JSON, packages filtered out
//	depscope scan /path/to/project --json --exclude package
//
//	# Scan a remote repository
//	depscope scan --repo facebook/react@main --json
//
//	# Start the API server with the embedded viewer
//	depscope serve --port 8080
//
// Example requests against the server:
//
//	# Health check
//	curl http://localhost:8080/v1/depscope/health
//
//	# Scan a project
//	curl -X POST http://localhost:8080/v1/depscope/scan \
//	  -H "Content-Type: application/json" \
//	  -d '{"root": "/path/to/project"}'
//
//	# Read the graph
//	curl http://localhost:8080/v1/depscope/graph | jq
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "depscope",
	Short: "Static dependency graphs for JS/TS projects",
	Long: "DepScope builds a dependency graph from a JavaScript or TypeScript\n" +
		"project's import, export-from, dynamic import and require references,\n" +
		"and serves it as JSON or as an interactive force-layout viewer.",
	SilenceUsage: true,
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(serveCmd)
}

// setupLogging configures the default slog logger from the verbose flag.
func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func main() {
	cobra.OnInitialize(setupLogging)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
