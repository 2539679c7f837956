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
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/AleutianAI/DepScope/services/depscope"
	"github.com/AleutianAI/DepScope/services/depscope/fetch"
	"github.com/AleutianAI/DepScope/services/depscope/graph"
	"github.com/AleutianAI/DepScope/services/depscope/viewer"
)

// Flag values for the serve command.
var (
	servePort         int
	serveDebug        bool
	serveSnapshotsDir string
	serveNoSnapshots  bool
	serveExclude      []string
)

var serveCmd = &cobra.Command{
	Use:   "serve [path|owner/repo[@ref]]",
	Short: "Start the DepScope API server and viewer",
	Long: "Starts the HTTP server exposing the /v1/depscope API, the Prometheus\n" +
		"/metrics endpoint, and the embedded graph viewer at /. An optional\n" +
		"project path (or remote repository) is scanned before the server\n" +
		"starts, so the viewer has a graph on first load.",
	Args: cobra.MaximumNArgs(1),
	RunE: runServeCommand,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable Gin debug mode and request logging")
	serveCmd.Flags().StringVar(&serveSnapshotsDir, "snapshots-dir", "", "Snapshot store directory (default ~/.depscope/snapshots)")
	serveCmd.Flags().BoolVar(&serveNoSnapshots, "no-snapshots", false, "Disable snapshot persistence")
	serveCmd.Flags().StringSliceVar(&serveExclude, "exclude", nil, "Node kinds filtered from every graph read (local, package, builtin)")
}

func runServeCommand(cmd *cobra.Command, args []string) error {
	if serveDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// W3C TraceContext propagation so callers can correlate distributed
	// traces through the scan endpoints.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	config := depscope.ServiceConfig{
		FS:           afero.NewOsFs(),
		Fetcher:      fetch.NewFetcher(),
		ExcludeKinds: serveExclude,
	}

	// Snapshot store with graceful degradation: if the BadgerDB cannot be
	// opened the server still runs, snapshots disabled.
	var snapshotDB *badger.DB
	if !serveNoSnapshots {
		dir := serveSnapshotsDir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err == nil {
				dir = filepath.Join(home, ".depscope", "snapshots")
			}
		}
		if dir != "" {
			db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
			if err != nil {
				slog.Warn("snapshot store unavailable, persistence disabled",
					slog.String("dir", dir),
					slog.String("error", err.Error()),
				)
			} else {
				snapshots, err := graph.NewSnapshotManager(db, slog.Default())
				if err != nil {
					db.Close()
					return err
				}
				snapshotDB = db
				config.Snapshots = snapshots
				slog.Info("snapshot store opened", slog.String("dir", dir))
			}
		}
	}

	svc := depscope.NewService(config)
	handlers := depscope.NewHandlers(svc)

	if len(args) > 0 {
		if err := initialScan(cmd.Context(), svc, args[0]); err != nil {
			return err
		}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("aleutian-depscope"))
	if serveDebug {
		router.Use(gin.Logger())
	}

	v1 := router.Group("/v1")
	depscope.RegisterRoutes(v1, handlers)
	viewer.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	printBanner(servePort, config.Snapshots != nil)

	// Graceful shutdown: close the snapshot store before exiting.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		slog.Info("shutting down DepScope server")
		if snapshotDB != nil {
			if err := snapshotDB.Close(); err != nil {
				slog.Warn("failed to close snapshot store", slog.String("error", err.Error()))
			}
		}
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%d", servePort)
	slog.Info("starting DepScope server", slog.String("address", addr))
	if err := router.Run(addr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// initialScan builds the first graph before the server accepts requests. A
// target that exists on disk is scanned in place; anything else is treated
// as a remote repository specifier.
func initialScan(ctx context.Context, svc *depscope.Service, target string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		outcome *depscope.ScanOutcome
		err     error
	)
	if _, statErr := os.Stat(target); statErr == nil {
		abs, absErr := filepath.Abs(target)
		if absErr != nil {
			return fmt.Errorf("resolving %s: %w", target, absErr)
		}
		outcome, err = svc.Scan(ctx, abs, "", false)
	} else {
		outcome, err = svc.ScanRepo(ctx, target, "", false)
	}
	if err != nil {
		return fmt.Errorf("initial scan of %s: %w", target, err)
	}

	slog.Info("initial scan complete",
		slog.String("project_root", outcome.ProjectRoot),
		slog.String("project_hash", outcome.ProjectHash),
		slog.Int("nodes", outcome.Cached.Graph.NodeCount()),
		slog.Int("edges", outcome.Cached.Graph.EdgeCount()),
	)
	return nil
}

// printBanner prints the startup banner.
func printBanner(port int, snapshotsEnabled bool) {
	snapshotStatus := "DISABLED"
	if snapshotsEnabled {
		snapshotStatus = "ENABLED"
	}

	banner := `
╔═══════════════════════════════════════════════════════════════════╗
║                         DEPSCOPE SERVER                           ║
╠═══════════════════════════════════════════════════════════════════╣
║                                                                   ║
║  Static dependency graphs for JS/TS projects.                     ║
║  Snapshots: %-53s ║
║                                                                   ║
║  Quick Start:                                                     ║
║  ┌─────────────────────────────────────────────────────────────┐  ║
║  │ # Open the viewer                                           │  ║
║  │ open http://localhost:%-6d                                │  ║
║  │                                                             │  ║
║  │ # Scan a project                                            │  ║
║  │ curl -X POST http://localhost:%d/v1/depscope/scan \     │  ║
║  │   -H "Content-Type: application/json" \                     │  ║
║  │   -d '{"root": "/your/project/path"}'                       │  ║
║  │                                                             │  ║
║  │ # Read the graph                                            │  ║
║  │ curl http://localhost:%d/v1/depscope/graph | jq         │  ║
║  └─────────────────────────────────────────────────────────────┘  ║
║                                                                   ║
║  Endpoints:                                                       ║
║  ├── Scan: POST /v1/depscope/scan                                 ║
║  ├── Graph: GET /v1/depscope/graph, /graph/stats                  ║
║  ├── Snapshots: /v1/depscope/snapshots, /snapshots/diff           ║
║  └── Ops: /health, /ready, /metrics                               ║
║                                                                   ║
║  Press Ctrl+C to stop                                             ║
╚═══════════════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, snapshotStatus, port, port, port)
}
