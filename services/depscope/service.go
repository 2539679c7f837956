// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package depscope exposes the dependency-graph builder as an HTTP service:
// scan a project (local or remote), read back the graph as nodes and links,
// and manage persisted snapshots.
package depscope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/DepScope/services/depscope/fetch"
	"github.com/AleutianAI/DepScope/services/depscope/graph"
)

// Version is the service version reported by the health endpoint.
const Version = "1.0.0"

// Service-level sentinel errors.
var (
	// ErrNoGraph means no scan has completed yet.
	ErrNoGraph = errors.New("no graph has been built yet")

	// ErrUnknownProject means no cached graph exists for the project hash.
	ErrUnknownProject = errors.New("unknown project hash")

	// ErrSnapshotsDisabled means the service runs without a snapshot store.
	ErrSnapshotsDisabled = errors.New("snapshot persistence is not enabled")

	// ErrFetchDisabled means the service runs without a repository fetcher.
	ErrFetchDisabled = errors.New("remote repository fetch is not enabled")

	// ErrBadScanRequest means the scan request named no target or both.
	ErrBadScanRequest = errors.New("exactly one of root and repo must be set")
)

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// FS is the filesystem capability used for scans.
	FS afero.Fs

	// Snapshots enables snapshot persistence when non-nil.
	Snapshots *graph.SnapshotManager

	// Fetcher enables remote repository scans when non-nil.
	Fetcher *fetch.Fetcher

	// ExcludeKinds are node kind names filtered from every graph read, on
	// top of per-project config and per-request excludes.
	ExcludeKinds []string
}

// DefaultServiceConfig returns a config scanning the real filesystem with
// snapshots and remote fetch disabled.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{FS: afero.NewOsFs()}
}

// CachedGraph is one project's most recent scan result held in memory.
type CachedGraph struct {
	// Graph is the frozen dependency graph.
	Graph *graph.Graph

	// Stats are the builder counters from the scan.
	Stats graph.BuildStats

	// ScanConfig is the per-project config that shaped the scan.
	ScanConfig graph.ScanConfig

	// ScannedAtMilli is when the scan completed.
	ScannedAtMilli int64
}

// Service coordinates scans and serves cached graphs.
//
// Description:
//
//	Scans are deduplicated per project root: concurrent requests for the
//	same root share one build. Each completed scan replaces the project's
//	cache entry; reads are lock-free copies of frozen graphs and need no
//	coordination beyond the cache map lock.
//
// Thread Safety: Safe for concurrent use.
type Service struct {
	config ServiceConfig

	mu       sync.RWMutex
	cache    map[string]*CachedGraph // keyed by project hash
	lastHash string                  // project hash of the most recent scan

	scanGroup singleflight.Group
}

// NewService creates a Service from the given config.
func NewService(config ServiceConfig) *Service {
	if config.FS == nil {
		config.FS = afero.NewOsFs()
	}
	return &Service{
		config: config,
		cache:  make(map[string]*CachedGraph),
	}
}

// ScanOutcome is the result of a completed scan.
type ScanOutcome struct {
	ProjectRoot string
	ProjectHash string
	SnapshotID  string
	Cached      *CachedGraph
}

// Scan builds the dependency graph for a local project root.
//
// Description:
//
//	Loads the project's optional depscope.config.yaml, runs the builder, and
//	caches the frozen graph under the project hash. Concurrent scans of the
//	same root are coalesced into a single build. When saveSnapshot is set and
//	the service has a snapshot store, the graph is persisted and the snapshot
//	ID returned.
//
// Inputs:
//
//	ctx - Cancellation context, propagated to the builder and the store.
//	root - Absolute path of the project to scan.
//	label - Optional snapshot label.
//	saveSnapshot - Persist the graph after building.
//
// Outputs:
//
//	*ScanOutcome - The scan result. Nil on error.
//	error - graph.ErrInvalidRoot (wrapped) for a bad root, or a store error.
func (s *Service) Scan(ctx context.Context, root, label string, saveSnapshot bool) (*ScanOutcome, error) {
	key := filepath.Clean(root)

	result, err, _ := s.scanGroup.Do(key, func() (any, error) {
		return s.scanLocked(ctx, key, label, saveSnapshot)
	})
	if err != nil {
		scansTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	scansTotal.WithLabelValues("ok").Inc()
	return result.(*ScanOutcome), nil
}

// ScanRepo fetches a remote repository and scans the unpacked tree.
//
// The checkout is removed once the graph is built; the cached graph carries
// everything the read endpoints need.
func (s *Service) ScanRepo(ctx context.Context, specifier, label string, saveSnapshot bool) (*ScanOutcome, error) {
	if s.config.Fetcher == nil {
		return nil, ErrFetchDisabled
	}

	ref, err := fetch.ParseRepoRef(specifier)
	if err != nil {
		return nil, err
	}

	checkout, err := s.config.Fetcher.Fetch(ctx, ref)
	if err != nil {
		scansTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetching %s: %w", specifier, err)
	}
	defer func() {
		if err := checkout.Cleanup(); err != nil {
			slog.Warn("checkout cleanup failed",
				slog.String("repo", ref.String()),
				slog.Any("error", err),
			)
		}
	}()

	return s.Scan(ctx, checkout.Dir, label, saveSnapshot)
}

// scanLocked runs one deduplicated build. Only ever invoked via scanGroup.
func (s *Service) scanLocked(ctx context.Context, root, label string, saveSnapshot bool) (*ScanOutcome, error) {
	start := time.Now()

	if saveSnapshot && s.config.Snapshots == nil {
		return nil, ErrSnapshotsDisabled
	}

	scanConfig, err := graph.LoadScanConfig(s.config.FS, root)
	if err != nil {
		return nil, err
	}

	builder := graph.NewBuilder(scanConfig.BuilderOptionsFor(s.config.FS, root)...)
	res, err := builder.Build(ctx)
	if err != nil {
		return nil, err
	}

	projectHash := graph.ProjectHash(res.Graph.ProjectRoot)
	cached := &CachedGraph{
		Graph:          res.Graph,
		Stats:          res.Stats,
		ScanConfig:     scanConfig,
		ScannedAtMilli: time.Now().UnixMilli(),
	}

	s.mu.Lock()
	s.cache[projectHash] = cached
	s.lastHash = projectHash
	s.mu.Unlock()

	scanDuration.Observe(time.Since(start).Seconds())
	graphNodes.WithLabelValues(projectHash).Set(float64(res.Graph.NodeCount()))
	graphEdges.WithLabelValues(projectHash).Set(float64(res.Graph.EdgeCount()))
	unresolvedLocals.WithLabelValues(projectHash).Set(float64(res.Stats.UnresolvedLocals))

	outcome := &ScanOutcome{
		ProjectRoot: res.Graph.ProjectRoot,
		ProjectHash: projectHash,
		Cached:      cached,
	}

	if saveSnapshot {
		meta, err := s.config.Snapshots.Save(ctx, res.Graph, label)
		if err != nil {
			return nil, fmt.Errorf("saving snapshot: %w", err)
		}
		outcome.SnapshotID = meta.SnapshotID
	}

	return outcome, nil
}

// GraphFor returns the cached graph for a project hash. An empty hash selects
// the most recently scanned project.
func (s *Service) GraphFor(projectHash string) (*CachedGraph, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if projectHash == "" {
		projectHash = s.lastHash
	}
	if projectHash == "" {
		return nil, "", ErrNoGraph
	}

	cached, ok := s.cache[projectHash]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownProject, projectHash)
	}
	return cached, projectHash, nil
}

// SerializableGraphFor returns the cached graph in wire form, with the given
// node kinds filtered out.
//
// Description:
//
//	Kinds from the query are merged with the service-wide and the project's
//	configured exclude_kinds; each kind is removed by deriving a filtered
//	graph, so the cache entry is never mutated. Unknown kind names are
//	rejected.
func (s *Service) SerializableGraphFor(projectHash string, excludeKinds []string) (*graph.SerializableGraph, error) {
	cached, _, err := s.GraphFor(projectHash)
	if err != nil {
		return nil, err
	}

	configured := append(append([]string{}, s.config.ExcludeKinds...), cached.ScanConfig.ExcludeKinds...)
	kinds, err := mergeExcludeKinds(configured, excludeKinds)
	if err != nil {
		return nil, err
	}

	g := cached.Graph
	for _, kind := range kinds {
		g, err = g.FilterKind(kind)
		if err != nil {
			return nil, err
		}
	}

	return g.ToSerializable(), nil
}

// StatsFor returns summary statistics for a cached graph.
func (s *Service) StatsFor(projectHash string) (*GraphStatsResponse, error) {
	cached, hash, err := s.GraphFor(projectHash)
	if err != nil {
		return nil, err
	}

	g := cached.Graph
	return &GraphStatsResponse{
		ProjectRoot:  g.ProjectRoot,
		ProjectHash:  hash,
		GraphHash:    g.Hash(),
		BuiltAtMilli: g.BuiltAtMilli,
		NodeCount:    g.NodeCount(),
		EdgeCount:    g.EdgeCount(),
		LocalNodes:   cached.Stats.LocalNodes,
		PackageNodes: cached.Stats.PackageNodes,
		BuiltinNodes: cached.Stats.BuiltinNodes,
	}, nil
}

// Snapshots returns the snapshot store, or nil when persistence is disabled.
func (s *Service) Snapshots() *graph.SnapshotManager {
	return s.config.Snapshots
}

// CachedCount returns the number of projects with a cached graph.
func (s *Service) CachedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// mergeExcludeKinds parses and deduplicates kind names from config and query.
func mergeExcludeKinds(configured, requested []string) ([]graph.NodeKind, error) {
	seen := make(map[graph.NodeKind]bool)
	kinds := make([]graph.NodeKind, 0, len(configured)+len(requested))

	for _, name := range append(append([]string{}, configured...), requested...) {
		if name == "" {
			continue
		}
		kind, ok := graph.ParseNodeKind(name)
		if !ok {
			return nil, fmt.Errorf("unknown node kind %q", name)
		}
		if seen[kind] {
			continue
		}
		seen[kind] = true
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
