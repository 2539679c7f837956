// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// BuilderOptions configures Builder behavior.
type BuilderOptions struct {
	// ProjectRoot is the absolute or relative path to the scan root.
	ProjectRoot string

	// FS is the filesystem capability used for all listing, existence checks,
	// and reads. Default: the OS filesystem.
	FS afero.Fs

	// Extensions is the source-extension allow list, in resolver fallback
	// order. Default: DefaultExtensions().
	Extensions []string

	// IgnoreDirs is the set of directory names to skip during discovery.
	// Default: DefaultIgnoreDirs().
	IgnoreDirs map[string]bool

	// Builtins is the platform built-in module name table.
	// Default: DefaultBuiltins().
	Builtins map[string]bool

	// MaxNodes is the maximum number of nodes (passed to Graph).
	MaxNodes int

	// MaxEdges is the maximum number of edges (passed to Graph).
	MaxEdges int
}

// BuilderOption is a functional option for configuring Builder.
type BuilderOption func(*BuilderOptions)

// WithProjectRoot sets the scan root path.
func WithProjectRoot(root string) BuilderOption {
	return func(o *BuilderOptions) {
		o.ProjectRoot = root
	}
}

// WithFS sets the filesystem capability. Tests pass an in-memory fs here.
func WithFS(fsys afero.Fs) BuilderOption {
	return func(o *BuilderOptions) {
		o.FS = fsys
	}
}

// WithExtensions sets the source-extension allow list.
func WithExtensions(exts []string) BuilderOption {
	return func(o *BuilderOptions) {
		o.Extensions = exts
	}
}

// WithIgnoreDirs sets the ignored directory name set.
func WithIgnoreDirs(dirs map[string]bool) BuilderOption {
	return func(o *BuilderOptions) {
		o.IgnoreDirs = dirs
	}
}

// WithBuiltins sets the platform built-in module table.
func WithBuiltins(builtins map[string]bool) BuilderOption {
	return func(o *BuilderOptions) {
		o.Builtins = builtins
	}
}

// WithBuilderMaxNodes sets the maximum number of nodes.
func WithBuilderMaxNodes(n int) BuilderOption {
	return func(o *BuilderOptions) {
		o.MaxNodes = n
	}
}

// WithBuilderMaxEdges sets the maximum number of edges.
func WithBuilderMaxEdges(n int) BuilderOption {
	return func(o *BuilderOptions) {
		o.MaxEdges = n
	}
}

// BuildStats contains summary counts for one build.
type BuildStats struct {
	// FilesScanned is the number of discovered source files.
	FilesScanned int `json:"files_scanned"`

	// FilesUnreadable is the number of discovered files whose text could not
	// be read. They contribute their own node but no edges.
	FilesUnreadable int `json:"files_unreadable"`

	// RefsExtracted is the total number of deduplicated specifiers extracted
	// across all readable files. Equals the edge count.
	RefsExtracted int `json:"refs_extracted"`

	// UnresolvedLocals is the number of local references that resolved to no
	// file on disk and were kept under their raw specifier.
	UnresolvedLocals int `json:"unresolved_locals"`

	// LocalNodes, PackageNodes, and BuiltinNodes are per-kind node counts.
	LocalNodes   int `json:"local_nodes"`
	PackageNodes int `json:"package_nodes"`
	BuiltinNodes int `json:"builtin_nodes"`

	// DurationMilli is the wall-clock build duration in milliseconds.
	DurationMilli int64 `json:"duration_milli"`
}

// BuildResult is the output of one Build call.
type BuildResult struct {
	// Graph is the frozen dependency graph.
	Graph *Graph

	// Stats contains summary counts.
	Stats BuildStats
}

// Builder constructs dependency graphs from a project tree.
//
// Description:
//
//	The builder is stateless and can be reused; each Build() call scans the
//	configured root from scratch and produces a new frozen graph. The scan is
//	single-threaded and strictly sequential file-by-file, so given an
//	unchanged filesystem repeated builds produce identical node sets and
//	identical edge sequences.
//
// Thread Safety:
//
//	Builder is safe for concurrent use. Each Build() call operates
//	independently with its own state.
type Builder struct {
	options BuilderOptions
}

// NewBuilder creates a new Builder with the given options.
//
// Example:
//
//	builder := NewBuilder(
//	    WithProjectRoot("/path/to/project"),
//	)
func NewBuilder(opts ...BuilderOption) *Builder {
	options := BuilderOptions{
		FS:         afero.NewOsFs(),
		Extensions: DefaultExtensions(),
		IgnoreDirs: DefaultIgnoreDirs(),
		Builtins:   DefaultBuiltins(),
		MaxNodes:   DefaultMaxNodes,
		MaxEdges:   DefaultMaxEdges,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Builder{options: options}
}

// Build scans the project root and produces a frozen dependency graph.
//
// Description:
//
//	1. Rejects an invalid root (missing, or not a directory) before any scan
//	   work begins.
//	2. Discovers source files and registers one local node per file, keyed by
//	   its root-relative slash path.
//	3. Reads each file sequentially; unreadable files are skipped (their node
//	   stays, they contribute no edges). Extracts the file's deduplicated
//	   specifiers, classifies each, resolves locals against the filesystem,
//	   and appends one edge per specifier in extraction order.
//
// Inputs:
//
//	ctx - Context for tracing. The scan itself is not cancellable mid-build;
//	      callers impose timeouts between whole invocations.
//
// Outputs:
//
//	*BuildResult - The frozen graph plus stats. Nil on error.
//	error - ErrInvalidRoot (wrapped) for a bad scan root.
func (b *Builder) Build(ctx context.Context) (*BuildResult, error) {
	start := time.Now()

	_, span := otel.Tracer("aleutian.depscope").Start(ctx, "graph.Build")
	defer span.End()
	span.SetAttributes(attribute.String("project_root", b.options.ProjectRoot))

	root, err := b.validateRoot()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid scan root")
		return nil, err
	}

	fsys := b.options.FS
	g := NewGraph(root,
		WithMaxNodes(b.options.MaxNodes),
		WithMaxEdges(b.options.MaxEdges),
	)
	stats := BuildStats{}

	files := Discover(fsys, root, DiscoverOptions{
		IgnoreDirs: b.options.IgnoreDirs,
		Extensions: b.options.Extensions,
	})
	stats.FilesScanned = len(files)

	// Register one local node per discovered file before any edge work, so
	// resolution targets already have their extension recorded.
	for _, f := range files {
		if _, err := g.AddNode(b.fileNode(root, f.Path, f.Ext)); err != nil {
			return nil, fmt.Errorf("registering %s: %w", f.Path, err)
		}
	}

	for _, f := range files {
		data, readErr := afero.ReadFile(fsys, f.Path)
		if readErr != nil {
			stats.FilesUnreadable++
			slog.Debug("skipping unreadable file",
				slog.String("path", f.Path),
				slog.String("error", readErr.Error()),
			)
			continue
		}

		sourceKey := b.relKey(root, f.Path)
		for _, spec := range ExtractReferences(string(data)) {
			targetKey, err := b.registerReference(g, root, spec, f.Path, &stats)
			if err != nil {
				return nil, fmt.Errorf("registering reference %q from %s: %w", spec, f.Path, err)
			}
			if err := g.AddEdge(sourceKey, targetKey); err != nil {
				return nil, fmt.Errorf("adding edge %s -> %s: %w", sourceKey, targetKey, err)
			}
			stats.RefsExtracted++
		}
	}

	g.Freeze()

	stats.LocalNodes = g.KindCount(NodeKindLocal)
	stats.PackageNodes = g.KindCount(NodeKindPackage)
	stats.BuiltinNodes = g.KindCount(NodeKindBuiltin)
	stats.DurationMilli = time.Since(start).Milliseconds()

	span.SetAttributes(
		attribute.Int("nodes", g.NodeCount()),
		attribute.Int("edges", g.EdgeCount()),
		attribute.Int("files", stats.FilesScanned),
	)
	span.SetStatus(codes.Ok, "build complete")

	slog.Info("dependency graph built",
		slog.String("project_root", root),
		slog.Int("files", stats.FilesScanned),
		slog.Int("nodes", g.NodeCount()),
		slog.Int("edges", g.EdgeCount()),
		slog.Int("unresolved_locals", stats.UnresolvedLocals),
		slog.Int64("duration_ms", stats.DurationMilli),
	)

	return &BuildResult{Graph: g, Stats: stats}, nil
}

// registerReference classifies one specifier, creates or reuses its node, and
// returns the target node key.
func (b *Builder) registerReference(g *Graph, root, spec, fromFile string, stats *BuildStats) (string, error) {
	switch Classify(spec, b.options.Builtins) {
	case RefLocal:
		resolved, ok := ResolveLocal(b.options.FS, spec, fromFile, b.options.Extensions)
		if !ok {
			stats.UnresolvedLocals++
			n, err := g.AddNode(Node{Key: spec, Label: spec, Kind: NodeKindLocal})
			if err != nil {
				return "", err
			}
			return n.Key, nil
		}
		// Ext is lowercased to match discovery's normalization, for files
		// only reachable through exact-path resolution.
		n, err := g.AddNode(b.fileNode(root, resolved, strings.ToLower(filepath.Ext(resolved))))
		if err != nil {
			return "", err
		}
		return n.Key, nil

	case RefBuiltin:
		n, err := g.AddNode(Node{
			Key:   BuiltinKey(spec),
			Label: BuiltinLabel(spec),
			Kind:  NodeKindBuiltin,
		})
		if err != nil {
			return "", err
		}
		return n.Key, nil

	default:
		key := PackageKey(spec)
		n, err := g.AddNode(Node{Key: key, Label: key, Kind: NodeKindPackage})
		if err != nil {
			return "", err
		}
		return n.Key, nil
	}
}

// fileNode builds the local node for a concrete file under the root.
func (b *Builder) fileNode(root, path, ext string) Node {
	key := b.relKey(root, path)
	return Node{Key: key, Label: key, Kind: NodeKindLocal, Ext: ext}
}

// relKey converts an absolute file path to its root-relative slash-path key.
func (b *Builder) relKey(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// validateRoot checks the hard precondition: the root must exist and be a
// directory. Returns the cleaned root path.
func (b *Builder) validateRoot() (string, error) {
	root := b.options.ProjectRoot
	if root == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidRoot)
	}
	root = filepath.Clean(root)

	info, err := b.options.FS.Stat(root)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidRoot, root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
	}
	return root, nil
}
