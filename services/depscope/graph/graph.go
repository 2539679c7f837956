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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Default graph capacity limits.
const (
	// DefaultMaxNodes is the default maximum number of nodes in a graph.
	DefaultMaxNodes = 500_000

	// DefaultMaxEdges is the default maximum number of edges in a graph.
	DefaultMaxEdges = 2_000_000
)

// GraphOptions configures Graph capacity limits.
type GraphOptions struct {
	// MaxNodes is the maximum number of nodes. Default: DefaultMaxNodes.
	MaxNodes int

	// MaxEdges is the maximum number of edges. Default: DefaultMaxEdges.
	MaxEdges int
}

// GraphOption is a functional option for configuring a Graph.
type GraphOption func(*GraphOptions)

// WithMaxNodes sets the maximum number of nodes.
func WithMaxNodes(n int) GraphOption {
	return func(o *GraphOptions) {
		o.MaxNodes = n
	}
}

// WithMaxEdges sets the maximum number of edges.
func WithMaxEdges(n int) GraphOption {
	return func(o *GraphOptions) {
		o.MaxEdges = n
	}
}

// Graph is the dependency graph aggregate: an insertion-ordered collection of
// nodes keyed by identity, plus a sequence of directed edges.
//
// Description:
//
//	A Graph is built once per scan invocation and frozen before being handed
//	to a consumer. Node and edge order is a pure function of discovery order
//	and per-file extraction order — there is no sorting pass, so repeated
//	scans of an unchanged tree produce identical output.
//
//	Invariant: every edge's source and target key is present in the node
//	collection. AddEdge enforces this, so a frozen graph never contains a
//	dangling edge.
//
// Thread Safety:
//
//	Not safe for concurrent mutation. Safe for concurrent reads after
//	Freeze() returns. FilterKind derives a new graph instead of mutating,
//	so a cached frozen graph can serve concurrent consumers.
type Graph struct {
	// ProjectRoot is the absolute path to the scanned project root.
	ProjectRoot string

	// BuiltAtMilli is the Unix timestamp in milliseconds when the graph was frozen.
	BuiltAtMilli int64

	nodes   map[string]*Node
	order   []string // node keys in insertion order
	edges   []Edge
	frozen  bool
	options GraphOptions
}

// NewGraph creates an empty graph in building state.
func NewGraph(projectRoot string, opts ...GraphOption) *Graph {
	options := GraphOptions{
		MaxNodes: DefaultMaxNodes,
		MaxEdges: DefaultMaxEdges,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Graph{
		ProjectRoot: projectRoot,
		nodes:       make(map[string]*Node),
		options:     options,
	}
}

// AddNode registers a node, deduplicating by key.
//
// Description:
//
//	If a node with the same key already exists, the existing node is returned
//	unchanged — first registration wins. Nodes are created lazily on first
//	reference, so a file node registered during discovery keeps its extension
//	even if a later unresolved specifier would have produced a bare node.
//
// Outputs:
//
//	*Node - The registered (or pre-existing) node. Never nil on success.
//	error - ErrGraphFrozen after Freeze, or a capacity error.
func (g *Graph) AddNode(n Node) (*Node, error) {
	if g.frozen {
		return nil, ErrGraphFrozen
	}
	if existing, ok := g.nodes[n.Key]; ok {
		return existing, nil
	}
	if len(g.nodes) >= g.options.MaxNodes {
		return nil, fmt.Errorf("node capacity %d exceeded", g.options.MaxNodes)
	}

	stored := n
	g.nodes[n.Key] = &stored
	g.order = append(g.order, n.Key)
	return &stored, nil
}

// AddEdge appends a directed edge between two registered nodes.
//
// Description:
//
//	Both keys must already be registered; this preserves the no-dangling-edge
//	invariant. Identical (source,target) pairs are appended as-is — edges are
//	never deduplicated.
//
// Outputs:
//
//	error - ErrGraphFrozen, ErrUnknownNode, or a capacity error.
func (g *Graph) AddEdge(sourceKey, targetKey string) error {
	if g.frozen {
		return ErrGraphFrozen
	}
	if _, ok := g.nodes[sourceKey]; !ok {
		return fmt.Errorf("%w: source %q", ErrUnknownNode, sourceKey)
	}
	if _, ok := g.nodes[targetKey]; !ok {
		return fmt.Errorf("%w: target %q", ErrUnknownNode, targetKey)
	}
	if len(g.edges) >= g.options.MaxEdges {
		return fmt.Errorf("edge capacity %d exceeded", g.options.MaxEdges)
	}

	g.edges = append(g.edges, Edge{SourceKey: sourceKey, TargetKey: targetKey})
	return nil
}

// Freeze transitions the graph to read-only state and stamps BuiltAtMilli.
// Freezing an already-frozen graph is a no-op.
func (g *Graph) Freeze() {
	if g.frozen {
		return
	}
	g.frozen = true
	g.BuiltAtMilli = time.Now().UnixMilli()
}

// IsFrozen reports whether the graph is in read-only state.
func (g *Graph) IsFrozen() bool {
	return g.frozen
}

// GetNode returns the node with the given key.
func (g *Graph) GetNode(key string) (*Node, bool) {
	n, ok := g.nodes[key]
	return n, ok
}

// Nodes returns all nodes in insertion order.
//
// The returned slice is freshly allocated; the nodes it points to are shared
// and must not be mutated on a frozen graph.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, g.nodes[key])
	}
	return out
}

// Edges returns all edges in append order. The slice is freshly allocated.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// KindCount returns the number of nodes of the given kind.
func (g *Graph) KindCount(kind NodeKind) int {
	count := 0
	for _, n := range g.nodes {
		if n.Kind == kind {
			count++
		}
	}
	return count
}

// FilterKind derives a new frozen graph with every node of the given kind
// removed, together with every edge whose source or target was a removed
// node's key. All other nodes and edges are untouched and keep their order.
//
// Description:
//
//	This is the only permitted post-construction mutation of the aggregate,
//	implemented as a derivation so the original graph stays intact for other
//	consumers.
//
// Outputs:
//
//	*Graph - A new frozen graph. Never nil.
//	error - ErrGraphNotFrozen if called on a building graph.
func (g *Graph) FilterKind(kind NodeKind) (*Graph, error) {
	if !g.frozen {
		return nil, ErrGraphNotFrozen
	}

	filtered := NewGraph(g.ProjectRoot,
		WithMaxNodes(g.options.MaxNodes),
		WithMaxEdges(g.options.MaxEdges),
	)

	removed := make(map[string]bool)
	for _, key := range g.order {
		n := g.nodes[key]
		if n.Kind == kind {
			removed[key] = true
			continue
		}
		if _, err := filtered.AddNode(*n); err != nil {
			return nil, err
		}
	}

	for _, e := range g.edges {
		if removed[e.SourceKey] || removed[e.TargetKey] {
			continue
		}
		if err := filtered.AddEdge(e.SourceKey, e.TargetKey); err != nil {
			return nil, err
		}
	}

	filtered.Freeze()
	filtered.BuiltAtMilli = g.BuiltAtMilli
	return filtered, nil
}

// Hash returns a deterministic SHA-256 hash of the graph structure.
//
// Description:
//
//	Covers node keys (with kind and extension) in insertion order followed by
//	edge pairs in append order. Two graphs with identical structure hash
//	identically regardless of when they were built.
func (g *Graph) Hash() string {
	h := sha256.New()
	for _, key := range g.order {
		n := g.nodes[key]
		fmt.Fprintf(h, "n\x00%s\x00%d\x00%s\n", n.Key, n.Kind, n.Ext)
	}
	for _, e := range g.edges {
		fmt.Fprintf(h, "e\x00%s\x00%s\n", e.SourceKey, e.TargetKey)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ProjectHash returns a short stable hash of a project root path, used to
// group snapshot keys by project.
func ProjectHash(projectRoot string) string {
	sum := sha256.Sum256([]byte(projectRoot))
	return hex.EncodeToString(sum[:])[:16]
}
