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
	"fmt"
)

// GraphSchemaVersion is the version of the serialization schema.
// Increment when the serialization format changes in a breaking way.
const GraphSchemaVersion = "1.0"

// SerializableGraph is the JSON contract handed to the presentation layer:
// a nodes array plus a links array of {source, target} pairs using node keys
// as plain strings.
//
// Description:
//
//	Node order is graph insertion order and link order is edge append order —
//	emission order is a pure function of discovery and extraction order, so
//	there is deliberately no sorting pass here. The envelope fields
//	(schema version, root, build time, hash) support snapshot persistence
//	and diffing.
//
// Thread Safety: SerializableGraph is a value type with no internal state.
type SerializableGraph struct {
	// SchemaVersion identifies the serialization format version.
	SchemaVersion string `json:"schema_version"`

	// ProjectRoot is the absolute path to the scanned project root.
	ProjectRoot string `json:"project_root"`

	// BuiltAtMilli is the Unix timestamp in milliseconds when the graph was frozen.
	BuiltAtMilli int64 `json:"built_at_milli"`

	// GraphHash is the deterministic hash of the graph structure.
	GraphHash string `json:"graph_hash"`

	// Nodes contains all nodes in insertion order.
	Nodes []SerializableNode `json:"nodes"`

	// Links contains all edges in append order.
	Links []SerializableLink `json:"links"`
}

// SerializableNode is the JSON representation of a Node.
type SerializableNode struct {
	// ID is the unique node key.
	ID string `json:"id"`

	// Label is the display name.
	Label string `json:"label"`

	// Kind is "local", "package", or "builtin".
	Kind string `json:"kind"`

	// Ext is the resolved file extension; empty for non-local nodes.
	Ext string `json:"ext,omitempty"`
}

// SerializableLink is the JSON representation of an Edge.
type SerializableLink struct {
	// Source is the key of the referencing file's node.
	Source string `json:"source"`

	// Target is the key of the referenced node.
	Target string `json:"target"`
}

// ToSerializable converts a Graph to its JSON-serializable representation.
//
// Outputs:
//
//	*SerializableGraph - Never nil. Nodes and Links are non-nil even when
//	empty, so the JSON always carries both arrays.
func (g *Graph) ToSerializable() *SerializableGraph {
	if g == nil {
		return &SerializableGraph{
			SchemaVersion: GraphSchemaVersion,
			Nodes:         []SerializableNode{},
			Links:         []SerializableLink{},
		}
	}

	nodes := make([]SerializableNode, 0, len(g.order))
	for _, key := range g.order {
		n := g.nodes[key]
		nodes = append(nodes, SerializableNode{
			ID:    n.Key,
			Label: n.Label,
			Kind:  n.Kind.String(),
			Ext:   n.Ext,
		})
	}

	links := make([]SerializableLink, 0, len(g.edges))
	for _, e := range g.edges {
		links = append(links, SerializableLink{
			Source: e.SourceKey,
			Target: e.TargetKey,
		})
	}

	return &SerializableGraph{
		SchemaVersion: GraphSchemaVersion,
		ProjectRoot:   g.ProjectRoot,
		BuiltAtMilli:  g.BuiltAtMilli,
		GraphHash:     g.Hash(),
		Nodes:         nodes,
		Links:         links,
	}
}

// FromSerializable reconstructs a frozen Graph from its serializable form.
//
// Description:
//
//	Replays AddNode and AddEdge through the normal construction path so the
//	rebuilt graph satisfies the same invariants (unique keys, no dangling
//	edges) as a freshly built one.
//
// Outputs:
//
//	*Graph - The reconstructed graph in read-only state.
//	error - Non-nil if sg is nil, the schema version is unsupported, a node
//	        kind is unknown, or an edge references a missing node.
func FromSerializable(sg *SerializableGraph, opts ...GraphOption) (*Graph, error) {
	if sg == nil {
		return nil, fmt.Errorf("serializable graph must not be nil")
	}
	if sg.SchemaVersion != GraphSchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %q (expected %q)", sg.SchemaVersion, GraphSchemaVersion)
	}

	g := NewGraph(sg.ProjectRoot, opts...)

	for i, sn := range sg.Nodes {
		kind, ok := ParseNodeKind(sn.Kind)
		if !ok {
			return nil, fmt.Errorf("node at index %d has unknown kind %q (id=%s)", i, sn.Kind, sn.ID)
		}
		if _, err := g.AddNode(Node{Key: sn.ID, Label: sn.Label, Kind: kind, Ext: sn.Ext}); err != nil {
			return nil, fmt.Errorf("adding node %s: %w", sn.ID, err)
		}
	}

	for i, link := range sg.Links {
		if err := g.AddEdge(link.Source, link.Target); err != nil {
			return nil, fmt.Errorf("adding link %d (%s -> %s): %w", i, link.Source, link.Target, err)
		}
	}

	g.Freeze()
	g.BuiltAtMilli = sg.BuiltAtMilli

	return g, nil
}
