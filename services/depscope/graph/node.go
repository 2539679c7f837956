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

// NodeKind categorizes a graph node.
type NodeKind int

const (
	// NodeKindLocal is a file inside the scanned project, or an unresolved
	// local specifier kept visible under its raw specifier string.
	NodeKindLocal NodeKind = iota

	// NodeKindPackage is an externally installed, named dependency.
	NodeKindPackage

	// NodeKindBuiltin is a module provided by the host runtime itself.
	NodeKindBuiltin
)

// String returns the string representation of the NodeKind.
func (k NodeKind) String() string {
	switch k {
	case NodeKindLocal:
		return "local"
	case NodeKindPackage:
		return "package"
	case NodeKindBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// ParseNodeKind converts a kind string back to its NodeKind.
//
// Outputs:
//
//	NodeKind - The parsed kind.
//	bool - False if the string names no known kind.
func ParseNodeKind(s string) (NodeKind, bool) {
	switch s {
	case "local":
		return NodeKindLocal, true
	case "package":
		return NodeKindPackage, true
	case "builtin":
		return NodeKindBuiltin, true
	default:
		return NodeKindLocal, false
	}
}

// Node is a single identity in a dependency graph.
//
// Description:
//
//	Identity is the Key: local nodes are keyed by their root-relative slash
//	path (or the raw specifier when resolution failed), package nodes by the
//	package name (scope+name for scoped packages), builtin nodes by the
//	normalized "builtin:<name>" form. At most one node per key exists in a
//	graph; nodes are created lazily on first reference.
//
// Thread Safety: Immutable after the owning graph is frozen.
type Node struct {
	// Key is the unique identity of this node within one graph.
	Key string

	// Label is the display name shown by the presentation layer.
	Label string

	// Kind is the node category.
	Kind NodeKind

	// Ext is the file extension (with leading dot) for local nodes that
	// resolved to a real file. Empty for package, builtin, and unresolved
	// local nodes.
	Ext string
}

// Edge is a directed reference from one node to another.
//
// Description:
//
//	One edge is appended per extracted specifier occurrence; edges are NOT
//	deduplicated even when two occurrences resolve to the same target. Edge
//	count therefore reflects reference occurrences, not distinct
//	relationships.
//
// Thread Safety: Immutable after the owning graph is frozen.
type Edge struct {
	// SourceKey is the key of the referencing file's node.
	SourceKey string

	// TargetKey is the key of the referenced node.
	TargetKey string
}
