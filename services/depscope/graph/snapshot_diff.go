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
	"sort"
)

// SnapshotDiff contains the differences between two dependency-graph snapshots.
type SnapshotDiff struct {
	// BaseSnapshotID is the ID of the base snapshot.
	BaseSnapshotID string `json:"base_snapshot_id"`

	// TargetSnapshotID is the ID of the target snapshot.
	TargetSnapshotID string `json:"target_snapshot_id"`

	// NodesAdded are node keys present in target but not in base.
	NodesAdded []string `json:"nodes_added"`

	// NodesRemoved are node keys present in base but not in target.
	NodesRemoved []string `json:"nodes_removed"`

	// NodesModified are nodes whose classification changed between snapshots.
	NodesModified []NodeDiff `json:"nodes_modified"`

	// EdgesAdded is the count of edge occurrences in target but not in base.
	EdgesAdded int `json:"edges_added"`

	// EdgesRemoved is the count of edge occurrences in base but not in target.
	EdgesRemoved int `json:"edges_removed"`

	// Summary contains aggregate statistics about the diff.
	Summary DiffSummary `json:"summary"`
}

// NodeDiff describes how a single node changed between snapshots.
type NodeDiff struct {
	// Key is the unique node key.
	Key string `json:"key"`

	// Label is the human-readable label from the target snapshot.
	Label string `json:"label"`

	// ChangeType describes what changed: "kind_changed" or "ext_changed".
	ChangeType string `json:"change_type"`
}

// DiffSummary contains aggregate statistics about a diff.
type DiffSummary struct {
	// TotalChanges is added + removed + modified nodes + edge changes.
	TotalChanges int `json:"total_changes"`

	// ChangeRatio is the fraction of nodes that changed (0.0 to 1.0).
	ChangeRatio float64 `json:"change_ratio"`
}

// DiffSnapshots computes the differences between two dependency graphs.
//
// Description:
//
//	Compares two graphs (typically loaded from snapshots) and produces a
//	SnapshotDiff describing what changed. Comparison is by node key; a
//	renamed file shows as remove + add. Edges are compared as multisets,
//	so a file importing the same module a second time counts as an added
//	edge occurrence.
//
// Inputs:
//
//	base - The base graph for comparison. Must not be nil.
//	target - The target graph for comparison. Must not be nil.
//	baseSnapshotID - ID of the base snapshot (for labeling).
//	targetSnapshotID - ID of the target snapshot (for labeling).
//
// Outputs:
//
//	*SnapshotDiff - The computed differences.
//	error - Non-nil if either graph is nil.
//
// Complexity:
//
//	O(V + E) where V is max(baseNodes, targetNodes) and E is
//	max(baseEdges, targetEdges).
//
// Thread Safety:
//
//	Safe for concurrent use on frozen graphs.
func DiffSnapshots(base, target *Graph, baseSnapshotID, targetSnapshotID string) (*SnapshotDiff, error) {
	if base == nil {
		return nil, fmt.Errorf("base graph must not be nil")
	}
	if target == nil {
		return nil, fmt.Errorf("target graph must not be nil")
	}

	diff := &SnapshotDiff{
		BaseSnapshotID:   baseSnapshotID,
		TargetSnapshotID: targetSnapshotID,
		NodesAdded:       []string{},
		NodesRemoved:     []string{},
		NodesModified:    []NodeDiff{},
	}

	for key, tNode := range target.nodes {
		bNode, exists := base.nodes[key]
		if !exists {
			diff.NodesAdded = append(diff.NodesAdded, key)
			continue
		}
		if changeType, changed := classifyNodeChange(bNode, tNode); changed {
			diff.NodesModified = append(diff.NodesModified, NodeDiff{
				Key:        key,
				Label:      tNode.Label,
				ChangeType: changeType,
			})
		}
	}

	for key := range base.nodes {
		if _, exists := target.nodes[key]; !exists {
			diff.NodesRemoved = append(diff.NodesRemoved, key)
		}
	}

	// Sort for deterministic output
	sort.Strings(diff.NodesAdded)
	sort.Strings(diff.NodesRemoved)
	sort.Slice(diff.NodesModified, func(i, j int) bool {
		return diff.NodesModified[i].Key < diff.NodesModified[j].Key
	})

	// Edges compared as multisets: counts per (source, target) pair.
	baseEdges := buildEdgeMultiset(base.edges)
	targetEdges := buildEdgeMultiset(target.edges)

	for key, tCount := range targetEdges {
		if bCount := baseEdges[key]; tCount > bCount {
			diff.EdgesAdded += tCount - bCount
		}
	}
	for key, bCount := range baseEdges {
		if tCount := targetEdges[key]; bCount > tCount {
			diff.EdgesRemoved += bCount - tCount
		}
	}

	totalNodes := len(base.nodes)
	if len(target.nodes) > totalNodes {
		totalNodes = len(target.nodes)
	}

	changeRatio := 0.0
	if totalNodes > 0 {
		changedNodes := len(diff.NodesAdded) + len(diff.NodesRemoved) + len(diff.NodesModified)
		changeRatio = float64(changedNodes) / float64(totalNodes)
	}

	diff.Summary = DiffSummary{
		TotalChanges: len(diff.NodesAdded) + len(diff.NodesRemoved) + len(diff.NodesModified) +
			diff.EdgesAdded + diff.EdgesRemoved,
		ChangeRatio: changeRatio,
	}

	return diff, nil
}

// classifyNodeChange reports whether a node with the same key differs between
// snapshots and what kind of change it is.
func classifyNodeChange(base, target *Node) (string, bool) {
	if base.Kind != target.Kind {
		return "kind_changed", true
	}
	if base.Ext != target.Ext {
		return "ext_changed", true
	}
	return "", false
}

// buildEdgeMultiset counts edge occurrences per (source, target) pair.
func buildEdgeMultiset(edges []Edge) map[string]int {
	set := make(map[string]int, len(edges))
	for _, e := range edges {
		set[e.SourceKey+"|"+e.TargetKey]++
	}
	return set
}
