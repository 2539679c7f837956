// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package depscope

import (
	"github.com/AleutianAI/DepScope/services/depscope/graph"
)

// ErrorResponse is the uniform error envelope for all endpoints.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`

	// Code is a machine-readable error code.
	Code string `json:"code"`
}

// ScanRequest is the body for POST /v1/depscope/scan.
//
// Exactly one of Root and Repo must be set: Root scans a directory already on
// disk, Repo fetches owner/name[@ref] from the tarball host first.
type ScanRequest struct {
	// Root is the absolute path of a local project to scan.
	Root string `json:"root,omitempty"`

	// Repo is a remote repository specifier, owner/name[@ref].
	Repo string `json:"repo,omitempty"`

	// Label is an optional label recorded on the snapshot.
	Label string `json:"label,omitempty"`

	// Snapshot persists the built graph when snapshots are enabled.
	Snapshot bool `json:"snapshot,omitempty"`
}

// ScanResponse is the result of a scan.
type ScanResponse struct {
	// ProjectRoot is the scanned root (the unpacked path for repo scans).
	ProjectRoot string `json:"project_root"`

	// ProjectHash identifies the project in later graph and snapshot calls.
	ProjectHash string `json:"project_hash"`

	// SnapshotID is set when the scan was persisted.
	SnapshotID string `json:"snapshot_id,omitempty"`

	// NodeCount and EdgeCount summarize the built graph.
	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`

	// Stats carries the builder's per-scan counters.
	Stats graph.BuildStats `json:"stats"`
}

// GraphStatsResponse is the body for GET /v1/depscope/graph/stats.
type GraphStatsResponse struct {
	ProjectRoot  string `json:"project_root"`
	ProjectHash  string `json:"project_hash"`
	GraphHash    string `json:"graph_hash"`
	BuiltAtMilli int64  `json:"built_at_milli"`
	NodeCount    int    `json:"node_count"`
	EdgeCount    int    `json:"edge_count"`
	LocalNodes   int    `json:"local_nodes"`
	PackageNodes int    `json:"package_nodes"`
	BuiltinNodes int    `json:"builtin_nodes"`
}

// SnapshotRequest is the body for POST /v1/depscope/snapshots. It snapshots
// an already-cached graph; scans can also persist directly via ScanRequest.
type SnapshotRequest struct {
	// ProjectHash selects the cached graph. Empty means the last scan.
	ProjectHash string `json:"project_hash,omitempty"`

	// Label is an optional label recorded on the snapshot.
	Label string `json:"label,omitempty"`
}

// SnapshotListResponse is the body for GET /v1/depscope/snapshots.
type SnapshotListResponse struct {
	Snapshots []*graph.SnapshotMetadata `json:"snapshots"`
	Count     int                       `json:"count"`
}

// HealthResponse is the body for GET /v1/depscope/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// ReadyResponse is the body for GET /v1/depscope/ready.
type ReadyResponse struct {
	Ready        bool `json:"ready"`
	GraphsCached int  `json:"graphs_cached"`
}
