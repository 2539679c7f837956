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

import "errors"

// Sentinel errors for the graph package.
var (
	// ErrInvalidRoot indicates the scan root does not exist or is not a directory.
	// This is the one hard precondition failure: no scan work starts after it.
	ErrInvalidRoot = errors.New("invalid scan root")

	// ErrNilGraph indicates a nil graph was passed where a graph is required.
	ErrNilGraph = errors.New("graph must not be nil")

	// ErrGraphFrozen indicates a mutation was attempted on a frozen graph.
	ErrGraphFrozen = errors.New("graph is frozen")

	// ErrGraphNotFrozen indicates a read-side operation that requires a frozen
	// graph was called while the graph was still building.
	ErrGraphNotFrozen = errors.New("graph is not frozen")

	// ErrUnknownNode indicates an edge referenced a node key that has not been
	// registered. The builder never produces this; it guards direct API misuse.
	ErrUnknownNode = errors.New("unknown node key")

	// ErrSnapshotNotFound indicates the requested snapshot ID does not exist.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)
