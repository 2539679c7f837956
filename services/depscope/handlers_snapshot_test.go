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
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/DepScope/services/depscope/graph"
)

// setupSnapshotRouter wires a service with an in-memory snapshot store.
func setupSnapshotRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	snapshots, err := graph.NewSnapshotManager(db, logger)
	require.NoError(t, err)

	router, _ := setupTestRouter(t, ServiceConfig{FS: newTestFS(t), Snapshots: snapshots})
	return router
}

// scanWithSnapshot runs a snapshotting scan and returns the snapshot ID.
func scanWithSnapshot(t *testing.T, router *gin.Engine, label string) string {
	t.Helper()

	var resp ScanResponse
	w := doJSON(t, router, http.MethodPost, "/v1/depscope/scan",
		ScanRequest{Root: "/proj", Label: label, Snapshot: true}, &resp)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotEmpty(t, resp.SnapshotID)
	return resp.SnapshotID
}

func TestSnapshotEndpoints_Disabled(t *testing.T) {
	router, _ := setupTestRouter(t, ServiceConfig{FS: newTestFS(t)})

	w := doJSON(t, router, http.MethodGet, "/v1/depscope/snapshots", nil, nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/depscope/scan",
		ScanRequest{Root: "/proj", Snapshot: true}, nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/depscope/snapshots", nil, nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestHandleCreateSnapshot(t *testing.T) {
	router := setupSnapshotRouter(t)

	// Nothing cached yet.
	w := doJSON(t, router, http.MethodPost, "/v1/depscope/snapshots", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var scanResp ScanResponse
	w = doJSON(t, router, http.MethodPost, "/v1/depscope/scan",
		ScanRequest{Root: "/proj"}, &scanResp)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Empty(t, scanResp.SnapshotID)

	w = doJSON(t, router, http.MethodPost, "/v1/depscope/snapshots",
		SnapshotRequest{Label: "post-hoc"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var meta graph.SnapshotMetadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, graph.ProjectHash("/proj"), meta.ProjectHash)
	assert.Equal(t, "post-hoc", meta.Label)

	var sg graph.SerializableGraph
	w = doJSON(t, router, http.MethodGet, "/v1/depscope/snapshots/"+meta.SnapshotID, nil, &sg)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, sg.Nodes, 4)

	// An unknown project hash is a lookup failure, not a store failure.
	w = doJSON(t, router, http.MethodPost, "/v1/depscope/snapshots",
		SnapshotRequest{ProjectHash: "deadbeefdeadbeef"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleListSnapshots(t *testing.T) {
	router := setupSnapshotRouter(t)
	id := scanWithSnapshot(t, router, "first scan")

	var list SnapshotListResponse
	w := doJSON(t, router, http.MethodGet, "/v1/depscope/snapshots", nil, &list)
	require.Equal(t, http.StatusOK, w.Code)

	require.Equal(t, 1, list.Count)
	assert.Equal(t, id, list.Snapshots[0].SnapshotID)
	assert.Equal(t, "first scan", list.Snapshots[0].Label)
	assert.Equal(t, graph.ProjectHash("/proj"), list.Snapshots[0].ProjectHash)
}

func TestHandleGetSnapshot(t *testing.T) {
	router := setupSnapshotRouter(t)
	id := scanWithSnapshot(t, router, "")

	var sg graph.SerializableGraph
	w := doJSON(t, router, http.MethodGet, "/v1/depscope/snapshots/"+id, nil, &sg)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, sg.Nodes, 4)
	assert.Len(t, sg.Links, 3)

	w = doJSON(t, router, http.MethodGet, "/v1/depscope/snapshots/deadbeefdeadbeef", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleDeleteSnapshot(t *testing.T) {
	router := setupSnapshotRouter(t)
	id := scanWithSnapshot(t, router, "")

	w := doJSON(t, router, http.MethodDelete, "/v1/depscope/snapshots/"+id, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var deleted map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &deleted))
	assert.Equal(t, id, deleted["deleted"])

	w = doJSON(t, router, http.MethodGet, "/v1/depscope/snapshots/"+id, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/v1/depscope/snapshots/"+id, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleDiffSnapshots(t *testing.T) {
	router := setupSnapshotRouter(t)
	base := scanWithSnapshot(t, router, "base")

	// Identical rescan would reuse the snapshot ID (same root, same build
	// second), so diff base against itself: zero changes, distinct labels.
	var diff graph.SnapshotDiff
	w := doJSON(t, router, http.MethodGet,
		"/v1/depscope/snapshots/diff?base="+base+"&target="+base, nil, &diff)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 0, diff.Summary.TotalChanges)
	assert.Equal(t, base, diff.BaseSnapshotID)

	w = doJSON(t, router, http.MethodGet, "/v1/depscope/snapshots/diff?base="+base, nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet,
		"/v1/depscope/snapshots/diff?base="+base+"&target=deadbeefdeadbeef", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
