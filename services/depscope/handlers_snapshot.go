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
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/DepScope/services/depscope/graph"
)

// requireSnapshots writes the disabled error when no store is configured.
func (h *Handlers) requireSnapshots(c *gin.Context) *graph.SnapshotManager {
	snapshots := h.service.Snapshots()
	if snapshots == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{
			Error: ErrSnapshotsDisabled.Error(),
			Code:  "FEATURE_DISABLED",
		})
	}
	return snapshots
}

// HandleCreateSnapshot handles POST /v1/depscope/snapshots.
//
// Description:
//
//	Persists an already-cached graph without re-scanning. The body is
//	optional; an empty body snapshots the most recently scanned project.
//
// Response:
//
//	201 Created: graph.SnapshotMetadata of the persisted snapshot
//	404 Not Found: No cached graph for the project hash
//	501 Not Implemented: Snapshot persistence disabled
func (h *Handlers) HandleCreateSnapshot(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCreateSnapshot")

	snapshots := h.requireSnapshots(c)
	if snapshots == nil {
		return
	}

	var req SnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}

	cached, _, err := h.service.GraphFor(req.ProjectHash)
	if err != nil {
		h.writeGraphLookupError(c, logger, err)
		return
	}

	meta, err := snapshots.Save(c.Request.Context(), cached.Graph, req.Label)
	if err != nil {
		logger.Error("snapshot save failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "SNAPSHOT_SAVE_FAILED"})
		return
	}

	logger.Info("snapshot created",
		slog.String("snapshot_id", meta.SnapshotID),
		slog.String("project_hash", meta.ProjectHash),
	)
	c.JSON(http.StatusCreated, meta)
}

// HandleListSnapshots handles GET /v1/depscope/snapshots.
//
// Query Parameters:
//
//	project_hash: Filter to one project (optional)
//	limit: Maximum entries, default 100 (optional)
//
// Response:
//
//	200 OK: SnapshotListResponse, newest first
func (h *Handlers) HandleListSnapshots(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleListSnapshots")

	snapshots := h.requireSnapshots(c)
	if snapshots == nil {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	metas, err := snapshots.List(c.Request.Context(), c.Query("project_hash"), limit)
	if err != nil {
		logger.Error("snapshot list failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "SNAPSHOT_LIST_FAILED"})
		return
	}
	if metas == nil {
		metas = []*graph.SnapshotMetadata{}
	}

	c.JSON(http.StatusOK, SnapshotListResponse{Snapshots: metas, Count: len(metas)})
}

// HandleGetSnapshot handles GET /v1/depscope/snapshots/:id.
//
// Response:
//
//	200 OK: graph.SerializableGraph of the stored snapshot
//	404 Not Found: Unknown snapshot ID
func (h *Handlers) HandleGetSnapshot(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGetSnapshot")

	snapshots := h.requireSnapshots(c)
	if snapshots == nil {
		return
	}

	g, _, err := snapshots.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, graph.ErrSnapshotNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "SNAPSHOT_NOT_FOUND"})
			return
		}
		logger.Error("snapshot load failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "SNAPSHOT_LOAD_FAILED"})
		return
	}

	c.JSON(http.StatusOK, g.ToSerializable())
}

// HandleDeleteSnapshot handles DELETE /v1/depscope/snapshots/:id.
//
// Response:
//
//	200 OK: {"deleted": "<id>"}
//	404 Not Found: Unknown snapshot ID
func (h *Handlers) HandleDeleteSnapshot(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleDeleteSnapshot")

	snapshots := h.requireSnapshots(c)
	if snapshots == nil {
		return
	}

	id := c.Param("id")
	if err := snapshots.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, graph.ErrSnapshotNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "SNAPSHOT_NOT_FOUND"})
			return
		}
		logger.Error("snapshot delete failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "SNAPSHOT_DELETE_FAILED"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// HandleDiffSnapshots handles GET /v1/depscope/snapshots/diff.
//
// Query Parameters:
//
//	base: Base snapshot ID (required)
//	target: Target snapshot ID (required)
//
// Response:
//
//	200 OK: graph.SnapshotDiff
//	400 Bad Request: Missing parameter
//	404 Not Found: Either snapshot ID unknown
func (h *Handlers) HandleDiffSnapshots(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleDiffSnapshots")

	snapshots := h.requireSnapshots(c)
	if snapshots == nil {
		return
	}

	baseID := c.Query("base")
	targetID := c.Query("target")
	if baseID == "" || targetID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "base and target parameters are required",
			Code:  "MISSING_PARAMETER",
		})
		return
	}

	ctx := c.Request.Context()
	base, _, err := snapshots.Load(ctx, baseID)
	if err != nil {
		h.writeSnapshotLoadError(c, logger, err)
		return
	}
	target, _, err := snapshots.Load(ctx, targetID)
	if err != nil {
		h.writeSnapshotLoadError(c, logger, err)
		return
	}

	diff, err := graph.DiffSnapshots(base, target, baseID, targetID)
	if err != nil {
		logger.Error("snapshot diff failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "SNAPSHOT_DIFF_FAILED"})
		return
	}

	c.JSON(http.StatusOK, diff)
}

// writeSnapshotLoadError maps snapshot load failures onto the error envelope.
func (h *Handlers) writeSnapshotLoadError(c *gin.Context, logger *slog.Logger, err error) {
	if errors.Is(err, graph.ErrSnapshotNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "SNAPSHOT_NOT_FOUND"})
		return
	}
	logger.Error("snapshot load failed", slog.Any("error", err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "SNAPSHOT_LOAD_FAILED"})
}
