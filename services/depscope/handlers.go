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
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/DepScope/services/depscope/graph"
)

// Handlers holds the HTTP handlers for the depscope service.
type Handlers struct {
	service *Service
}

// NewHandlers creates the handlers for a service.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleScan handles POST /v1/depscope/scan.
//
// Description:
//
//	Builds the dependency graph for a local root or a fetched remote repo
//	and caches it for the read endpoints. With "snapshot": true the graph
//	is also persisted.
//
// Request Body: ScanRequest
//
// Response:
//
//	200 OK: ScanResponse
//	400 Bad Request: Malformed body, bad root, or bad repo specifier
//	501 Not Implemented: Repo scan without a configured fetcher, or
//	    snapshot without a configured store
//
// Thread Safety: Safe for concurrent use; concurrent scans of one root share
// a single build.
func (h *Handlers) HandleScan(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleScan")

	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  "INVALID_BODY",
		})
		return
	}

	if (req.Root == "") == (req.Repo == "") {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrBadScanRequest.Error(),
			Code:  "INVALID_SCAN_TARGET",
		})
		return
	}

	var (
		outcome *ScanOutcome
		err     error
	)
	if req.Repo != "" {
		outcome, err = h.service.ScanRepo(c.Request.Context(), req.Repo, req.Label, req.Snapshot)
	} else {
		outcome, err = h.service.Scan(c.Request.Context(), req.Root, req.Label, req.Snapshot)
	}

	if err != nil {
		logger.Error("scan failed",
			slog.String("root", req.Root),
			slog.String("repo", req.Repo),
			slog.Any("error", err),
		)
		switch {
		case errors.Is(err, graph.ErrInvalidRoot):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_ROOT"})
		case errors.Is(err, ErrFetchDisabled), errors.Is(err, ErrSnapshotsDisabled):
			c.JSON(http.StatusNotImplemented, ErrorResponse{Error: err.Error(), Code: "FEATURE_DISABLED"})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "SCAN_FAILED"})
		}
		return
	}

	logger.Info("scan complete",
		slog.String("project_root", outcome.ProjectRoot),
		slog.String("project_hash", outcome.ProjectHash),
		slog.Int("nodes", outcome.Cached.Graph.NodeCount()),
		slog.Int("edges", outcome.Cached.Graph.EdgeCount()),
	)

	c.JSON(http.StatusOK, ScanResponse{
		ProjectRoot: outcome.ProjectRoot,
		ProjectHash: outcome.ProjectHash,
		SnapshotID:  outcome.SnapshotID,
		NodeCount:   outcome.Cached.Graph.NodeCount(),
		EdgeCount:   outcome.Cached.Graph.EdgeCount(),
		Stats:       outcome.Cached.Stats,
	})
}

// HandleGraph handles GET /v1/depscope/graph.
//
// Query Parameters:
//
//	project_hash: Project to read (optional, defaults to the last scan)
//	exclude: Comma-separated node kinds to filter out (optional)
//
// Response:
//
//	200 OK: graph.SerializableGraph ({nodes, links})
//	400 Bad Request: Unknown kind name
//	404 Not Found: No graph cached
func (h *Handlers) HandleGraph(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGraph")

	var exclude []string
	if raw := c.Query("exclude"); raw != "" {
		exclude = strings.Split(raw, ",")
	}

	sg, err := h.service.SerializableGraphFor(c.Query("project_hash"), exclude)
	if err != nil {
		h.writeGraphLookupError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, sg)
}

// HandleGraphStats handles GET /v1/depscope/graph/stats.
//
// Response:
//
//	200 OK: GraphStatsResponse
//	404 Not Found: No graph cached
func (h *Handlers) HandleGraphStats(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGraphStats")

	stats, err := h.service.StatsFor(c.Query("project_hash"))
	if err != nil {
		h.writeGraphLookupError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// HandleHealth handles GET /v1/depscope/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: "depscope",
		Version: Version,
	})
}

// HandleReady handles GET /v1/depscope/ready. The service is ready as soon as
// it can accept scans; the cached count is informational.
func (h *Handlers) HandleReady(c *gin.Context) {
	c.JSON(http.StatusOK, ReadyResponse{
		Ready:        true,
		GraphsCached: h.service.CachedCount(),
	})
}

// writeGraphLookupError maps graph lookup failures onto the error envelope.
func (h *Handlers) writeGraphLookupError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, ErrNoGraph):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "NO_GRAPH"})
	case errors.Is(err, ErrUnknownProject):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "UNKNOWN_PROJECT"})
	default:
		logger.Error("graph read failed", slog.Any("error", err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "BAD_REQUEST"})
	}
}
