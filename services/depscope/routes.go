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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all depscope routes with the router.
//
// Description:
//
//	Registers all /v1/depscope/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Scan Endpoints:
//
//	POST /v1/depscope/scan - Build the dependency graph for a project
//
// Graph Endpoints:
//
//	GET /v1/depscope/graph - Read the cached graph as {nodes, links}
//	GET /v1/depscope/graph/stats - Summary statistics for the cached graph
//
// Snapshot Endpoints:
//
//	POST   /v1/depscope/snapshots - Persist the cached graph
//	GET    /v1/depscope/snapshots - List persisted snapshots
//	GET    /v1/depscope/snapshots/diff - Diff two snapshots
//	GET    /v1/depscope/snapshots/:id - Load one snapshot's graph
//	DELETE /v1/depscope/snapshots/:id - Delete a snapshot
//
// Health Endpoints:
//
//	GET /v1/depscope/health - Health check
//	GET /v1/depscope/ready - Readiness check
//
// Example:
//
//	service := depscope.NewService(depscope.DefaultServiceConfig())
//	handlers := depscope.NewHandlers(service)
//
//	v1 := router.Group("/v1")
//	depscope.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	ds := rg.Group("/depscope")
	{
		// Scan lifecycle
		ds.POST("/scan", handlers.HandleScan)

		// Graph reads
		ds.GET("/graph", handlers.HandleGraph)
		ds.GET("/graph/stats", handlers.HandleGraphStats)

		// Snapshot management
		ds.POST("/snapshots", handlers.HandleCreateSnapshot)
		ds.GET("/snapshots", handlers.HandleListSnapshots)
		ds.GET("/snapshots/diff", handlers.HandleDiffSnapshots)
		ds.GET("/snapshots/:id", handlers.HandleGetSnapshot)
		ds.DELETE("/snapshots/:id", handlers.HandleDeleteSnapshot)

		// Health checks
		ds.GET("/health", handlers.HandleHealth)
		ds.GET("/ready", handlers.HandleReady)
	}
}
