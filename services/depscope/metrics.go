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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "depscope",
		Name:      "scans_total",
		Help:      "Total number of scans by outcome.",
	}, []string{"status"})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "depscope",
		Name:      "scan_duration_seconds",
		Help:      "Wall-clock duration of full project scans.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	graphNodes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "depscope",
		Name:      "graph_nodes",
		Help:      "Node count of the most recent graph per project.",
	}, []string{"project_hash"})

	graphEdges = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "depscope",
		Name:      "graph_edges",
		Help:      "Edge count of the most recent graph per project.",
	}, []string{"project_hash"})

	unresolvedLocals = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "depscope",
		Name:      "unresolved_local_specifiers",
		Help:      "Local specifiers that failed resolution in the most recent scan per project.",
	}, []string{"project_hash"})
)
