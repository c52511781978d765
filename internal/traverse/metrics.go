// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package traverse

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter  = otel.Meter("packlet.traverse")
	tracer = otel.Tracer("packlet.traverse")
)

// Metrics for graph traversal.
var (
	nodesProcessed    metric.Int64Counter
	edgesRecorded     metric.Int64Counter
	traversalDuration metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the meters. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		nodesProcessed, err = meter.Int64Counter(
			"packlet_nodes_processed_total",
			metric.WithDescription("Source nodes expanded by traversal workers"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		edgesRecorded, err = meter.Int64Counter(
			"packlet_edges_total",
			metric.WithDescription("Import edges recorded, by disposition"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		traversalDuration, err = meter.Float64Histogram(
			"packlet_traversal_duration_seconds",
			metric.WithDescription("Wall time of a full traversal run"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

// recordNode counts one expanded node.
func recordNode(ctx context.Context, status NodeStatus) {
	if initMetrics() != nil {
		return
	}
	nodesProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status.String())))
}

// recordEdge counts one recorded edge by disposition.
func recordEdge(ctx context.Context, disposition Disposition) {
	if initMetrics() != nil {
		return
	}
	edgesRecorded.Add(ctx, 1, metric.WithAttributes(attribute.String("disposition", disposition.String())))
}

// recordRun records the duration and outcome of a completed run.
func recordRun(ctx context.Context, outcome Outcome, elapsed time.Duration) {
	if initMetrics() != nil {
		return
	}
	traversalDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(attribute.String("outcome", outcome.String())))
}
