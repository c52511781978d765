// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("packlet.ast")

// Metrics for import extraction.
var (
	parseLatency     metric.Float64Histogram
	parseTotal       metric.Int64Counter
	importsExtracted metric.Int64Histogram
	parseSoftErrors  metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the meters. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		parseLatency, err = meter.Float64Histogram(
			"packlet_parse_duration_seconds",
			metric.WithDescription("Duration of import extraction per file"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		parseTotal, err = meter.Int64Counter(
			"packlet_parse_total",
			metric.WithDescription("Total number of parsed files"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		importsExtracted, err = meter.Int64Histogram(
			"packlet_imports_extracted",
			metric.WithDescription("Imports extracted per file"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		parseSoftErrors, err = meter.Int64Counter(
			"packlet_parse_soft_errors_total",
			metric.WithDescription("Recoverable parse errors recorded during extraction"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

// recordParse records extraction metrics for one file.
func recordParse(ctx context.Context, language string, imports, softErrors int, elapsed time.Duration) {
	if initMetrics() != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("language", language))
	parseTotal.Add(ctx, 1, attrs)
	parseLatency.Record(ctx, elapsed.Seconds(), attrs)
	importsExtracted.Record(ctx, int64(imports), attrs)
	if softErrors > 0 {
		parseSoftErrors.Add(ctx, int64(softErrors), attrs)
	}
}
