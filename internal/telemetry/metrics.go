package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// ConsolidationMetrics are the counters and histograms the /consolidate
// handler emits around each request, when OTEL is enabled.
type ConsolidationMetrics struct {
	ObjectsConsolidated metric.Int64Counter
	RowsPerRequest       metric.Int64Histogram
}

// NewConsolidationMetrics registers the consolidation instruments against
// the given meter.
func NewConsolidationMetrics(meter metric.Meter) (*ConsolidationMetrics, error) {
	objects, err := meter.Int64Counter(
		"skald.objects_consolidated",
		metric.WithDescription("Number of objects consolidated across all requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create objects counter: %w", err)
	}

	rows, err := meter.Int64Histogram(
		"skald.rows_per_request",
		metric.WithDescription("Number of normalized claim rows processed per request"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create rows histogram: %w", err)
	}

	return &ConsolidationMetrics{ObjectsConsolidated: objects, RowsPerRequest: rows}, nil
}

// RecordRequest records one /consolidate request's object and row counts.
func (m *ConsolidationMetrics) RecordRequest(ctx context.Context, objectCount, rowCount int) {
	if m == nil {
		return
	}
	m.ObjectsConsolidated.Add(ctx, int64(objectCount))
	m.RowsPerRequest.Record(ctx, int64(rowCount))
}
