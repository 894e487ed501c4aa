package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type RosterMetrics struct {
	studentsAdded metric.Int64Counter
	importRuns    metric.Int64Counter
	importRows    metric.Int64Counter
	exports       metric.Int64Counter
}

func NewRosterMetrics(meter metric.Meter) (*RosterMetrics, error) {
	rm := &RosterMetrics{}

	var err error

	rm.studentsAdded, err = meter.Int64Counter(
		"roster.students.added",
		metric.WithDescription("Students created through the service"),
		metric.WithUnit("{student}"),
	)
	if err != nil {
		return nil, err
	}

	rm.importRuns, err = meter.Int64Counter(
		"roster.import.runs",
		metric.WithDescription("CSV import runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	rm.importRows, err = meter.Int64Counter(
		"roster.import.rows",
		metric.WithDescription("CSV import rows by outcome"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, err
	}

	rm.exports, err = meter.Int64Counter(
		"roster.exports",
		metric.WithDescription("Export files produced"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, err
	}

	return rm, nil
}

func (rm *RosterMetrics) RecordStudentAdded(ctx context.Context) {
	if rm == nil || rm.studentsAdded == nil {
		return
	}
	rm.studentsAdded.Add(ctx, 1)
}

func (rm *RosterMetrics) RecordImport(ctx context.Context, succeeded, failed int) {
	if rm == nil || rm.importRuns == nil {
		return
	}
	rm.importRuns.Add(ctx, 1)
	rm.importRows.Add(ctx, int64(succeeded), metric.WithAttributes(attribute.String("outcome", "success")))
	rm.importRows.Add(ctx, int64(failed), metric.WithAttributes(attribute.String("outcome", "error")))
}

func (rm *RosterMetrics) RecordExport(ctx context.Context, kind string) {
	if rm == nil || rm.exports == nil {
		return
	}
	rm.exports.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
