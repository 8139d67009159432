package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the default tracer name for the application
	TracerName = "github.com/carbonreport/carbonreport"
)

// Tracer returns the global tracer for the application
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// StartSpan starts a new span with the given name and returns the context and span.
// The caller is responsible for calling span.End() when the operation is complete.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// SetSpanError records an error on the span and sets its status to error
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanOK sets the span status to OK
func SetSpanOK(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// Common attribute keys for consistent naming
var (
	AttrReportID        = attribute.Key("report.id")
	AttrReportTotal     = attribute.Key("report.total_kg_co2e")
	AttrReportSource    = attribute.Key("report.narrative_source")
	AttrExportFormat    = attribute.Key("export.format")
	AttrRenderFailures  = attribute.Key("render.failures")
	AttrNarrativeWriter = attribute.Key("narrative.writer")
)

// WithReportAttributes returns span start options carrying the report identity
func WithReportAttributes(reportID string, total float64) trace.SpanStartOption {
	return trace.WithAttributes(
		AttrReportID.String(reportID),
		AttrReportTotal.Float64(total),
	)
}
