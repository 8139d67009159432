package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/carbonreport/carbonreport/pkg/logger"
)

const (
	// MeterName is the default meter name for the application
	MeterName = "github.com/carbonreport/carbonreport"
)

// Metrics holds all application metrics
type Metrics struct {
	// Render metrics
	RendersTotal      metric.Int64Counter
	RenderFailures    metric.Int64Counter
	RenderDuration    metric.Float64Histogram
	ChartReplacements metric.Int64Counter

	// Narrative metrics
	NarrativesTotal   metric.Int64Counter
	NarrativeAttempts metric.Int64Counter

	// Report metrics
	ReportsStored  metric.Int64Counter
	ReportsPurged  metric.Int64Counter
	ExportsTotal   metric.Int64Counter
	ExportDuration metric.Float64Histogram

	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
}

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// GetMetrics returns the global metrics instance, initializing it if necessary.
// Instruments are bound to whatever meter provider is global at first call.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		var err error
		globalMetrics, err = initMetrics()
		if err != nil {
			logger.Error("Failed to initialize metrics", zap.Error(err))
			globalMetrics = &Metrics{}
		}
	})
	return globalMetrics
}

type counterSpec struct {
	dst  *metric.Int64Counter
	name string
	desc string
	unit string
}

func initMetrics() (*Metrics, error) {
	meter := otel.Meter(MeterName)
	m := &Metrics{}

	counters := []counterSpec{
		{&m.RendersTotal, "carbonreport_renders_total", "Total number of report renders", "{render}"},
		{&m.RenderFailures, "carbonreport_render_failures_total", "Render section failures by kind", "{failure}"},
		{&m.ChartReplacements, "carbonreport_chart_replacements_total", "Chart instances disposed and recreated", "{chart}"},
		{&m.NarrativesTotal, "carbonreport_narratives_total", "Narratives produced by source", "{narrative}"},
		{&m.NarrativeAttempts, "carbonreport_narrative_attempts_total", "Narrative writer attempts", "{attempt}"},
		{&m.ReportsStored, "carbonreport_reports_stored_total", "Reports persisted", "{report}"},
		{&m.ReportsPurged, "carbonreport_reports_purged_total", "Reports removed by retention cleanup", "{report}"},
		{&m.ExportsTotal, "carbonreport_exports_total", "Report exports by format", "{export}"},
		{&m.HTTPRequestsTotal, "carbonreport_http_requests_total", "Total number of HTTP requests", "{request}"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	m.RenderDuration, err = meter.Float64Histogram(
		"carbonreport_render_duration_seconds",
		metric.WithDescription("Duration of a full report render in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5),
	)
	if err != nil {
		return nil, err
	}

	m.ExportDuration, err = meter.Float64Histogram(
		"carbonreport_export_duration_seconds",
		metric.WithDescription("Duration of report exports in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, err
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"carbonreport_http_request_duration_seconds",
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("Metrics initialized successfully")
	return m, nil
}

// RecordRender records a completed render and how many sections failed
func (m *Metrics) RecordRender(ctx context.Context, failures int, durationSeconds float64) {
	outcome := "ok"
	if failures > 0 {
		outcome = "partial"
	}
	if m.RendersTotal != nil {
		m.RendersTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
	if m.RenderDuration != nil {
		m.RenderDuration.Record(ctx, durationSeconds, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

// RecordRenderFailure records one failed render section
func (m *Metrics) RecordRenderFailure(ctx context.Context, kind, section string) {
	if m.RenderFailures == nil {
		return
	}
	m.RenderFailures.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("section", section),
		),
	)
}

// RecordChartReplacement records that a live chart instance was disposed for a new one
func (m *Metrics) RecordChartReplacement(ctx context.Context, canvas string) {
	if m.ChartReplacements == nil {
		return
	}
	m.ChartReplacements.Add(ctx, 1, metric.WithAttributes(attribute.String("canvas", canvas)))
}

// RecordNarrative records a narrative and the source that produced it
func (m *Metrics) RecordNarrative(ctx context.Context, source string, attempts int) {
	if m.NarrativesTotal != nil {
		m.NarrativesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
	}
	if m.NarrativeAttempts != nil && attempts > 0 {
		m.NarrativeAttempts.Add(ctx, int64(attempts))
	}
}

// RecordReportStored records a persisted report
func (m *Metrics) RecordReportStored(ctx context.Context, source string) {
	if m.ReportsStored == nil {
		return
	}
	m.ReportsStored.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// RecordReportsPurged records reports removed by the retention job
func (m *Metrics) RecordReportsPurged(ctx context.Context, count int64) {
	if m.ReportsPurged == nil || count <= 0 {
		return
	}
	m.ReportsPurged.Add(ctx, count)
}

// RecordExport records an export attempt
func (m *Metrics) RecordExport(ctx context.Context, format string, success bool, durationSeconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("format", format),
		attribute.Bool("success", success),
	)
	if m.ExportsTotal != nil {
		m.ExportsTotal.Add(ctx, 1, attrs)
	}
	if m.ExportDuration != nil {
		m.ExportDuration.Record(ctx, durationSeconds, attrs)
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, durationSeconds float64) {
	if m.HTTPRequestsTotal != nil {
		m.HTTPRequestsTotal.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("method", method),
				attribute.String("path", path),
				attribute.Int("status_code", statusCode),
			),
		)
	}
	if m.HTTPRequestDuration != nil {
		m.HTTPRequestDuration.Record(ctx, durationSeconds,
			metric.WithAttributes(
				attribute.String("method", method),
				attribute.String("path", path),
			),
		)
	}
}
