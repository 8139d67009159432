package telemetry

import (
	"context"
	"testing"
)

func TestGetMetrics(t *testing.T) {
	metrics := GetMetrics()
	if metrics == nil {
		t.Fatal("GetMetrics() returned nil")
	}
	if metrics != GetMetrics() {
		t.Error("GetMetrics() returned different instances on subsequent calls")
	}
}

// Recorders must not panic whether or not instruments were created.
func TestMetricsRecorders(t *testing.T) {
	ctx := context.Background()

	for name, m := range map[string]*Metrics{"global": GetMetrics(), "empty": {}} {
		t.Run(name, func(t *testing.T) {
			m.RecordRender(ctx, 0, 0.002)
			m.RecordRender(ctx, 2, 0.004)
			m.RecordRenderFailure(ctx, "parse_failure", "narrative")
			m.RecordChartReplacement(ctx, "footprint-chart")
			m.RecordNarrative(ctx, "fallback", 2)
			m.RecordNarrative(ctx, "provided", 0)
			m.RecordReportStored(ctx, "generated")
			m.RecordReportsPurged(ctx, 3)
			m.RecordReportsPurged(ctx, 0)
			m.RecordExport(ctx, "pdf", false, 1.2)
			m.RecordHTTPRequest(ctx, "GET", "/api/v1/reports", 200, 0.05)
		})
	}
}
