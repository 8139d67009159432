package exporter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/carbonreport/carbonreport/internal/chart"
	"github.com/carbonreport/carbonreport/internal/page"
	"github.com/carbonreport/carbonreport/internal/summary"
)

// JSONExporter exports the rendered targets as a JSON document
type JSONExporter struct {
	indent bool
}

// NewJSONExporter creates a new JSON exporter with indented output
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{indent: true}
}

// jsonDocument is the exported shape
type jsonDocument struct {
	ID            string           `json:"id,omitempty"`
	Title         string           `json:"title"`
	Lang          string           `json:"lang"`
	GeneratedAt   time.Time        `json:"generated_at"`
	NarrativeHTML string           `json:"narrative_html"`
	TotalMonthly  string           `json:"total_monthly"`
	TreesYearly   string           `json:"trees_yearly"`
	AnnualCost    string           `json:"annual_cost"`
	Chart         *chart.Snapshot  `json:"chart,omitempty"`
	Metrics       *summary.Metrics `json:"metrics,omitempty"`
	Failures      []page.Failure   `json:"failures,omitempty"`
	Payload       json.RawMessage  `json:"payload,omitempty"`
}

// Export encodes the document
func (e *JSONExporter) Export(_ context.Context, doc *Document) ([]byte, error) {
	out := jsonDocument{
		ID:            doc.ID,
		Title:         documentTitle(doc),
		Lang:          doc.Lang,
		GeneratedAt:   doc.GeneratedAt,
		NarrativeHTML: doc.View.NarrativeHTML,
		TotalMonthly:  doc.View.TotalMonthly,
		TreesYearly:   doc.View.TreesYearly,
		AnnualCost:    doc.View.AnnualCost,
		Chart:         doc.View.Chart,
		Payload:       doc.Payload,
	}
	if doc.Outcome != nil {
		out.Metrics = doc.Outcome.Metrics
		out.Failures = doc.Outcome.Failures
	}

	if e.indent {
		return json.MarshalIndent(out, "", "  ")
	}
	return json.Marshal(out)
}

// Name returns the human-readable name of this exporter
func (e *JSONExporter) Name() string {
	return "JSON"
}

// FileExtension returns the file extension for JSON files
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// ContentType returns the MIME type of JSON documents
func (e *JSONExporter) ContentType() string {
	return "application/json; charset=utf-8"
}
