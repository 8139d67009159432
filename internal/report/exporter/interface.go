// Package exporter provides report export functionality with pluggable exporters.
package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/carbonreport/carbonreport/consts"
	"github.com/carbonreport/carbonreport/internal/chart"
	"github.com/carbonreport/carbonreport/internal/model"
	"github.com/carbonreport/carbonreport/internal/page"
	"github.com/carbonreport/carbonreport/pkg/errors"
	"github.com/carbonreport/carbonreport/pkg/logger"
	"github.com/carbonreport/carbonreport/pkg/telemetry"
)

// ExportFormat represents the export format type
type ExportFormat string

const (
	// ExportFormatHTML represents HTML format
	ExportFormatHTML ExportFormat = consts.FormatHTML
	// ExportFormatPDF represents PDF format
	ExportFormatPDF ExportFormat = consts.FormatPDF
	// ExportFormatJSON represents JSON format
	ExportFormatJSON ExportFormat = consts.FormatJSON
)

// ParseFormat returns the format named by s. An empty string selects HTML.
func ParseFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return ExportFormatHTML, nil
	case ExportFormatHTML, ExportFormatPDF, ExportFormatJSON:
		return f, nil
	default:
		return "", errors.New(errors.ErrCodeUnsupportedFormat, fmt.Sprintf("unsupported export format: %s", s))
	}
}

// Document is a rendered report ready to be serialized by an exporter.
type Document struct {
	ID          string
	Title       string
	Lang        string
	ChartJSURL  string
	GeneratedAt time.Time

	View    page.View
	Outcome *page.Outcome

	// Payload is the source document, embedded in pages for client-side reuse.
	// It is nil when the source was not valid JSON.
	Payload json.RawMessage
}

// ReportExporter defines the interface for report exporters
type ReportExporter interface {
	// Export serializes a rendered document
	Export(ctx context.Context, doc *Document) ([]byte, error)
	// Name returns the human-readable name of the exporter (e.g., "HTML", "PDF")
	Name() string
	// FileExtension returns the file extension for this format (e.g., ".html")
	FileExtension() string
	// ContentType returns the MIME type of the exported bytes
	ContentType() string
}

// ManagerOptions configures how the manager renders documents.
type ManagerOptions struct {
	// Factory draws charts for HTML and JSON documents
	Factory chart.Factory
	// PrintFactory draws charts for PDF documents; defaults to SVG so printing
	// never waits on a script
	PrintFactory chart.Factory
	Renderer     []page.Option
	Lang         string
	ChartJSURL   string
}

// ExportManager renders reports and hands them to the registered exporters
type ExportManager struct {
	exporters map[ExportFormat]ReportExporter
	opts      ManagerOptions
	now       func() time.Time
	mu        sync.RWMutex
}

// NewExportManager creates a new export manager
func NewExportManager(opts ManagerOptions) *ExportManager {
	if opts.Factory == nil {
		opts.Factory = chart.NewChartJS()
	}
	if opts.PrintFactory == nil {
		opts.PrintFactory = chart.NewSVG()
	}
	if opts.Lang == "" {
		opts.Lang = "pt-BR"
	}
	return &ExportManager{
		exporters: make(map[ExportFormat]ReportExporter),
		opts:      opts,
		now:       time.Now,
	}
}

// Register registers an exporter for a specific format
func (m *ExportManager) Register(format ExportFormat, exporter ReportExporter) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.exporters[format] = exporter
	logger.Debug("Registered report exporter",
		zap.String("format", string(format)),
		zap.String("name", exporter.Name()),
	)
}

// Render renders raw into a fresh document. Parse failures still produce a
// document: the narrative carries the error message and the outcome lists them.
func (m *ExportManager) Render(ctx context.Context, id, title string, raw []byte, format ExportFormat) *Document {
	factory := m.opts.Factory
	if format == ExportFormatPDF {
		factory = m.opts.PrintFactory
	}

	target := page.NewDocument(factory)
	defer func() {
		if err := target.Close(); err != nil {
			logger.Warn("Failed to release chart", zap.String("report_id", id), zap.Error(err))
		}
	}()

	log := logger.ForComponent("render")
	if id != "" {
		log = log.With(zap.String("report_id", id))
	}
	renderer := page.NewRenderer(target.Targets(), log, m.opts.Renderer...)
	outcome := renderer.RenderRaw(ctx, raw)

	doc := &Document{
		ID:          id,
		Title:       title,
		Lang:        m.opts.Lang,
		ChartJSURL:  m.opts.ChartJSURL,
		GeneratedAt: m.now(),
		View:        target.View(),
		Outcome:     outcome,
	}
	if json.Valid(raw) {
		doc.Payload = json.RawMessage(raw)
	}
	return doc
}

// Export serializes doc with the exporter registered for format
func (m *ExportManager) Export(ctx context.Context, doc *Document, format ExportFormat) ([]byte, error) {
	m.mu.RLock()
	exporter, ok := m.exporters[format]
	m.mu.RUnlock()

	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedFormat, fmt.Sprintf("unsupported export format: %s", format))
	}

	ctx, span := telemetry.StartSpan(ctx, "exporter.Export")
	defer span.End()
	span.SetAttributes(
		telemetry.AttrReportID.String(doc.ID),
		telemetry.AttrExportFormat.String(string(format)),
	)

	logger.Debug("Exporting report",
		zap.String("report_id", doc.ID),
		zap.String("format", string(format)),
		zap.String("exporter", exporter.Name()),
	)

	start := time.Now()
	content, err := exporter.Export(ctx, doc)
	telemetry.GetMetrics().RecordExport(ctx, string(format), err == nil, time.Since(start).Seconds())
	if err != nil {
		telemetry.SetSpanError(span, err)
		return nil, errors.Wrap(errors.ErrCodeExportFailed,
			fmt.Sprintf("failed to export report with %s exporter", exporter.Name()), err)
	}

	telemetry.SetSpanOK(span)
	return content, nil
}

// ExportReport renders a stored report and serializes it
func (m *ExportManager) ExportReport(ctx context.Context, report *model.Report, format ExportFormat) ([]byte, error) {
	raw, err := report.PayloadJSON()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExportFailed, "failed to encode report payload", err)
	}
	doc := m.Render(ctx, report.ID, report.Title, raw, format)
	return m.Export(ctx, doc, format)
}

// ExportToFile exports doc to a file
func (m *ExportManager) ExportToFile(ctx context.Context, doc *Document, outputPath string, format ExportFormat) error {
	content, err := m.Export(ctx, doc, format)
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Info("Report exported to file",
		zap.String("report_id", doc.ID),
		zap.String("format", string(format)),
		zap.String("path", outputPath),
	)

	return nil
}

// GenerateFilename generates a filename for the exported report
func (m *ExportManager) GenerateFilename(title, id string, format ExportFormat) string {
	m.mu.RLock()
	exporter, ok := m.exporters[format]
	m.mu.RUnlock()

	baseName := sanitizeFilename(title)
	if baseName == "" {
		baseName = "carbon-report"
		if id != "" {
			baseName += "-" + id
		}
	}

	if ok {
		return baseName + exporter.FileExtension()
	}
	return baseName + "." + string(format)
}

// ContentType returns the MIME type for format, or application/octet-stream.
func (m *ExportManager) ContentType(format ExportFormat) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if exporter, ok := m.exporters[format]; ok {
		return exporter.ContentType()
	}
	return "application/octet-stream"
}

// SupportedFormats returns a sorted list of all supported export formats
func (m *ExportManager) SupportedFormats() []ExportFormat {
	m.mu.RLock()
	defer m.mu.RUnlock()

	formats := make([]ExportFormat, 0, len(m.exporters))
	for format := range m.exporters {
		formats = append(formats, format)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// GetExporter returns the exporter for a specific format
func (m *ExportManager) GetExporter(format ExportFormat) (ReportExporter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	exporter, ok := m.exporters[format]
	if !ok {
		return nil, fmt.Errorf("no exporter registered for format: %s", format)
	}
	return exporter, nil
}

// sanitizeFilename removes unsafe characters from filename
func sanitizeFilename(name string) string {
	unsafe := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", " "}
	result := name
	for _, char := range unsafe {
		result = strings.ReplaceAll(result, char, "_")
	}

	// Remove consecutive underscores
	for strings.Contains(result, "__") {
		result = strings.ReplaceAll(result, "__", "_")
	}

	result = strings.Trim(result, "_")

	if len(result) > 100 {
		result = result[:100]
	}

	return result
}
