package exporter

import (
	"context"
	"fmt"
	"html"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/carbonreport/carbonreport/pkg/logger"
)

// Paper sizes in inches
var paperSizes = map[string][2]float64{
	"A4":     {8.27, 11.69},
	"LETTER": {8.5, 11},
}

// PDFOptions contains configuration for PDF generation
type PDFOptions struct {
	// Paper dimensions in inches (A4: 8.27 x 11.69)
	PaperWidth  float64
	PaperHeight float64

	// Margins in inches
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	MarginRight  float64

	DisplayHeaderFooter bool
	PrintBackground     bool

	// Scale of the webpage rendering (1.0 = 100%)
	Scale float64

	// ChromePath overrides the browser executable; CHROME_PATH is used when empty
	ChromePath string

	// Timeout for PDF generation
	Timeout time.Duration
}

// DefaultPDFOptions returns default PDF options for A4 paper
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PaperWidth:  8.27,
		PaperHeight: 11.69,

		MarginTop:    0.71, // ~18mm, leaves room for the header
		MarginBottom: 0.59,
		MarginLeft:   0.4,
		MarginRight:  0.4,

		DisplayHeaderFooter: true,
		PrintBackground:     true,
		Scale:               1.0,
		Timeout:             60 * time.Second,
	}
}

// PDFOptionsFor builds options from a page format name and a uniform side margin.
func PDFOptionsFor(format string, margin float64, chromePath string, timeout time.Duration) (PDFOptions, error) {
	opts := DefaultPDFOptions()
	if format != "" {
		size, ok := paperSizes[strings.ToUpper(format)]
		if !ok {
			return opts, fmt.Errorf("unknown page format: %s", format)
		}
		opts.PaperWidth, opts.PaperHeight = size[0], size[1]
	}
	if margin > 0 {
		opts.MarginLeft, opts.MarginRight = margin, margin
	}
	if timeout > 0 {
		opts.Timeout = timeout
	}
	opts.ChromePath = chromePath
	return opts, nil
}

// PDFExporter exports reports to PDF format using Chrome headless
type PDFExporter struct {
	options PDFOptions
	html    *HTMLExporter
}

// NewPDFExporter creates a new PDF exporter with default options
func NewPDFExporter() *PDFExporter {
	return NewPDFExporterWithOptions(DefaultPDFOptions())
}

// NewPDFExporterWithOptions creates a new PDF exporter with custom options
func NewPDFExporterWithOptions(opts PDFOptions) *PDFExporter {
	return &PDFExporter{
		options: opts,
		html:    newPrintExporter(),
	}
}

// Export prints the document's page to PDF and returns the binary data
func (e *PDFExporter) Export(ctx context.Context, doc *Document) ([]byte, error) {
	startTime := time.Now()

	logger.Info("[PDF Export] Starting PDF export",
		zap.String("report_id", doc.ID),
		zap.Duration("timeout", e.options.Timeout),
	)

	htmlContent, err := e.html.Export(ctx, doc)
	if err != nil {
		return nil, err
	}

	// Write HTML to temporary file (avoids data URL size limits)
	tmpFile, err := os.CreateTemp("", "carbonreport-pdf-*.html")
	if err != nil {
		logger.Error("[PDF Export] Failed to create temp file",
			zap.String("report_id", doc.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(htmlContent); err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	tmpFile.Close()

	ctx, cancel := context.WithTimeout(ctx, e.options.Timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("headless", true),
		chromedp.WSURLReadTimeout(30*time.Second),
	)

	if chromePath := e.chromePath(); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
		logger.Debug("[PDF Export] Using custom Chrome path",
			zap.String("report_id", doc.ID),
			zap.String("chrome_path", chromePath),
		)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			logger.Debug(fmt.Sprintf("[PDF Export] chromedp: "+format, args...))
		}),
	)
	defer browserCancel()

	header, footer := e.headerFooter(doc)

	var pdfData []byte
	chromeStartTime := time.Now()
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("file://"+tmpPath),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfData, _, err = page.PrintToPDF().
				WithPaperWidth(e.options.PaperWidth).
				WithPaperHeight(e.options.PaperHeight).
				WithMarginTop(e.options.MarginTop).
				WithMarginBottom(e.options.MarginBottom).
				WithMarginLeft(e.options.MarginLeft).
				WithMarginRight(e.options.MarginRight).
				WithDisplayHeaderFooter(e.options.DisplayHeaderFooter).
				WithHeaderTemplate(header).
				WithFooterTemplate(footer).
				WithPrintBackground(e.options.PrintBackground).
				WithScale(e.options.Scale).
				WithPreferCSSPageSize(false).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		logger.Error("[PDF Export] Failed to generate PDF",
			zap.String("report_id", doc.ID),
			zap.Error(err),
			zap.Duration("chrome_duration", time.Since(chromeStartTime)),
		)
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	logger.Info("[PDF Export] PDF export completed successfully",
		zap.String("report_id", doc.ID),
		zap.String("pdf_size", formatBytes(len(pdfData))),
		zap.Duration("chrome_duration", time.Since(chromeStartTime)),
		zap.Duration("total_duration", time.Since(startTime)),
	)

	return pdfData, nil
}

func (e *PDFExporter) chromePath() string {
	if e.options.ChromePath != "" {
		return e.options.ChromePath
	}
	return os.Getenv("CHROME_PATH")
}

// browserNames are looked up in PATH when no browser is configured.
var browserNames = []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell", "chrome"}

// LocateBrowser resolves the browser used for PDF export: the configured path,
// then CHROME_PATH, then the usual executable names in PATH.
func LocateBrowser(configured string) (string, bool) {
	for _, p := range []string{configured, os.Getenv("CHROME_PATH")} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
		return p, false
	}
	for _, name := range browserNames {
		if p, err := exec.LookPath(name); err == nil {
			return p, true
		}
	}
	return "", false
}

// headerFooter creates the Chrome header and footer templates.
// Chrome fills elements with the pageNumber and totalPages classes.
func (e *PDFExporter) headerFooter(doc *Document) (header, footer string) {
	header = fmt.Sprintf(`
		<div style="width:100%%; padding:8px 20px; font-size:11px; font-family:system-ui,-apple-system,sans-serif; color:#5f6f66; display:flex; align-items:center; gap:10px;">
			%s
			<span style="font-weight:600; font-size:14px; color:#2e7d32;">%s</span>
		</div>
	`, getLogoSVG(24, 24), html.EscapeString(documentTitle(doc)))

	footer = fmt.Sprintf(`
		<div style="width:100%%; padding:0 20px; font-size:9px; font-family:system-ui,-apple-system,sans-serif; color:#5f6f66; display:flex; justify-content:space-between;">
			<span>Gerado em %s</span>
			<span>Página <span class="pageNumber"></span> de <span class="totalPages"></span></span>
		</div>
	`, doc.GeneratedAt.Format("02/01/2006 15:04"))

	return header, footer
}

// formatBytes converts bytes to human-readable format
func formatBytes(bytes int) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := int64(bytes) / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// Name returns the human-readable name of this exporter
func (e *PDFExporter) Name() string {
	return "PDF"
}

// FileExtension returns the file extension for PDF files
func (e *PDFExporter) FileExtension() string {
	return ".pdf"
}

// ContentType returns the MIME type of PDF files
func (e *PDFExporter) ContentType() string {
	return "application/pdf"
}
