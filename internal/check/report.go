package check

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/carbonreport/carbonreport/internal/page"
	"github.com/carbonreport/carbonreport/internal/report/exporter"
)

// SampleRender is the embedded sample payload rendered and exported in one format
// with the checked settings.
type SampleRender struct {
	Format exporter.ExportFormat
	// Chart is the chart kind that was attached, empty when none was.
	Chart string
	// Summary card values as the page shows them
	Total string
	Trees string
	Cost  string
	// Size of the exported document in bytes
	Size     int
	Failures []page.Failure
	Err      error
}

// OK reports whether every section rendered and the export succeeded.
func (s SampleRender) OK() bool {
	return s.Err == nil && len(s.Failures) == 0
}

// Problem returns the first thing that went wrong, or nil.
func (s SampleRender) Problem() error {
	switch {
	case s.Err != nil:
		return fmt.Errorf("%s export: %w", s.Format, s.Err)
	case len(s.Failures) > 0:
		return fmt.Errorf("%s render: %w", s.Format, s.Failures[0])
	}
	return nil
}

// Cards returns the summary card values on one line.
func (s SampleRender) Cards() string {
	var cards []string
	for _, v := range []string{s.Total, s.Trees, s.Cost} {
		if v != "" {
			cards = append(cards, v)
		}
	}
	return strings.Join(cards, " | ")
}

// Report collects what a check found: the bootstrap file, the validations and
// the sample report rendered with the checked settings.
type Report struct {
	ConfigFile  ConfigFileResult
	Validations []ValidationResult
	Samples     []SampleRender
}

// NewReport creates an empty report
func NewReport() *Report {
	return &Report{}
}

// AddValidationResult adds a validation result
func (r *Report) AddValidationResult(result ValidationResult) {
	r.Validations = append(r.Validations, result)
}

// AddSample adds a sample render
func (r *Report) AddSample(sample SampleRender) {
	r.Samples = append(r.Samples, sample)
}

// ReportSummary holds the counts behind the final status line
type ReportSummary struct {
	ConfigCreated    bool
	ConfigMissing    bool
	ValidationErrors int
	Warnings         int
	SampleFailures   int
	HasErrors        bool
}

// Summary counts the results collected so far
func (r *Report) Summary() ReportSummary {
	s := ReportSummary{
		ConfigCreated: r.ConfigFile.Created,
		ConfigMissing: r.ConfigFile.Path != "" && !r.ConfigFile.Exists,
		HasErrors:     r.ConfigFile.Error != nil,
	}
	for _, v := range r.Validations {
		if !v.Valid {
			s.ValidationErrors++
		}
		s.Warnings += len(v.Warnings)
	}
	for _, sample := range r.Samples {
		s.SampleFailures += len(sample.Failures)
		if sample.Err != nil {
			s.SampleFailures++
		}
	}
	if s.ValidationErrors > 0 || s.SampleFailures > 0 {
		s.HasErrors = true
	}
	return s
}

// Print writes the final status line to stdout
func (r *Report) Print() {
	r.Fprint(os.Stdout)
}

// Fprint writes a separator and the final status line to w. A clean check ends
// with the sample report's summary cards.
func (r *Report) Fprint(w io.Writer) {
	separator := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	fmt.Fprintln(w, separator.Render(strings.Repeat("─", 50)))

	s := r.Summary()
	switch {
	case s.HasErrors:
		color.New(color.FgRed, color.Bold).Fprint(w, "✗ Check completed")
	case s.Warnings > 0 || s.ConfigMissing:
		color.New(color.FgYellow, color.Bold).Fprint(w, "⚠ Check completed")
	default:
		color.New(color.FgGreen, color.Bold).Fprint(w, "✓ Check completed")
	}

	var details []string
	if s.ConfigCreated {
		details = append(details, "bootstrap file created")
	}
	if s.ConfigMissing {
		details = append(details, "running on defaults")
	}
	if s.ValidationErrors > 0 {
		details = append(details, fmt.Sprintf("%d validation error(s)", s.ValidationErrors))
	}
	if s.SampleFailures > 0 {
		details = append(details, fmt.Sprintf("%d sample render failure(s)", s.SampleFailures))
	}
	if s.Warnings > 0 {
		details = append(details, fmt.Sprintf("%d warning(s)", s.Warnings))
	}

	switch {
	case len(details) > 0:
		fmt.Fprintf(w, " (%s)\n", strings.Join(details, ", "))
	case len(r.Samples) > 0 && r.Samples[0].Cards() != "":
		fmt.Fprintf(w, " - sample report: %s\n", r.Samples[0].Cards())
	default:
		fmt.Fprintln(w, " - All checks passed")
	}
}

// printSampleRender writes one sample render: format, chart and size, then the
// summary cards and every section that failed.
func printSampleRender(w io.Writer, s SampleRender) {
	chartKind := s.Chart
	if chartKind == "" {
		chartKind = "no"
	}
	size := "not exported"
	if s.Err == nil {
		size = humanize.Bytes(uint64(s.Size))
	}
	line := fmt.Sprintf("%s (%s chart, %s)", s.Format, chartKind, size)

	if s.OK() {
		color.New(color.FgGreen).Fprintf(w, "  ✓ %s\n", line)
	} else {
		color.New(color.FgRed).Fprintf(w, "  ✗ %s\n", line)
	}
	if cards := s.Cards(); cards != "" {
		fmt.Fprintf(w, "    └─ %s\n", cards)
	}

	yellow := color.New(color.FgYellow)
	for _, f := range s.Failures {
		yellow.Fprintf(w, "    └─ %s %s: %s\n", f.Section, f.Kind, f.Message)
	}
	if s.Err != nil {
		color.New(color.FgRed).Fprintf(w, "    └─ export: %v\n", s.Err)
	}
}
