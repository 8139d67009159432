package check

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/carbonreport/carbonreport/internal/page"
	"github.com/carbonreport/carbonreport/internal/report/exporter"
)

func sampleOK() SampleRender {
	return SampleRender{
		Format: exporter.ExportFormatHTML,
		Chart:  "chartjs",
		Total:  "45.00 kg CO2e",
		Trees:  "25 árvores",
		Cost:   "R$ 21.60 - R$ 32.40",
		Size:   14200,
	}
}

func TestSampleRender_Problem(t *testing.T) {
	ok := sampleOK()
	if !ok.OK() || ok.Problem() != nil {
		t.Fatalf("clean sample reported a problem: %v", ok.Problem())
	}

	failed := sampleOK()
	failed.Failures = []page.Failure{{
		Kind: page.RenderFailure, Section: page.SectionSummary,
		Err: errors.New("total_kg_co2e: wrong type"), Message: "total_kg_co2e: wrong type",
	}}
	if failed.OK() {
		t.Fatal("sample with a section failure should not be OK")
	}
	if got := failed.Problem().Error(); !strings.Contains(got, "html render") || !strings.Contains(got, "summary") {
		t.Errorf("Problem() = %q", got)
	}

	exportErr := sampleOK()
	exportErr.Err = errors.New("template failed")
	if got := exportErr.Problem().Error(); !strings.HasPrefix(got, "html export") {
		t.Errorf("Problem() = %q, want export error first", got)
	}
}

func TestSampleRender_Cards(t *testing.T) {
	if got := sampleOK().Cards(); got != "45.00 kg CO2e | 25 árvores | R$ 21.60 - R$ 32.40" {
		t.Errorf("Cards() = %q", got)
	}
	if got := (SampleRender{Trees: "25 árvores"}).Cards(); got != "25 árvores" {
		t.Errorf("Cards() = %q, empty values should be skipped", got)
	}
}

func TestReportSummary(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Report)
		want  ReportSummary
	}{
		{
			name: "clean",
			setup: func(r *Report) {
				r.ConfigFile = ConfigFileResult{Path: "bootstrap.yaml", Exists: true}
				r.AddValidationResult(ValidationResult{Path: "bootstrap.yaml", Valid: true})
				r.AddSample(sampleOK())
			},
			want: ReportSummary{},
		},
		{
			name: "created file and warnings",
			setup: func(r *Report) {
				r.ConfigFile = ConfigFileResult{Path: "bootstrap.yaml", Exists: true, Created: true}
				r.AddValidationResult(ValidationResult{Valid: true, Warnings: []string{"no Chrome", "no writer"}})
			},
			want: ReportSummary{ConfigCreated: true, Warnings: 2},
		},
		{
			name: "declined file",
			setup: func(r *Report) {
				r.ConfigFile = ConfigFileResult{Path: "bootstrap.yaml"}
			},
			want: ReportSummary{ConfigMissing: true},
		},
		{
			name: "sample failures",
			setup: func(r *Report) {
				bad := sampleOK()
				bad.Failures = make([]page.Failure, 2)
				bad.Err = errors.New("export")
				r.AddSample(bad)
				r.AddValidationResult(ValidationResult{Path: sampleRenderLabel, Error: errors.New("x")})
			},
			want: ReportSummary{ValidationErrors: 1, SampleFailures: 3, HasErrors: true},
		},
		{
			name: "confirmation error",
			setup: func(r *Report) {
				r.ConfigFile = ConfigFileResult{Path: "bootstrap.yaml", Error: errors.New("no tty")}
			},
			want: ReportSummary{ConfigMissing: true, HasErrors: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReport()
			tt.setup(r)
			if got := r.Summary(); got != tt.want {
				t.Errorf("Summary() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReportFprint(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Report)
		want  []string
	}{
		{
			name: "clean check ends with the sample cards",
			setup: func(r *Report) {
				r.ConfigFile = ConfigFileResult{Path: "bootstrap.yaml", Exists: true}
				r.AddSample(sampleOK())
			},
			want: []string{"✓ Check completed", "sample report: 45.00 kg CO2e | 25 árvores"},
		},
		{
			name:  "nothing recorded",
			setup: func(*Report) {},
			want:  []string{"All checks passed"},
		},
		{
			name: "failures are counted",
			setup: func(r *Report) {
				bad := sampleOK()
				bad.Failures = make([]page.Failure, 1)
				r.AddSample(bad)
				r.ConfigFile = ConfigFileResult{Path: "bootstrap.yaml"}
			},
			want: []string{"✗ Check completed", "running on defaults", "1 sample render failure(s)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReport()
			tt.setup(r)
			var buf bytes.Buffer
			r.Fprint(&buf)
			for _, part := range tt.want {
				if !strings.Contains(buf.String(), part) {
					t.Errorf("output %q should contain %q", buf.String(), part)
				}
			}
		})
	}
}

func TestPrintSampleRender(t *testing.T) {
	var buf bytes.Buffer
	printSampleRender(&buf, sampleOK())
	out := buf.String()
	for _, part := range []string{"html (chartjs chart, 14 kB)", "45.00 kg CO2e | 25 árvores | R$ 21.60 - R$ 32.40"} {
		if !strings.Contains(out, part) {
			t.Errorf("output %q should contain %q", out, part)
		}
	}

	buf.Reset()
	printSampleRender(&buf, SampleRender{
		Format: exporter.ExportFormatJSON,
		Failures: []page.Failure{{
			Kind: page.MissingInput, Section: page.SectionChart, Message: "details_kg_co2e is empty",
		}},
		Err: errors.New("encode failed"),
	})
	out = buf.String()
	for _, part := range []string{"json (no chart, not exported)", "chart missing_input: details_kg_co2e is empty", "export: encode failed"} {
		if !strings.Contains(out, part) {
			t.Errorf("output %q should contain %q", out, part)
		}
	}
}
