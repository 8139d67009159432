package check

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/carbonreport/carbonreport/internal/config"
	"github.com/carbonreport/carbonreport/internal/configfiles"
	"github.com/carbonreport/carbonreport/internal/database"
	"github.com/carbonreport/carbonreport/internal/narrative"
	"github.com/carbonreport/carbonreport/internal/report/exporter"
)

// Labels of the checks that are not backed by a file
const (
	environmentLabel  = "environment"
	sampleRenderLabel = "sample report render"
)

// ValidationResult represents the result of a config validation
type ValidationResult struct {
	Path     string
	Valid    bool
	Error    error
	Warnings []string
}

// validateConfigs validates the configuration, the environment and a sample render
func (c *Checker) validateConfigs() error {
	cfg, bootstrapResult := c.validateBootstrapYaml()
	c.report.AddValidationResult(bootstrapResult)
	printValidationResult(bootstrapResult)

	if !bootstrapResult.Valid {
		return fmt.Errorf("%s validation failed: %w", filepath.Base(c.configPath), bootstrapResult.Error)
	}

	envResult := ValidationResult{
		Path:     environmentLabel,
		Valid:    true,
		Warnings: checkEnvironment(cfg),
	}
	c.report.AddValidationResult(envResult)
	printValidationResult(envResult)

	smoke, samples := smokeRender(cfg)
	c.report.AddValidationResult(smoke)
	printValidationResult(smoke)
	for _, sample := range samples {
		c.report.AddSample(sample)
		printSampleRender(os.Stdout, sample)
	}

	if !smoke.Valid {
		return fmt.Errorf("sample render failed: %w", smoke.Error)
	}
	return nil
}

// validateBootstrapYaml loads and validates the bootstrap configuration.
// A missing file validates the defaults.
func (c *Checker) validateBootstrapYaml() (*config.Config, ValidationResult) {
	result := ValidationResult{Path: c.configPath}

	cfg, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		result.Error = fmt.Errorf("format error: %v", err)
		return nil, result
	}
	if appErr := config.Validate(cfg); appErr != nil {
		result.Error = appErr
		return nil, result
	}

	if !fileExists(c.configPath) {
		result.Warnings = append(result.Warnings, "file does not exist, defaults validated")
	}
	result.Valid = true
	return cfg, result
}

// checkEnvironment reports optional tools and paths that are missing
func checkEnvironment(cfg *config.Config) []string {
	var warnings []string

	if cfg.Narrative.Enabled {
		writer := narrative.NewCLIWriter(cfg.Narrative)
		if !writer.Available() {
			warnings = append(warnings, fmt.Sprintf(
				"narrative writer %q not found in PATH, reports without narrative will use the fallback text", writer.Name()))
		}
	}

	if path, ok := exporter.LocateBrowser(cfg.Export.ChromePath); !ok {
		if path == "" {
			warnings = append(warnings, "no Chrome or Chromium found, PDF export is unavailable (set export.chrome_path or CHROME_PATH)")
		} else {
			warnings = append(warnings, fmt.Sprintf("browser %s does not exist, PDF export is unavailable", path))
		}
	}

	if cfg.Database.Path != database.MemoryPath {
		dir := filepath.Dir(cfg.Database.Path)
		if info, err := os.Stat(dir); err != nil {
			warnings = append(warnings, fmt.Sprintf("database directory %s does not exist yet, it will be created on startup", dir))
		} else if !info.IsDir() {
			warnings = append(warnings, fmt.Sprintf("database directory %s is not a directory", dir))
		}
	}

	if cfg.Telemetry.OTLP.Enabled && !cfg.Telemetry.Enabled {
		warnings = append(warnings, "telemetry.otlp is enabled but telemetry is disabled, traces will not be exported")
	}

	return warnings
}

// sampleFormats are the formats rendered by the smoke test. PDF is left out
// since it needs a browser; checkEnvironment reports on that separately.
var sampleFormats = []exporter.ExportFormat{exporter.ExportFormatHTML, exporter.ExportFormatJSON}

// smokeRender renders and exports the embedded sample payload with cfg in each
// sample format. The result is invalid when any section fails or an export errors.
func smokeRender(cfg *config.Config) (ValidationResult, []SampleRender) {
	result := ValidationResult{Path: sampleRenderLabel}

	raw, err := configfiles.GetSamplePayload()
	if err != nil {
		result.Error = err
		return result, nil
	}

	manager, err := exporter.NewManagerFromConfig(cfg)
	if err != nil {
		result.Error = err
		return result, nil
	}

	ctx := context.Background()
	samples := make([]SampleRender, 0, len(sampleFormats))
	for _, format := range sampleFormats {
		sample := renderSample(ctx, manager, raw, format)
		samples = append(samples, sample)
		if result.Error == nil {
			result.Error = sample.Problem()
		}
	}

	result.Valid = result.Error == nil
	return result, samples
}

func renderSample(ctx context.Context, manager *exporter.ExportManager, raw []byte, format exporter.ExportFormat) SampleRender {
	doc := manager.Render(ctx, "", "", raw, format)
	sample := SampleRender{
		Format:   format,
		Total:    doc.View.TotalMonthly,
		Trees:    doc.View.TreesYearly,
		Cost:     doc.View.AnnualCost,
		Failures: doc.Outcome.Failures,
	}
	if doc.View.Chart != nil {
		sample.Chart = doc.View.Chart.Kind
	}

	content, err := manager.Export(ctx, doc, format)
	if err != nil {
		sample.Err = err
		return sample
	}
	sample.Size = len(content)
	return sample
}

// printValidationResult prints a validation result
func printValidationResult(result ValidationResult) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	if result.Valid {
		green.Printf("  ✓ %s\n", result.Path)
	} else {
		red.Printf("  ✗ %s: %v\n", result.Path, result.Error)
	}
	for _, warning := range result.Warnings {
		yellow.Printf("    └─ %s\n", warning)
	}
}
