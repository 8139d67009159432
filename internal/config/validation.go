package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/carbonreport/carbonreport/internal/chart"
	"github.com/carbonreport/carbonreport/pkg/errors"
)

// Validate checks the configuration and returns the first problem found.
func Validate(cfg *Config) *errors.AppError {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return invalid("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if strings.TrimSpace(cfg.Database.Path) == "" {
		return invalid("database.path cannot be empty")
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "", "text", "json":
	default:
		return invalid("logging.format must be text or json, got %q", cfg.Logging.Format)
	}

	if _, err := ParseLanguage(cfg.Render.Language); err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, "render.language is not a valid BCP 47 tag", err)
	}
	if _, err := chart.NewFactory(cfg.Render.ChartRenderer); err != nil {
		return invalid("render.chart_renderer must be %s or %s, got %q", chart.KindChartJS, chart.KindSVG, cfg.Render.ChartRenderer)
	}

	if cfg.Telemetry.SampleRate < 0 || cfg.Telemetry.SampleRate > 1 {
		return invalid("telemetry.sample_rate must be within [0, 1], got %v", cfg.Telemetry.SampleRate)
	}
	if cfg.Telemetry.OTLP.Enabled && cfg.Telemetry.OTLP.Endpoint == "" {
		return invalid("telemetry.otlp.endpoint is required when otlp is enabled")
	}

	if cfg.Narrative.MaxRetries < 0 {
		return invalid("narrative.max_retries cannot be negative")
	}

	if cfg.Report.RetentionDays < 0 {
		return invalid("report.retention_days cannot be negative")
	}
	if cfg.Report.RetentionDays > 0 {
		if _, err := cron.ParseStandard(cfg.Report.CleanupSchedule); err != nil {
			return errors.Wrap(errors.ErrCodeConfigInvalid, "report.cleanup_schedule is not a valid cron expression", err)
		}
	}

	switch strings.ToUpper(cfg.Export.PageFormat) {
	case "", "A4", "LETTER":
	default:
		return invalid("export.page_format must be A4 or Letter, got %q", cfg.Export.PageFormat)
	}
	if cfg.Export.Margin < 0 {
		return invalid("export.margin cannot be negative")
	}

	return nil
}

func invalid(format string, args ...any) *errors.AppError {
	return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf(format, args...))
}
