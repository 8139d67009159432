// Package config provides configuration management for the application.
// It supports a YAML bootstrap file with ${VAR} expansion and CR_ environment overrides.
package config

import (
	"strconv"
	"time"

	"github.com/carbonreport/carbonreport/consts"
	"github.com/carbonreport/carbonreport/internal/chart"
	"github.com/carbonreport/carbonreport/internal/narrative"
	"github.com/carbonreport/carbonreport/internal/summary"
	"github.com/carbonreport/carbonreport/pkg/logger"
	"github.com/carbonreport/carbonreport/pkg/telemetry"
)

// Default configuration values
const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 8091
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 2 * time.Minute
	defaultDatabasePath    = "./data/carbonreport.db"
	defaultLanguage        = "pt-BR"
	defaultRetentionDays   = 90
	defaultCleanupSchedule = "0 3 * * *"
	defaultPageFormat      = "A4"
	defaultMarginInches    = 0.4
	defaultExportTimeout   = 60 * time.Second
	defaultChartJSURL      = "https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"
	defaultOTLPEndpoint    = "localhost:4317"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig           `yaml:"server"`
	Database  DatabaseConfig         `yaml:"database"`
	Logging   logger.Config          `yaml:"logging"`
	Telemetry telemetry.Config       `yaml:"telemetry"`
	Render    RenderConfig           `yaml:"render"`
	Narrative narrative.WriterConfig `yaml:"narrative"`
	Report    ReportConfig           `yaml:"report"`
	Export    ExportConfig           `yaml:"export"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Debug        bool          `yaml:"debug"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"` // Allowed CORS origins whitelist
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RenderConfig controls how reports are rendered into pages
type RenderConfig struct {
	// Language is the BCP 47 tag of the page, e.g. "pt-BR"
	Language string `yaml:"language"`
	// ErrorMessage replaces the narrative when the payload cannot be read
	ErrorMessage string `yaml:"error_message"`
	// Labels maps category keys to display names
	Labels map[string]string `yaml:"labels"`
	Units  summary.Units     `yaml:"units"`
	// ChartRenderer selects the chart factory for HTML pages: chartjs or svg
	ChartRenderer string      `yaml:"chart_renderer"`
	Chart         chart.Style `yaml:"chart"`
	ChartJSURL    string      `yaml:"chartjs_url"`
}

// ReportConfig holds stored report settings
type ReportConfig struct {
	// RetentionDays is how long reports are kept; 0 keeps them forever
	RetentionDays int `yaml:"retention_days"`
	// CleanupSchedule is the cron expression of the retention job
	CleanupSchedule string `yaml:"cleanup_schedule"`
}

// ExportConfig holds PDF export settings
type ExportConfig struct {
	// PageFormat is A4 or Letter
	PageFormat string `yaml:"page_format"`
	// Margin is the page margin in inches
	Margin float64 `yaml:"margin"`
	// ChromePath overrides the browser executable; CHROME_PATH also works
	ChromePath string        `yaml:"chrome_path"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         defaultHost,
			Port:         defaultPort,
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
		},
		Database: DatabaseConfig{
			Path: defaultDatabasePath,
		},
		Logging: logger.Config{
			Level:      "info",
			Format:     "text",
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 5,
		},
		Telemetry: telemetry.Config{
			ServiceName: consts.ServiceName,
			MetricsPath: "/metrics",
			SampleRate:  1,
			OTLP: telemetry.OTLPConfig{
				Endpoint: defaultOTLPEndpoint,
				Insecure: true,
			},
		},
		Render: RenderConfig{
			Language:      defaultLanguage,
			Labels:        chart.DefaultLabels(),
			Units:         summary.DefaultUnits(),
			ChartRenderer: chart.KindChartJS,
			Chart:         chart.DefaultStyle(),
			ChartJSURL:    defaultChartJSURL,
		},
		Narrative: narrative.WriterConfig{
			Command:    narrative.DefaultCommand,
			Model:      narrative.DefaultModel,
			Timeout:    narrative.DefaultTimeout,
			MaxRetries: narrative.DefaultMaxRetries,
			RetryDelay: narrative.DefaultRetryDelay,
		},
		Report: ReportConfig{
			RetentionDays:   defaultRetentionDays,
			CleanupSchedule: defaultCleanupSchedule,
		},
		Export: ExportConfig{
			PageFormat: defaultPageFormat,
			Margin:     defaultMarginInches,
			Timeout:    defaultExportTimeout,
		},
	}
}

// Address returns the server address string
func (c *ServerConfig) Address() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// ChartLabels returns the configured category labels
func (c *RenderConfig) ChartLabels() chart.Labels {
	if len(c.Labels) == 0 {
		return chart.DefaultLabels()
	}
	return chart.Labels(c.Labels)
}

// Retention returns the report retention period, or 0 when reports never expire
func (c *ReportConfig) Retention() time.Duration {
	if c.RetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}
