// Package telemetry provides OpenTelemetry integration for the application.
// Traces export over OTLP gRPC; metrics are exposed in Prometheus format on the API router.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.uber.org/zap"

	"github.com/carbonreport/carbonreport/consts"
	"github.com/carbonreport/carbonreport/pkg/logger"
)

const (
	defaultContextTimeout = 10 * time.Second
	defaultMetricsPath    = "/metrics"
)

// Config holds the telemetry configuration
type Config struct {
	// Enabled enables/disables telemetry
	Enabled bool `yaml:"enabled"`
	// ServiceName is the name of the service for telemetry
	ServiceName string `yaml:"service_name"`
	// MetricsPath is the router path that serves Prometheus metrics
	MetricsPath string `yaml:"metrics_path"`
	// SampleRate is the trace sampling ratio in [0, 1]
	SampleRate float64 `yaml:"sample_rate"`
	// OTLP configuration for trace export
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	// Enabled enables OTLP trace export
	Enabled bool `yaml:"enabled"`
	// Endpoint is the OTLP collector endpoint (e.g., "localhost:4317")
	Endpoint string `yaml:"endpoint"`
	// Insecure disables TLS for the connection
	Insecure bool `yaml:"insecure"`
}

// Telemetry manages OpenTelemetry providers and exporters
type Telemetry struct {
	config         Config
	registry       *prometheus.Registry
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// New creates a new Telemetry instance with the given configuration
func New(cfg Config) (*Telemetry, error) {
	if !cfg.Enabled {
		logger.Info("Telemetry is disabled")
		return &Telemetry{config: cfg}, nil
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = consts.ServiceName
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = defaultMetricsPath
	}

	t := &Telemetry{
		config:   cfg,
		registry: prometheus.NewRegistry(),
	}

	// resource.New avoids schema URL conflicts between semconv versions
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(consts.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if err := t.initTracerProvider(res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracer provider: %w", err)
	}
	if err := t.initMeterProvider(res); err != nil {
		return nil, fmt.Errorf("failed to initialize meter provider: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("Telemetry initialized",
		zap.String("service_name", cfg.ServiceName),
		zap.String("metrics_path", cfg.MetricsPath),
		zap.Bool("otlp_enabled", cfg.OTLP.Enabled),
	)

	return t, nil
}

func (t *Telemetry) initTracerProvider(res *resource.Resource) error {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(t.sampleRate()))),
	}

	if t.config.OTLP.Enabled && t.config.OTLP.Endpoint != "" {
		ctx, cancel := context.WithTimeout(context.Background(), defaultContextTimeout)
		defer cancel()

		exporterOpts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(t.config.OTLP.Endpoint),
		}
		if t.config.OTLP.Insecure {
			exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
		}

		exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
		logger.Info("OTLP trace exporter initialized", zap.String("endpoint", t.config.OTLP.Endpoint))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	t.tracerProvider = tp
	return nil
}

// sampleRate returns the configured ratio, treating zero as "sample everything".
func (t *Telemetry) sampleRate() float64 {
	if t.config.SampleRate <= 0 || t.config.SampleRate > 1 {
		return 1
	}
	return t.config.SampleRate
}

func (t *Telemetry) initMeterProvider(res *resource.Resource) error {
	exporter, err := otelprom.New(otelprom.WithRegisterer(t.registry))
	if err != nil {
		return fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(mp)
	t.meterProvider = mp
	return nil
}

// MetricsHandler returns the Prometheus scrape handler, or nil when telemetry is disabled.
func (t *Telemetry) MetricsHandler() http.Handler {
	if t == nil || t.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// MetricsPath returns the router path for the scrape handler.
func (t *Telemetry) MetricsPath() string {
	if t == nil || t.config.MetricsPath == "" {
		return defaultMetricsPath
	}
	return t.config.MetricsPath
}

// Shutdown gracefully shuts down all telemetry providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if !t.IsEnabled() {
		return nil
	}

	logger.Info("Shutting down telemetry")

	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			logger.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if t.meterProvider != nil {
		if err := t.meterProvider.Shutdown(ctx); err != nil {
			logger.Error("Failed to shutdown meter provider", zap.Error(err))
		}
	}
	return nil
}

// IsEnabled returns whether telemetry is enabled
func (t *Telemetry) IsEnabled() bool {
	return t != nil && t.config.Enabled
}
