package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName    = "salesview"
	ServiceVersion = "1.0.0"
	MeterName      = "salesview"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers and the pipeline
// instruments the rest of the application records against.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger

	// Pipeline instruments
	UploadsTotal     metric.Int64Counter
	ParseFailures    metric.Int64Counter
	SchemaFailures   metric.Int64Counter
	EmptyResults     metric.Int64Counter
	CacheHits        metric.Int64Counter
	PipelineDuration metric.Float64Histogram
}

// DefaultOTelConfig returns a default OpenTelemetry configuration
func DefaultOTelConfig() *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    env,
		EnableMetrics:  true,
		EnableTracing:  env == "development",
		SampleRatio:    1.0,
	}
}

// InitializeOTel sets up tracing and metrics providers
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("environment", cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{Logger: logger}

	if cfg.EnableTracing {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		providers.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
		)
		otel.SetTracerProvider(providers.TracerProvider)
		providers.Tracer = providers.TracerProvider.Tracer(MeterName)
	}

	if cfg.EnableMetrics {
		exporter, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		providers.MeterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(exporter),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(providers.MeterProvider)
		providers.Meter = providers.MeterProvider.Meter(MeterName)
		providers.PrometheusHTTP = promhttp.Handler()

		if err := providers.createInstruments(); err != nil {
			return nil, fmt.Errorf("failed to create instruments: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("OpenTelemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	return providers, nil
}

// createInstruments registers the pipeline counters and histograms
func (p *OTelProviders) createInstruments() error {
	var err error

	if p.UploadsTotal, err = p.Meter.Int64Counter("salesview.uploads.total",
		metric.WithDescription("Number of dataset uploads processed")); err != nil {
		return err
	}
	if p.ParseFailures, err = p.Meter.Int64Counter("salesview.parse.failures",
		metric.WithDescription("Number of uploads rejected as unparsable CSV")); err != nil {
		return err
	}
	if p.SchemaFailures, err = p.Meter.Int64Counter("salesview.schema.failures",
		metric.WithDescription("Number of uploads missing required columns")); err != nil {
		return err
	}
	if p.EmptyResults, err = p.Meter.Int64Counter("salesview.pipeline.empty_results",
		metric.WithDescription("Number of clean/filter passes producing zero rows")); err != nil {
		return err
	}
	if p.CacheHits, err = p.Meter.Int64Counter("salesview.cache.hits",
		metric.WithDescription("Number of uploads served from the content-identity cache")); err != nil {
		return err
	}
	if p.PipelineDuration, err = p.Meter.Float64Histogram("salesview.pipeline.duration",
		metric.WithDescription("Duration of a full parse-validate-clean pass in seconds"),
		metric.WithUnit("s")); err != nil {
		return err
	}

	return nil
}

// RecordPipeline records one full ingestion pass
func (p *OTelProviders) RecordPipeline(ctx context.Context, start time.Time, outcome string) {
	if p.UploadsTotal == nil {
		return
	}
	p.UploadsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	p.PipelineDuration.Record(ctx, time.Since(start).Seconds())
}

// Shutdown flushes and stops the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown tracer provider: %w", err)
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown meter provider: %w", err)
		}
	}
	return nil
}
