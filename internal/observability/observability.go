// Package observability provides OpenTelemetry setup for tracing, metrics, and
// structured logging of simulation runs.
package observability

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Config holds configuration shared by the tracer and meter providers.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string // Empty string disables OTLP export

	// SpanExporter and MetricReader replace the OTLP pipeline when set.
	SpanExporter sdktrace.SpanExporter
	MetricReader sdkmetric.Reader
}

// newResource describes the simulation process. It carries service attributes
// only, which avoids schema conflicts with resource.Default().
func newResource(cfg Config) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	)
}

// Providers bundles the tracer and meter providers of a run.
type Providers struct {
	Tracer  *TracerProvider
	Metrics *MetricsProvider
}

// Init initializes tracing, then metrics.
func Init(ctx context.Context, cfg Config) (*Providers, error) {
	tp, err := InitTracer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize tracer: %w", err)
	}
	mp, err := InitMetrics(ctx, cfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("initialize metrics: %w", err)
	}
	return &Providers{Tracer: tp, Metrics: mp}, nil
}

// Shutdown flushes and stops the providers in reverse order of Init.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.Metrics != nil {
		if err := p.Metrics.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown metrics: %w", err))
		}
	}
	if p.Tracer != nil {
		if err := p.Tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
		}
	}
	return errors.Join(errs...)
}
