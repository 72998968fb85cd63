// Package tracing sets up an OpenTelemetry tracer provider and span
// helpers for the engine's suspension points (parse, plan, resolve,
// traverse, mutate). Grounded on the teacher's otel/otel-sdk/otlptrace/
// otlptracegrpc dependency set, which the teacher's own tree never wires
// up — first usage site here.
package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Config configures the exporter endpoint and sampling.
type Config struct {
	ServiceName    string
	OTLPEndpoint   string // host:port, e.g. "localhost:4317"; empty disables tracing
	SampleFraction float64
}

// Provider wraps an sdktrace.TracerProvider plus a named Tracer for
// engine spans.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

// noopProvider is not returned by Setup or used elsewhere in this package.
type noopProvider struct{}

// Setup builds a Provider. When cfg.OTLPEndpoint is empty it dials nothing
// and registers no provider: it returns a Provider whose tracer comes from
// the current global otel provider (the otel no-op default unless something
// else registered one), so Start is safe to call without a collector
// running.
func Setup(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.OTLPEndpoint == "" {
		return &Provider{tracer: otel.Tracer(cfg.ServiceName)}, nil
	}

	client := otlptracegrpc.NewClient(otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint), otlptracegrpc.WithInsecure())
	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(cfg.ServiceName),
	))
	if err != nil {
		return nil, err
	}

	fraction := cfg.SampleFraction
	if fraction <= 0 {
		fraction = 1.0
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(fraction))),
	)
	otel.SetTracerProvider(tp)

	return &Provider{tp: tp, tracer: tp.Tracer(cfg.ServiceName)}, nil
}

// Shutdown flushes and closes the exporter, if one was started.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.tp.Shutdown(ctx)
}

// Start opens a span named for a BQL pipeline stage (parse, validate,
// plan, resolve, traverse, mutate, project) and returns the child
// context plus an end func.
func (p *Provider) Start(ctx context.Context, stage string) (context.Context, func()) {
	ctx, span := p.tracer.Start(ctx, "bql."+stage)
	return ctx, func() { span.End() }
}
