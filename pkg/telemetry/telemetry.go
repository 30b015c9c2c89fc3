// Package telemetry wires OpenTelemetry tracing. Spans are exported over
// OTLP gRPC when an endpoint is configured; otherwise tracing is a no-op.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/dashdeck/dashboard-server/pkg/defaults"
)

const instrumentationName = "github.com/dashdeck/dashboard-server"

// Options configures Setup.
type Options struct {
	// Endpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export.
	Endpoint string

	// Insecure disables TLS towards the collector.
	Insecure bool

	// ServiceName overrides the service.name resource attribute.
	ServiceName string
}

// Provider owns the tracer provider and hands out the tracer. A nil
// *Provider traces nothing.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

// Setup builds a Provider from opts and installs it as the global tracer
// provider when exporting is enabled.
func Setup(ctx context.Context, opts Options) (*Provider, error) {
	if opts.Endpoint == "" {
		return Noop(), nil
	}
	if opts.ServiceName == "" {
		opts.ServiceName = defaults.ServerName
	}

	exporterOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(opts.Endpoint),
	}
	if opts.Insecure {
		exporterOpts = append(exporterOpts,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}

	ctx, cancel := context.WithTimeout(ctx, defaults.TelemetryTimeout)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(newResource(opts.ServiceName)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return fromSDK(tp), nil
}

// NewWithProcessor builds a Provider that feeds every span to sp. It does
// not touch the global tracer provider.
func NewWithProcessor(sp sdktrace.SpanProcessor) *Provider {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sp),
		sdktrace.WithResource(newResource(defaults.ServerName)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	return fromSDK(tp)
}

// Noop returns a Provider whose spans are discarded.
func Noop() *Provider {
	return &Provider{tracer: noop.NewTracerProvider().Tracer(instrumentationName)}
}

func fromSDK(tp *sdktrace.TracerProvider) *Provider {
	return &Provider{tp: tp, tracer: tp.Tracer(instrumentationName)}
}

func newResource(serviceName string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(defaults.Version),
	)
}

// Tracer returns the tracer for this process.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil || p.tracer == nil {
		return noop.NewTracerProvider().Tracer(instrumentationName)
	}
	return p.tracer
}

// Start opens a span named name carrying attrs.
func (p *Provider) Start(ctx context.Context, name string, kind trace.SpanKind, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return p.Tracer().Start(ctx, name, trace.WithSpanKind(kind), trace.WithAttributes(attrs...))
}

// Shutdown flushes pending spans and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaults.TelemetryTimeout)
	defer cancel()
	return p.tp.Shutdown(ctx)
}

// RecordError marks span as failed when err is non-nil.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
