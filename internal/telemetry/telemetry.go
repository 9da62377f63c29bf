// Package telemetry installs the global OpenTelemetry providers. Spans and
// metrics go to an OTLP collector when an endpoint is configured, otherwise
// to a writer through the stdout exporters.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yelinaung/finadm/internal/logger"
)

const (
	serviceName    = "finadm"
	tracerName     = "gitlab.com/yelinaung/finadm"
	metricInterval = 30 * time.Second
)

// ShutdownFunc flushes and stops the providers.
type ShutdownFunc func(context.Context) error

// Options selects the exporters.
type Options struct {
	Enabled bool
	Version string
	// Endpoint switches from stdout to OTLP. The exporters read the
	// standard OTEL_EXPORTER_OTLP_* variables for the rest.
	Endpoint string
	// Protocol is "grpc" or "http/protobuf" (default).
	Protocol string
	Out      io.Writer
}

// Setup installs tracer and meter providers. When Enabled is false it
// installs nothing and returns a no-op shutdown.
func Setup(ctx context.Context, opts Options) (ShutdownFunc, error) {
	if !opts.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", opts.Version),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build resource: %w", err)
	}

	traceExp, metricExp, err := newExporters(ctx, opts)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(metricInterval))),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Log.Debug().
		Str("exporter", exporterName(opts)).
		Msg("Telemetry enabled")

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

func exporterName(opts Options) string {
	switch {
	case opts.Endpoint == "":
		return "stdout"
	case opts.Protocol == "grpc":
		return "otlp-grpc"
	default:
		return "otlp-http"
	}
}

func newExporters(ctx context.Context, opts Options) (sdktrace.SpanExporter, sdkmetric.Exporter, error) {
	name := exporterName(opts)

	traceExp, err := newTraceExporter(ctx, name, opts.Out)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s trace exporter: %w", name, err)
	}
	metricExp, err := newMetricExporter(ctx, name, opts.Out)
	if err != nil {
		_ = traceExp.Shutdown(ctx)
		return nil, nil, fmt.Errorf("failed to create %s metric exporter: %w", name, err)
	}
	return traceExp, metricExp, nil
}

func newTraceExporter(ctx context.Context, name string, w io.Writer) (sdktrace.SpanExporter, error) {
	switch name {
	case "otlp-grpc":
		return otlptracegrpc.New(ctx)
	case "otlp-http":
		return otlptracehttp.New(ctx)
	default:
		return stdouttrace.New(stdouttrace.WithWriter(orDiscard(w)))
	}
}

func newMetricExporter(ctx context.Context, name string, w io.Writer) (sdkmetric.Exporter, error) {
	switch name {
	case "otlp-grpc":
		return otlpmetricgrpc.New(ctx)
	case "otlp-http":
		return otlpmetrichttp.New(ctx)
	default:
		return stdoutmetric.New(stdoutmetric.WithWriter(orDiscard(w)))
	}
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// StartCommand opens the root span of one CLI command.
func StartCommand(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "finadm "+name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("finadm.command", name)),
	)
}
