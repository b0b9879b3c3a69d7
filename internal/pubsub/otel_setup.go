package pubsub

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "goby-channels-pubsub"

// TracingConfig controls OpenTelemetry tracing of bus traffic.
type TracingConfig struct {
	Enabled     bool   `env:"PUBSUB_TRACING_ENABLED"`
	ServiceName string `env:"PUBSUB_TRACING_SERVICE_NAME"`
	ZipkinURL   string `env:"PUBSUB_TRACING_ZIPKIN_URL"`
}

// DefaultTracingConfig returns tracing disabled with local Zipkin defaults.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		Enabled:     false,
		ServiceName: "goby-channels",
		ZipkinURL:   "http://localhost:9411/api/v2/spans",
	}
}

// SetupOTel returns a tracer exporting to Zipkin, or a no-op tracer when tracing
// is disabled. The returned cleanup flushes pending spans.
func SetupOTel(ctx context.Context, config TracingConfig) (trace.Tracer, func(), error) {
	if !config.Enabled {
		return noop.NewTracerProvider().Tracer(tracerName), func() {}, nil
	}

	exporter, err := zipkin.New(config.ZipkinURL)
	if err != nil {
		return nil, nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	cleanup := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			slog.Warn("Failed to flush traces", "error", err)
		}
	}
	return tp.Tracer(tracerName), cleanup, nil
}
