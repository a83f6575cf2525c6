//go:build otelotlp

package otelobs

import (
	"context"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"autoguard/pkg/logging"
)

// InitTracer wires an OTLP HTTP span exporter when OTEL_EXPORTER_OTLP_ENDPOINT
// is set and returns the provider shutdown func. AUTOGUARD_TRACE_RATIO (0..1,
// default 1) controls head sampling.
func InitTracer(serviceName string) func(context.Context) error {
	noop := func(context.Context) error { return nil }

	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return noop
	}

	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logging.Errorf("[otel] exporter init for %s: %v", serviceName, err)
		return noop
	}

	ratio := 1.0
	if v := os.Getenv("AUTOGUARD_TRACE_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			ratio = f
		}
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		logging.Errorf("[otel] resource init: %v", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(provider)
	logging.Infof("[otel] tracing enabled for %s endpoint=%s ratio=%.2f", serviceName, endpoint, ratio)
	return provider.Shutdown
}
