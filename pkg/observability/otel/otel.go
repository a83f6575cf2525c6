//go:build !otelotlp

// Package otelobs provides optional OpenTelemetry tracing. Untagged builds
// compile to no-ops; -tags otelotlp enables the OTLP HTTP exporter.
package otelobs

import "context"

// InitTracer is a no-op in untagged builds.
func InitTracer(_ string) func(context.Context) error {
	return func(context.Context) error { return nil }
}
