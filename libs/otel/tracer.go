package otelx

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/clevery/dayplanner"

// Tracer returns the tracer used by planner packages for their own spans.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
