package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TraceCarrier is a W3C trace context flattened for storage in a table row.
type TraceCarrier struct {
	Traceparent string
	Tracestate  string
}

// Capture extracts the active trace context of ctx using the global propagator.
func Capture(ctx context.Context) TraceCarrier {
	m := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, m)
	return TraceCarrier{Traceparent: m.Get("traceparent"), Tracestate: m.Get("tracestate")}
}

// Context returns ctx continued from the stored trace, or ctx itself when empty.
func (c TraceCarrier) Context(ctx context.Context) context.Context {
	if c.Traceparent == "" {
		return ctx
	}
	m := propagation.MapCarrier{"traceparent": c.Traceparent}
	if c.Tracestate != "" {
		m.Set("tracestate", c.Tracestate)
	}
	return otel.GetTextMapPropagator().Extract(ctx, m)
}
