package kafkax

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestExtractEventMetaFallsBackToKeyAndTopic(t *testing.T) {
	withHeaders := kafka.Message{
		Topic:   "identity.user.registered.v1",
		Key:     []byte("user-1"),
		Headers: MetaHeaders(EventMeta{EventID: "evt-1", EventType: "identity.user.registered.v1"}),
	}
	assert.Equal(t, EventMeta{EventID: "evt-1", EventType: "identity.user.registered.v1"}, ExtractEventMeta(withHeaders))

	bare := kafka.Message{Topic: "identity.user.registered.v1", Key: []byte("user-2")}
	assert.Equal(t, EventMeta{EventID: "user-2", EventType: "identity.user.registered.v1"}, ExtractEventMeta(bare))
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, SplitBrokers(" k1:9092, ,k2:9092"))
	assert.Nil(t, SplitBrokers(""))
}

func TestTraceHeadersRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled, Remote: true})
	ctx := trace.ContextWithRemoteSpanContext(context.Background(), sc)

	headers := InjectTraceHeaders(ctx, MetaHeaders(EventMeta{EventID: "evt-1", EventType: "t"}))
	assert.NotEmpty(t, HeaderValue(headers, "traceparent"))

	extracted := ExtractTraceContext(context.Background(), kafka.Message{Headers: headers})
	assert.Equal(t, traceID, trace.SpanContextFromContext(extracted).TraceID())
}
