package outbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/clevery/dayplanner/libs/kafkax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestNewEvent(t *testing.T) {
	evt, err := NewEvent("activity", "a1", ActivityCreated, map[string]any{"activity_id": "a1", "duration_minutes": 30})
	require.NoError(t, err)
	assert.Equal(t, "activity", evt.AggregateType)
	assert.Equal(t, ActivityCreated, evt.EventType)

	var body map[string]any
	require.NoError(t, json.Unmarshal(evt.Payload, &body))
	assert.Equal(t, "a1", body["activity_id"])

	_, err = NewEvent("activity", "a1", ActivityCreated, make(chan int))
	require.Error(t, err)
}

func TestMessage_CarriesMetaAndTrace(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	rec := Record{
		ID:          7,
		EventID:     "evt-1",
		AggregateID: "acct-1",
		EventType:   AgendaDaily,
		Payload:     []byte(`{"busy_minutes":60}`),
		Traceparent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
	}
	msg := Message(context.Background(), rec)

	assert.Equal(t, AgendaDaily, msg.Topic)
	assert.Equal(t, []byte("acct-1"), msg.Key)
	assert.Equal(t, "evt-1", kafkax.HeaderValue(msg.Headers, kafkax.HeaderEventID))
	assert.Equal(t, AgendaDaily, kafkax.HeaderValue(msg.Headers, kafkax.HeaderEventType))
	assert.Equal(t, rec.Traceparent, kafkax.HeaderValue(msg.Headers, "traceparent"))

	meta := kafkax.ExtractEventMeta(msg)
	assert.Equal(t, "evt-1", meta.EventID)
}
