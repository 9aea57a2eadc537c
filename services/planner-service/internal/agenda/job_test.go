package agenda

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/clevery/dayplanner/services/planner-service/internal/availability"
	"github.com/clevery/dayplanner/services/planner-service/internal/outbox"
	"github.com/clevery/dayplanner/services/planner-service/internal/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAccounts []string

func (m memAccounts) ListAccountIDs(_ context.Context, afterID string, limit int) ([]string, error) {
	ids := append([]string(nil), m...)
	sort.Strings(ids)
	var out []string
	for _, id := range ids {
		if id > afterID {
			out = append(out, id)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type stubPlanner struct {
	failFor string
}

var today = time.Date(2026, 3, 16, 7, 0, 0, 0, time.UTC)

func (s stubPlanner) Today(context.Context, string) (time.Time, error) { return today, nil }

func (s stubPlanner) DayAvailability(_ context.Context, accountID string, date time.Time) (planner.Availability, error) {
	if accountID == s.failFor {
		return planner.Availability{}, errors.New("sources down")
	}
	w := availability.NewDayWindow(date, time.UTC)
	busy := []availability.BusyInterval{
		{Start: w.At(9 * 60), End: w.At(12 * 60), SourceID: "a"},
		{Start: w.At(23 * 60), End: w.End(), SourceID: "b", OverflowsDay: true},
	}
	return planner.Availability{
		Window: w,
		Busy:   busy,
		Free:   availability.ComputeAvailability(w, busy),
	}, nil
}

type memSink struct {
	events []outbox.Event
}

func (m *memSink) Emit(_ context.Context, evt outbox.Event) error {
	m.events = append(m.events, evt)
	return nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRunOnce_EmitsPerAccount(t *testing.T) {
	sink := &memSink{}
	job, err := NewJob(memAccounts{"c", "a", "b", "d", "e"}, stubPlanner{failFor: "d"}, sink, discard(), Config{BatchSize: 2})
	require.NoError(t, err)

	n, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.Len(t, sink.events, 4)

	evt := sink.events[0]
	assert.Equal(t, outbox.AgendaDaily, evt.EventType)
	assert.Equal(t, "a", evt.AggregateID)

	var body dailyAgenda
	require.NoError(t, json.Unmarshal(evt.Payload, &body))
	assert.Equal(t, "2026-03-16", body.Date)
	assert.Equal(t, 3*60+59, body.BusyMinutes)
	assert.Equal(t, 1, body.OverflowCount)
	require.NotNil(t, body.LargestFreeBlock)
	assert.Equal(t, 11*60, body.LargestFreeBlock.Minutes)
	assert.Equal(t, "2026-03-16T12:00:00Z", body.LargestFreeBlock.Start)
}

func TestNewJob_RejectsBadSchedule(t *testing.T) {
	_, err := NewJob(memAccounts{}, stubPlanner{}, &memSink{}, discard(), Config{Schedule: "every morning"})
	require.Error(t, err)

	job, err := NewJob(memAccounts{}, stubPlanner{}, &memSink{}, discard(), Config{})
	require.NoError(t, err)
	assert.Equal(t, "0 6 * * *", job.schedule)
}

func TestRunOnce_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job, err := NewJob(memAccounts{"a"}, stubPlanner{}, &memSink{}, discard(), Config{})
	require.NoError(t, err)
	_, err = job.RunOnce(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
