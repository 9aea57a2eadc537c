package planner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clevery/dayplanner/libs/metrics"
	"github.com/clevery/dayplanner/services/planner-service/internal/availability"
	"github.com/clevery/dayplanner/services/planner-service/internal/model"
	"github.com/clevery/dayplanner/services/planner-service/internal/sources"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettings struct {
	settings map[string]model.Settings
	err      error
}

func (f fakeSettings) GetSettings(_ context.Context, accountID string) (model.Settings, error) {
	if f.err != nil {
		return model.Settings{}, f.err
	}
	s, ok := f.settings[accountID]
	if !ok {
		return model.Settings{}, pgx.ErrNoRows
	}
	return s, nil
}

type fakeSource struct {
	kind    availability.SourceKind
	records []availability.Record
	err     error
	calls   atomic.Int32
	gotDate time.Time
}

func (f *fakeSource) Kind() availability.SourceKind { return f.kind }

func (f *fakeSource) ListItemsForDate(_ context.Context, _ string, date time.Time) ([]availability.Record, error) {
	f.calls.Add(1)
	f.gotDate = date
	return f.records, f.err
}

var day = time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)

func TestDayAvailability_CombinesSources(t *testing.T) {
	acts := &fakeSource{kind: availability.SourceActivity, records: []availability.Record{
		{ID: "a1", Kind: availability.SourceActivity, TimeOfDay: "09:00", DurationMinutes: 60},
		{ID: "a2", Kind: availability.SourceActivity, TimeOfDay: "9am", DurationMinutes: 60},
	}}
	cal := &fakeSource{kind: availability.SourceCalendarItem, records: []availability.Record{
		{ID: "c1", Kind: availability.SourceCalendarItem, TimeOfDay: "09:30", DurationMinutes: 60},
		{ID: "c2", Kind: availability.SourceCalendarItem, TimeOfDay: "23:45", DurationMinutes: 60},
	}}
	reg := metrics.NewRegistry("test")
	svc := NewService(fakeSettings{}, []sources.Source{acts, cal}, reg, nil)

	got, err := svc.DayAvailability(WithCaller(context.Background(), "http"), "acct", day)
	require.NoError(t, err)
	assert.EqualValues(t, 1, acts.calls.Load())
	assert.EqualValues(t, 1, cal.calls.Load())

	w := got.Window
	require.Len(t, got.Busy, 3)
	assert.Equal(t, "a1", got.Busy[0].SourceID)
	assert.True(t, got.Busy[2].OverflowsDay)
	assert.Equal(t, []availability.FreeInterval{
		{Start: w.Start(), End: w.At(9 * 60)},
		{Start: w.At(10*60 + 30), End: w.At(23*60 + 45)},
	}, got.Free)

	require.Len(t, got.Problems, 1)
	assert.Equal(t, "a2", got.Problems[0].RecordID)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.AvailabilityComputed.WithLabelValues("http")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.RecordsRejected.WithLabelValues("activity", "invalid_time_format")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.DayOverflows.WithLabelValues("calendar_item")))
}

func TestDayAvailability_UsesAccountTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	src := &fakeSource{kind: availability.SourceRoutine}
	svc := NewService(fakeSettings{settings: map[string]model.Settings{
		"acct": {AccountID: "acct", Timezone: "Asia/Tokyo"},
	}}, []sources.Source{src}, nil, nil)

	got, err := svc.DayAvailability(context.Background(), "acct", day)
	require.NoError(t, err)
	assert.Equal(t, loc.String(), got.Window.Location().String())
	assert.Equal(t, time.Date(2026, 3, 15, 15, 0, 0, 0, time.UTC), got.Window.Start().UTC())
	assert.Equal(t, 16, src.gotDate.Day())
	require.Len(t, got.Free, 1)
}

func TestDayAvailability_SourceErrorFails(t *testing.T) {
	boom := errors.New("db down")
	svc := NewService(fakeSettings{}, []sources.Source{
		&fakeSource{kind: availability.SourceActivity},
		&fakeSource{kind: availability.SourceCalendarItem, err: boom},
	}, nil, nil)

	_, err := svc.DayAvailability(context.Background(), "acct", day)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "calendar_item source")
}

func TestDayAvailability_SettingsError(t *testing.T) {
	boom := errors.New("settings down")
	svc := NewService(fakeSettings{err: boom}, nil, nil, nil)
	_, err := svc.DayAvailability(context.Background(), "acct", day)
	require.ErrorIs(t, err, boom)
}

func TestSlots_UsesClock(t *testing.T) {
	src := &fakeSource{kind: availability.SourceActivity, records: []availability.Record{
		{ID: "a1", Kind: availability.SourceActivity, TimeOfDay: "00:00", DurationMinutes: 22 * 60},
	}}
	now := day.Add(22*time.Hour + 10*time.Minute)
	svc := NewService(nil, []sources.Source{src}, nil, nil, WithClock(func() time.Time { return now }))

	got, err := svc.DayAvailability(context.Background(), "acct", day)
	require.NoError(t, err)
	slots := svc.Slots(got, 30*time.Minute, 30*time.Minute)
	require.Len(t, slots, 2)
	assert.Equal(t, day.Add(22*time.Hour+30*time.Minute), slots[0])
	assert.Equal(t, day.Add(23*time.Hour), slots[1])

	today, err := svc.Today(context.Background(), "acct")
	require.NoError(t, err)
	assert.Equal(t, now, today)
}

func TestRejectReason(t *testing.T) {
	assert.Equal(t, "invalid_duration", RejectReason(availability.ErrInvalidDuration))
	assert.Equal(t, "other", RejectReason(errors.New("x")))
}
