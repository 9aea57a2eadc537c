package sources

import (
	"testing"
	"time"

	"github.com/clevery/dayplanner/services/planner-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	wd, ok := ParseWeekday("Monday")
	require.True(t, ok)
	assert.Equal(t, time.Monday, wd)

	wd, ok = ParseWeekday(" sat ")
	require.True(t, ok)
	assert.Equal(t, time.Saturday, wd)

	_, ok = ParseWeekday("funday")
	assert.False(t, ok)
}

func TestOccursOn(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		activity model.Activity
		date     time.Time
		want     bool
	}{
		{
			name:     "one-off on its day",
			activity: model.Activity{Day: "2026-03-16"},
			date:     monday,
			want:     true,
		},
		{
			name:     "one-off on another day",
			activity: model.Activity{Day: "2026-03-17"},
			date:     monday,
		},
		{
			name:     "weekly by weekday name",
			activity: model.Activity{Day: "monday", IsRecurring: true, CreatedAt: created},
			date:     monday,
			want:     true,
		},
		{
			name:     "weekly by weekday name on other weekday",
			activity: model.Activity{Day: "Wednesday", IsRecurring: true, CreatedAt: created},
			date:     monday,
		},
		{
			name:     "weekly from anchor date",
			activity: model.Activity{Day: "2026-03-02", IsRecurring: true},
			date:     monday,
			want:     true,
		},
		{
			name:     "anchor date in the future",
			activity: model.Activity{Day: "2026-03-23", IsRecurring: true},
			date:     monday,
		},
		{
			name:     "every other day from anchor",
			activity: model.Activity{Day: "2026-03-14", IsRecurring: true, RecurrenceRule: "FREQ=DAILY;INTERVAL=2"},
			date:     monday,
			want:     true,
		},
		{
			name:     "every other day skips",
			activity: model.Activity{Day: "2026-03-15", IsRecurring: true, RecurrenceRule: "RRULE:FREQ=DAILY;INTERVAL=2"},
			date:     monday,
		},
		{
			name:     "rule limited by count",
			activity: model.Activity{Day: "2026-03-10", IsRecurring: true, RecurrenceRule: "FREQ=DAILY;COUNT=3"},
			date:     monday,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := OccursOn(tc.activity, tc.date, time.UTC)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOccursOn_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	a := model.Activity{Day: "Monday", IsRecurring: true, CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, loc)}
	ok, err := OccursOn(a, time.Date(2026, 3, 16, 0, 0, 0, 0, loc), loc)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidateActivitySchedule(t *testing.T) {
	require.NoError(t, ValidateActivitySchedule(model.Activity{Day: "2026-03-16"}))
	require.NoError(t, ValidateActivitySchedule(model.Activity{Day: "Friday", IsRecurring: true}))
	require.NoError(t, ValidateActivitySchedule(model.Activity{Day: "2026-03-16", IsRecurring: true, RecurrenceRule: "FREQ=MONTHLY;BYMONTHDAY=16"}))

	for _, a := range []model.Activity{
		{Day: "Friday"},
		{Day: "16/03/2026"},
		{Day: "2026-03-16", RecurrenceRule: "FREQ=DAILY"},
		{Day: "Someday", IsRecurring: true},
		{Day: "2026-03-16", IsRecurring: true, RecurrenceRule: "FREQ=SOMETIMES"},
	} {
		assert.ErrorIs(t, ValidateActivitySchedule(a), ErrInvalidRecurrence, "%+v", a)
	}
}
