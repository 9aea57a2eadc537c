package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/clevery/dayplanner/services/planner-service/internal/availability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleItems = `
timezone: UTC
items:
  - id: standup
    kind: routine
    name: Standup
    time: "09:00"
    duration: 60
    weekday: Monday
  - id: dentist
    kind: calendar_item
    name: Dentist
    time: "10:30"
    duration: 30
    date: "2024-03-04"
  - id: broken
    name: Typo
    time: "9:00"
    duration: 15
  - id: friday
    kind: routine
    name: Review
    time: "15:00"
    duration: 60
    weekday: fri
`

func TestLoadItemsDefaults(t *testing.T) {
	f, err := loadItems(strings.NewReader("items:\n  - time: \"08:00\"\n    duration: 30\n"))
	require.NoError(t, err)
	require.Len(t, f.Items, 1)
	assert.Equal(t, "item-1", f.Items[0].ID)
	assert.Equal(t, "activity", f.Items[0].Kind)
}

func TestLoadItemsRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown kind":   "items:\n  - id: a\n    kind: meeting\n",
		"bad weekday":    "items:\n  - id: a\n    weekday: Funday\n",
		"bad date":       "items:\n  - id: a\n    date: 04/03/2024\n",
		"unknown field":  "items:\n  - id: a\n    length: 30\n",
		"not a document": "items: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := loadItems(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadItemsEmptyFile(t *testing.T) {
	f, err := loadItems(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Items)
}

func TestLocationPrecedence(t *testing.T) {
	f := itemFile{Timezone: "Europe/Berlin"}

	loc, err := f.location("")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	loc, err = f.location("America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())

	loc, err = itemFile{}.location("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = f.location("Mars/Olympus")
	assert.Error(t, err)
}

func TestComputeDayFiltersAndNormalizes(t *testing.T) {
	f, err := loadItems(strings.NewReader(sampleItems))
	require.NoError(t, err)

	res := computeDay(f, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), time.UTC)

	require.Len(t, res.Busy, 2)
	assert.Equal(t, "standup", res.Busy[0].SourceID)
	assert.Equal(t, availability.SourceRoutine, res.Busy[0].SourceKind)
	assert.Equal(t, "dentist", res.Busy[1].SourceID)

	require.Len(t, res.Problems, 1)
	assert.Equal(t, "broken", res.Problems[0].RecordID)
	assert.True(t, errors.Is(res.Problems[0], availability.ErrInvalidTimeFormat))

	day := res.Window
	require.Len(t, res.Free, 3)
	assert.Equal(t, day.At(0), res.Free[0].Start)
	assert.Equal(t, day.At(9*60), res.Free[0].End)
	assert.Equal(t, day.At(10*60), res.Free[1].Start)
	assert.Equal(t, day.At(10*60+30), res.Free[1].End)
	assert.Equal(t, day.At(11*60), res.Free[2].Start)
	assert.Equal(t, day.End(), res.Free[2].End)

	assert.Equal(t, "Dentist", res.Names["dentist"])
}

func TestComputeDayOtherWeekday(t *testing.T) {
	f, err := loadItems(strings.NewReader(sampleItems))
	require.NoError(t, err)

	// Friday: only the review block and the broken undated item apply.
	res := computeDay(f, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), time.UTC)
	require.Len(t, res.Busy, 1)
	assert.Equal(t, "friday", res.Busy[0].SourceID)
	assert.Len(t, res.Problems, 1)
}

func writeItems(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "items.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleItems), 0o600))
	return path
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestAvailabilityCommand(t *testing.T) {
	out := run(t, "availability", "--file", writeItems(t), "--date", "2024-03-04", "--duration", "30", "--step", "30")

	assert.Contains(t, out, "2024-03-04 (UTC)")
	assert.Contains(t, out, "Standup")
	assert.Contains(t, out, "WARNINGS")
	assert.Contains(t, out, "broken")
	assert.Contains(t, out, "SLOTS")
	assert.Contains(t, out, "10:00")
	assert.Contains(t, out, "busy=90m")
}

func TestICSCommand(t *testing.T) {
	out := run(t, "ics", "--file", writeItems(t), "--date", "2024-03-04", "--names")

	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "SUMMARY:Standup")
	assert.Contains(t, out, "TRANSPARENT")
}

func TestVersionCommand(t *testing.T) {
	assert.Equal(t, "dev\n", run(t, "version"))
}

func TestAvailabilityCommandBadDate(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"availability", "--file", writeItems(t), "--date", "tomorrow"})
	assert.Error(t, cmd.Execute())
}
