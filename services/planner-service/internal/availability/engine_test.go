package availability

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWindow(t *testing.T) DayWindow {
	t.Helper()
	return NewDayWindow(time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC), time.UTC)
}

func busyAt(w DayWindow, id string, from, to string) BusyInterval {
	s, _ := ParseTimeOfDay(from)
	e, _ := ParseTimeOfDay(to)
	return BusyInterval{Start: w.At(s), End: w.At(e), SourceID: id, SourceKind: SourceActivity}
}

func TestDayWindow_Bounds(t *testing.T) {
	w := testWindow(t)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), w.Start())
	assert.Equal(t, time.Date(2026, 3, 14, 23, 59, 59, int(999*time.Millisecond), time.UTC), w.End())
	assert.Equal(t, "2026-03-14", w.String())
}

func TestDayWindow_DSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	w := NewDayWindow(time.Date(2026, 3, 8, 0, 0, 0, 0, loc), loc)
	assert.Equal(t, 23, w.End().Hour())
	assert.Equal(t, 59, w.End().Minute())
	assert.Equal(t, 23*time.Hour-time.Millisecond, w.End().Sub(w.Start()))
}

func TestNewBusyInterval_RejectsEmpty(t *testing.T) {
	w := testWindow(t)
	_, err := NewBusyInterval(w.At(60), w.At(60), "a", SourceActivity)
	require.ErrorIs(t, err, ErrEmptyInterval)
	_, err = NewBusyInterval(w.At(90), w.At(60), "a", SourceActivity)
	require.ErrorIs(t, err, ErrEmptyInterval)
}

func TestComputeAvailability_EmptyInput(t *testing.T) {
	w := testWindow(t)
	free := ComputeAvailability(w)
	require.Len(t, free, 1)
	assert.Equal(t, FreeInterval{Start: w.Start(), End: w.End()}, free[0])

	free = ComputeAvailability(w, nil, []BusyInterval{})
	require.Len(t, free, 1)
}

func TestComputeAvailability_FullDayBusy(t *testing.T) {
	w := testWindow(t)
	free := ComputeAvailability(w, []BusyInterval{{Start: w.Start(), End: w.End(), SourceID: "all"}})
	assert.NotNil(t, free)
	assert.Empty(t, free)
}

func TestComputeAvailability_NestedOverlap(t *testing.T) {
	w := testWindow(t)
	free := ComputeAvailability(w, []BusyInterval{
		busyAt(w, "a", "09:00", "10:00"),
		busyAt(w, "b", "09:30", "09:45"),
	})
	require.Equal(t, []FreeInterval{
		{Start: w.Start(), End: w.At(9 * 60)},
		{Start: w.At(10 * 60), End: w.End()},
	}, free)
}

func TestComputeAvailability_AdjacentIntervalsLeaveOneGap(t *testing.T) {
	w := testWindow(t)
	busy := []BusyInterval{
		busyAt(w, "a", "09:00", "10:00"),
		busyAt(w, "b", "10:00", "11:00"),
	}
	free := ComputeAvailability(w, busy)
	require.Equal(t, []FreeInterval{
		{Start: w.Start(), End: w.At(9 * 60)},
		{Start: w.At(11 * 60), End: w.End()},
	}, free)

	blocks := Coalesce(w, busy)
	require.Len(t, blocks, 1)
	assert.Equal(t, w.At(9*60), blocks[0].Start)
	assert.Equal(t, w.At(11*60), blocks[0].End)
}

func TestComputeAvailability_MergesSources(t *testing.T) {
	w := testWindow(t)
	activities := []BusyInterval{busyAt(w, "a", "13:00", "14:00")}
	calendar := []BusyInterval{busyAt(w, "c", "08:00", "08:30")}
	free := ComputeAvailability(w, activities, calendar)
	require.Len(t, free, 3)
	assert.Equal(t, w.At(8*60+30), free[1].Start)
	assert.Equal(t, w.At(13*60), free[1].End)
}

func TestComputeAvailability_ClipsToWindow(t *testing.T) {
	w := testWindow(t)
	busy := []BusyInterval{
		{Start: w.Start().Add(-2 * time.Hour), End: w.At(60), SourceID: "before"},
		{Start: w.At(23 * 60), End: w.End().Add(3 * time.Hour), SourceID: "after"},
		{Start: w.Start().Add(-5 * time.Hour), End: w.Start().Add(-time.Hour), SourceID: "outside"},
	}
	free := ComputeAvailability(w, busy)
	require.Equal(t, []FreeInterval{{Start: w.At(60), End: w.At(23 * 60)}}, free)

	clipped := ClipAndSort(w, busy)
	require.Len(t, clipped, 2)
	assert.Equal(t, w.Start(), clipped[0].Start)
	assert.Equal(t, w.End(), clipped[1].End)
}

func TestClipAndSort_TieBreaks(t *testing.T) {
	w := testWindow(t)
	b1 := busyAt(w, "b", "09:00", "10:00")
	b2 := busyAt(w, "a", "09:00", "10:00")
	b3 := busyAt(w, "a", "09:00", "09:30")
	b4 := b2
	b4.SourceKind = SourceCalendarItem

	got := ClipAndSort(w, []BusyInterval{b1, b4, b2, b3})
	assert.Equal(t, []BusyInterval{b3, b2, b4, b1}, got)
}

func randomBusy(r *rand.Rand, w DayWindow, n int) []BusyInterval {
	out := make([]BusyInterval, 0, n)
	for i := 0; i < n; i++ {
		start := w.Start().Add(time.Duration(r.Intn(26*60)-60) * time.Minute)
		end := start.Add(time.Duration(1+r.Intn(180)) * time.Minute)
		out = append(out, BusyInterval{
			Start:      start,
			End:        end,
			SourceID:   string(rune('a' + r.Intn(26))),
			SourceKind: SourceKind(1 + r.Intn(3)),
		})
	}
	return out
}

func TestComputeAvailability_PartitionsWindow(t *testing.T) {
	w := testWindow(t)
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		busy := randomBusy(r, w, r.Intn(25))
		free := ComputeAvailability(w, busy)

		var total time.Duration
		for i, f := range free {
			require.True(t, f.Start.Before(f.End), "round %d: empty free interval %v", round, f)
			if i > 0 {
				require.True(t, free[i-1].End.Before(f.Start), "round %d: free intervals touch or overlap", round)
			}
			for _, b := range busy {
				overlaps := f.Start.Before(b.End) && b.Start.Before(f.End)
				require.False(t, overlaps, "round %d: free %v overlaps busy %v", round, f, b)
			}
			total += f.Duration()
		}
		for _, blk := range Coalesce(w, busy) {
			total += blk.Duration()
		}
		require.Equal(t, w.End().Sub(w.Start()), total, "round %d", round)
	}
}

func TestComputeAvailability_OrderIndependent(t *testing.T) {
	w := testWindow(t)
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 100; round++ {
		busy := randomBusy(r, w, 1+r.Intn(15))
		want := ComputeAvailability(w, busy)

		shuffled := append([]BusyInterval(nil), busy...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		half := len(shuffled) / 2
		require.Equal(t, want, ComputeAvailability(w, shuffled[half:], shuffled[:half]))
		require.Equal(t, want, ComputeAvailability(w, ClipAndSort(w, busy)))
	}
}

func TestSummarize(t *testing.T) {
	w := testWindow(t)
	busy := []BusyInterval{
		busyAt(w, "a", "09:00", "10:00"),
		busyAt(w, "b", "09:30", "11:00"),
		{Start: w.At(23*60 + 30), End: w.End(), SourceID: "late", OverflowsDay: true},
	}
	free := ComputeAvailability(w, busy)
	s := Summarize(w, busy, free)

	assert.Equal(t, 1, s.OverflowCount)
	assert.Equal(t, 2*60+29, s.BusyMinutes)
	assert.Equal(t, w.At(11*60), s.LargestFreeBlock.Start)
	assert.Equal(t, w.At(23*60+30), s.LargestFreeBlock.End)
	assert.Equal(t, 24*60-2*60-30, s.FreeMinutes)
}
