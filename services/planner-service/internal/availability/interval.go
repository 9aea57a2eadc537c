package availability

import (
	"errors"
	"time"
)

// SourceKind identifies where a busy interval came from.
type SourceKind int

const (
	SourceActivity SourceKind = iota + 1
	SourceCalendarItem
	SourceRoutine
)

func (k SourceKind) String() string {
	switch k {
	case SourceActivity:
		return "activity"
	case SourceCalendarItem:
		return "calendar_item"
	case SourceRoutine:
		return "routine"
	default:
		return "unknown"
	}
}

// ParseSourceKind is the inverse of SourceKind.String.
func ParseSourceKind(s string) (SourceKind, bool) {
	switch s {
	case "activity":
		return SourceActivity, true
	case "calendar_item":
		return SourceCalendarItem, true
	case "routine":
		return SourceRoutine, true
	default:
		return 0, false
	}
}

var ErrEmptyInterval = errors.New("interval end must be after start")

// DayWindow is the time range of a single calendar date in one location:
// [00:00, 23:59:59.999].
type DayWindow struct {
	date  time.Time
	start time.Time
	end   time.Time
}

func NewDayWindow(date time.Time, loc *time.Location) DayWindow {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	// Built from wall clock fields so DST days still end at 23:59:59.999.
	end := time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
	return DayWindow{date: start, start: start, end: end}
}

func (w DayWindow) Date() time.Time          { return w.date }
func (w DayWindow) Start() time.Time         { return w.start }
func (w DayWindow) End() time.Time           { return w.end }
func (w DayWindow) Location() *time.Location { return w.start.Location() }

// At returns the instant at the given minutes past midnight on the window's date.
// A wall time skipped by a DST gap is read with the offset in force before the
// gap, which moves it forward by the gap length (02:30 becomes 03:30).
func (w DayWindow) At(minutes int) time.Time {
	y, m, d := w.date.Date()
	h, mm := minutes/60, minutes%60
	t := time.Date(y, m, d, h, mm, 0, 0, w.Location())
	if t.Hour() == h && t.Minute() == mm {
		return t
	}
	_, before := t.Add(-24 * time.Hour).Zone()
	wall := time.Date(y, m, d, h, mm, 0, 0, time.UTC)
	return wall.Add(-time.Duration(before) * time.Second).In(w.Location())
}

func (w DayWindow) String() string { return w.date.Format(time.DateOnly) }

type BusyInterval struct {
	Start        time.Time
	End          time.Time
	SourceID     string
	SourceKind   SourceKind
	OverflowsDay bool
}

func NewBusyInterval(start, end time.Time, sourceID string, kind SourceKind) (BusyInterval, error) {
	if !start.Before(end) {
		return BusyInterval{}, ErrEmptyInterval
	}
	return BusyInterval{Start: start, End: end, SourceID: sourceID, SourceKind: kind}, nil
}

func (b BusyInterval) Duration() time.Duration { return b.End.Sub(b.Start) }

type FreeInterval struct {
	Start time.Time
	End   time.Time
}

func (f FreeInterval) Duration() time.Duration { return f.End.Sub(f.Start) }
