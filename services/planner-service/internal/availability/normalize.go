package availability

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTimeFormat = errors.New("invalid time of day")
	ErrInvalidDuration   = errors.New("invalid duration")
)

// Record is a scheduled item as stored: a wall-clock start on the query date
// and a length in minutes.
type Record struct {
	ID              string
	Kind            SourceKind
	Name            string
	TimeOfDay       string
	DurationMinutes int
}

// RecordError reports a record that could not be turned into a busy interval.
type RecordError struct {
	RecordID string
	Kind     SourceKind
	Name     string
	Err      error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.RecordID, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }

// ParseTimeOfDay parses a strict 24h "HH:mm" value into minutes past midnight.
func ParseTimeOfDay(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q (want HH:mm)", ErrInvalidTimeFormat, s)
	}
	h, ok1 := twoDigits(s[0], s[1])
	m, ok2 := twoDigits(s[3], s[4])
	if !ok1 || !ok2 || h > 23 || m > 59 {
		return 0, fmt.Errorf("%w: %q (want HH:mm)", ErrInvalidTimeFormat, s)
	}
	return h*60 + m, nil
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// ValidateDuration rejects non-positive lengths.
func ValidateDuration(minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("%w: %d minutes", ErrInvalidDuration, minutes)
	}
	return nil
}

// Normalize anchors rec to the window's date. An interval running past the end
// of the day is clamped to the window end and flagged with OverflowsDay.
func Normalize(rec Record, window DayWindow) (BusyInterval, error) {
	minutes, err := ParseTimeOfDay(rec.TimeOfDay)
	if err != nil {
		return BusyInterval{}, err
	}
	if err := ValidateDuration(rec.DurationMinutes); err != nil {
		return BusyInterval{}, err
	}

	start := window.At(minutes)
	end := start.Add(minuteDuration(rec.DurationMinutes))
	overflow := false
	if end.After(window.End()) {
		end = window.End()
		overflow = true
	}

	b, err := NewBusyInterval(start, end, rec.ID, rec.Kind)
	if err != nil {
		return BusyInterval{}, fmt.Errorf("%s %s: %w", rec.Kind, rec.ID, err)
	}
	b.OverflowsDay = overflow
	return b, nil
}

// NormalizeAll normalizes every record. Bad records are reported and skipped.
func NormalizeAll(records []Record, window DayWindow) ([]BusyInterval, []RecordError) {
	busy := make([]BusyInterval, 0, len(records))
	var problems []RecordError
	for _, rec := range records {
		b, err := Normalize(rec, window)
		if err != nil {
			problems = append(problems, RecordError{RecordID: rec.ID, Kind: rec.Kind, Name: rec.Name, Err: err})
			continue
		}
		busy = append(busy, b)
	}
	return busy, problems
}
