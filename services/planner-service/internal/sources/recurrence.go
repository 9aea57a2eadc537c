package sources

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clevery/dayplanner/services/planner-service/internal/model"
	"github.com/teambition/rrule-go"
)

var ErrInvalidRecurrence = errors.New("invalid recurrence")

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var rruleWeekdays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// ParseWeekday accepts full or three-letter English weekday names, any case.
func ParseWeekday(s string) (time.Weekday, bool) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	return wd, ok
}

// ValidateActivitySchedule checks the day and recurrence fields of an activity
// before it is stored.
func ValidateActivitySchedule(a model.Activity) error {
	if !a.IsRecurring {
		if _, err := time.Parse(time.DateOnly, a.Day); err != nil {
			return fmt.Errorf("%w: day %q must be YYYY-MM-DD", ErrInvalidRecurrence, a.Day)
		}
		if a.RecurrenceRule != "" {
			return fmt.Errorf("%w: recurrence_rule requires is_recurring", ErrInvalidRecurrence)
		}
		return nil
	}
	_, err := recurrenceFor(a, time.UTC)
	return err
}

// OccursOn reports whether a occurs on date's calendar day in loc.
func OccursOn(a model.Activity, date time.Time, loc *time.Location) (bool, error) {
	y, m, d := date.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if !a.IsRecurring {
		return a.Day == dayKey(dayStart), nil
	}

	r, err := recurrenceFor(a, loc)
	if err != nil {
		return false, err
	}
	dayEnd := time.Date(y, m, d, 23, 59, 59, 0, loc)
	return len(r.Between(dayStart, dayEnd, true)) > 0, nil
}

// recurrenceFor builds the rule of a recurring activity. Day holds either an
// anchor date or a weekday name; an explicit RecurrenceRule overrides the
// default weekly repetition.
func recurrenceFor(a model.Activity, loc *time.Location) (*rrule.RRule, error) {
	anchor, weekday, err := anchorFor(a, loc)
	if err != nil {
		return nil, err
	}

	if raw := strings.TrimSpace(a.RecurrenceRule); raw != "" {
		r, err := rrule.StrToRRule(strings.TrimPrefix(raw, "RRULE:"))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRecurrence, err)
		}
		r.DTStart(anchor)
		return r, nil
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   anchor,
		Byweekday: []rrule.Weekday{rruleWeekdays[weekday]},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecurrence, err)
	}
	return r, nil
}

func anchorFor(a model.Activity, loc *time.Location) (time.Time, time.Weekday, error) {
	day := strings.TrimSpace(a.Day)
	if t, err := time.ParseInLocation(time.DateOnly, day, loc); err == nil {
		return t, t.Weekday(), nil
	}
	wd, ok := ParseWeekday(day)
	if !ok {
		return time.Time{}, 0, fmt.Errorf("%w: day %q is neither a date nor a weekday", ErrInvalidRecurrence, a.Day)
	}

	// Weekday-only activities repeat from the week they were created in.
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Date(2000, 1, 2, 0, 0, 0, 0, loc)
	}
	created = created.In(loc)
	y, m, d := created.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	shift := (int(wd) - int(start.Weekday()) + 7) % 7
	return start.AddDate(0, 0, shift), wd, nil
}
