package model

import "time"

// Activity is a planned activity. One-off activities carry a YYYY-MM-DD day;
// recurring ones carry a weekday name or an anchor date, optionally with an
// RRULE that overrides the weekly default.
type Activity struct {
	ID              string
	AccountID       string
	Name            string
	Day             string
	Time            string
	DurationMinutes int
	Description     string
	IsRecurring     bool
	RecurrenceRule  string
	Notes           string
	Status          string
	Tags            []string
	CreatedAt       time.Time
}

type CalendarItem struct {
	ID              string
	AccountID       string
	Name            string
	Date            time.Time
	Time            string
	DurationMinutes int
	Notes           string
	Tags            []string
	CreatedAt       time.Time
}

// RoutineBlock is a fixed part of the daily routine. A nil Weekday means every day.
type RoutineBlock struct {
	ID              string
	AccountID       string
	Name            string
	Weekday         *time.Weekday
	Time            string
	DurationMinutes int
	CreatedAt       time.Time
}

func (b RoutineBlock) OccursOn(day time.Weekday) bool {
	return b.Weekday == nil || *b.Weekday == day
}

type Settings struct {
	AccountID string
	DarkMode  bool
	Language  string
	Timezone  string
	UpdatedAt time.Time
}

func DefaultSettings(accountID string) Settings {
	return Settings{AccountID: accountID, DarkMode: false, Language: "en", Timezone: "UTC"}
}

// Location resolves the settings timezone, falling back to UTC.
func (s Settings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
